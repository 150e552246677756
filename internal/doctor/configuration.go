package doctor

import (
	"time"

	"github.com/dovetail-dev/dovetail/internal/credentials"
)

// DefaultProbeTimeout bounds every probe when no timeout is configured.
const DefaultProbeTimeout = 15 * time.Second

// Report output formats.
const (
	OutputFormatTable = "table"
	OutputFormatYAML  = "yaml"
)

// ToolConfiguration holds per-tool doctor settings.
type ToolConfiguration struct {
	// Constraint is a semantic version range such as ">= 2.40.0".
	Constraint string `mapstructure:"constraint"`
}

// Configuration captures doctor settings loaded from tools.doctor.
type Configuration struct {
	Timeout  time.Duration     `mapstructure:"timeout"`
	Output   string            `mapstructure:"output"`
	GitHub   ToolConfiguration `mapstructure:"github"`
	Fly      ToolConfiguration `mapstructure:"fly"`
	Supabase ToolConfiguration `mapstructure:"supabase"`
	Linear   ToolConfiguration `mapstructure:"linear"`
}

// For returns the tool configuration of vendor.
func (configuration Configuration) For(vendor credentials.Vendor) ToolConfiguration {
	switch vendor {
	case credentials.VendorGitHub:
		return configuration.GitHub
	case credentials.VendorFly:
		return configuration.Fly
	case credentials.VendorSupabase:
		return configuration.Supabase
	case credentials.VendorLinear:
		return configuration.Linear
	default:
		return ToolConfiguration{}
	}
}

// ProbeTimeout returns the configured timeout or DefaultProbeTimeout.
func (configuration Configuration) ProbeTimeout() time.Duration {
	if configuration.Timeout > 0 {
		return configuration.Timeout
	}
	return DefaultProbeTimeout
}

// DefaultConfigurationValues returns the viper defaults for the doctor command.
func DefaultConfigurationValues(prefix string) map[string]any {
	return map[string]any{
		prefix + ".timeout": DefaultProbeTimeout.String(),
		prefix + ".output":  OutputFormatTable,
	}
}
