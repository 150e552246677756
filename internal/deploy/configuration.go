package deploy

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTimeout bounds the flyctl deploy invocation when no timeout is configured.
const DefaultTimeout = 15 * time.Minute

// Fly.io deployment strategies accepted by flyctl deploy.
const (
	StrategyRolling   = "rolling"
	StrategyImmediate = "immediate"
	StrategyCanary    = "canary"
	StrategyBlueGreen = "bluegreen"
)

const unsupportedStrategyTemplateConstant = "unsupported deploy strategy %q (choose one of %s)"

// Strategies lists the accepted deployment strategies.
var Strategies = []string{StrategyRolling, StrategyImmediate, StrategyCanary, StrategyBlueGreen}

// Configuration holds the deploy command settings.
type Configuration struct {
	App                  string        `mapstructure:"app"`
	FlyConfigurationPath string        `mapstructure:"fly_config"`
	Strategy             string        `mapstructure:"strategy"`
	RemoteOnly           bool          `mapstructure:"remote_only"`
	Detach               bool          `mapstructure:"detach"`
	QualityGate          bool          `mapstructure:"quality_gate"`
	Migrate              bool          `mapstructure:"migrate"`
	IncludeSeed          bool          `mapstructure:"include_seed"`
	Timeout              time.Duration `mapstructure:"timeout"`
}

// DeployTimeout returns the configured timeout or DefaultTimeout.
func (configuration Configuration) DeployTimeout() time.Duration {
	if configuration.Timeout <= 0 {
		return DefaultTimeout
	}
	return configuration.Timeout
}

// Validate rejects unknown strategies. An empty strategy leaves the choice to flyctl.
func (configuration Configuration) Validate() error {
	strategy := strings.ToLower(strings.TrimSpace(configuration.Strategy))
	if len(strategy) == 0 {
		return nil
	}
	for _, candidate := range Strategies {
		if candidate == strategy {
			return nil
		}
	}
	return fmt.Errorf(unsupportedStrategyTemplateConstant, configuration.Strategy, strings.Join(Strategies, "|"))
}

// DefaultConfigurationValues returns the defaults registered with viper under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	return map[string]any{
		prefix + ".app":          "",
		prefix + ".fly_config":   "",
		prefix + ".strategy":     "",
		prefix + ".remote_only":  true,
		prefix + ".detach":       false,
		prefix + ".quality_gate": true,
		prefix + ".migrate":      false,
		prefix + ".include_seed": false,
		prefix + ".timeout":      DefaultTimeout.String(),
	}
}
