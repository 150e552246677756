package status

import "time"

// DefaultTimeout bounds each vendor call when no timeout is configured.
const DefaultTimeout = 20 * time.Second

// Configuration holds the status command settings.
type Configuration struct {
	Repository           string        `mapstructure:"repository"`
	App                  string        `mapstructure:"app"`
	FlyConfigurationPath string        `mapstructure:"fly_config"`
	Issue                string        `mapstructure:"issue"`
	Timeout              time.Duration `mapstructure:"timeout"`
}

// CallTimeout returns the configured timeout or DefaultTimeout.
func (configuration Configuration) CallTimeout() time.Duration {
	if configuration.Timeout <= 0 {
		return DefaultTimeout
	}
	return configuration.Timeout
}

// DefaultConfigurationValues returns the defaults registered with viper under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	return map[string]any{
		prefix + ".repository": "",
		prefix + ".app":        "",
		prefix + ".fly_config": "",
		prefix + ".issue":      "",
		prefix + ".timeout":    DefaultTimeout.String(),
	}
}
