package credentials

import "strings"

// Configuration declares how one vendor token is located.
type Configuration struct {
	Token   string   `mapstructure:"token"`
	Sources []string `mapstructure:"sources"`
}

// VendorConfigurations groups the credential configuration of every vendor.
type VendorConfigurations struct {
	GitHub   Configuration `mapstructure:"github"`
	Fly      Configuration `mapstructure:"fly"`
	Supabase Configuration `mapstructure:"supabase"`
	Linear   Configuration `mapstructure:"linear"`
}

// For returns the configuration for the provided vendor.
func (configurations VendorConfigurations) For(vendor Vendor) Configuration {
	switch vendor {
	case VendorGitHub:
		return configurations.GitHub
	case VendorFly:
		return configurations.Fly
	case VendorSupabase:
		return configurations.Supabase
	case VendorLinear:
		return configurations.Linear
	default:
		return Configuration{}
	}
}

// Spec combines the configured values with the vendor's environment conventions.
func (configuration Configuration) Spec(vendor Vendor) (Spec, error) {
	spec := DefaultSpec(vendor)
	spec.Explicit = strings.TrimSpace(configuration.Token)
	sources, parseError := ParseSources(configuration.Sources)
	if parseError != nil {
		return Spec{}, parseError
	}
	spec.Sources = sources
	return spec, nil
}
