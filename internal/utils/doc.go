// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the Viper-backed ConfigurationLoader, the zap LoggerFactory and
// the CommandContextAccessor the root command uses to hand the configuration
// file path and working directory to subcommands.
package utils
