package deploy

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/dependencies"
	"github.com/dovetail-dev/dovetail/internal/execshell"
	"github.com/dovetail-dev/dovetail/internal/flycli"
	"github.com/dovetail-dev/dovetail/internal/outcome"
	"github.com/dovetail-dev/dovetail/internal/qualitygate"
	"github.com/dovetail-dev/dovetail/internal/supabasecli"
	"github.com/dovetail-dev/dovetail/internal/ui"
	"github.com/dovetail-dev/dovetail/internal/utils"
	flagutils "github.com/dovetail-dev/dovetail/internal/utils/flags"
	"github.com/dovetail-dev/dovetail/internal/vendorcli"
)

const (
	commandUseConstant              = "deploy"
	commandShortDescriptionConstant = "Run the quality gate, push migrations and deploy to Fly.io"
	commandLongDescriptionConstant  = "deploy runs the project test suite, optionally pushes Supabase migrations and then runs flyctl deploy. Steps run in order and the first failure stops the deployment."
	qualityGateFlagNameConstant     = "quality-gate"
	qualityGateFlagUsageConstant    = "Run the quality gate before deploying."
	migrateFlagNameConstant         = "migrate"
	migrateFlagUsageConstant        = "Push Supabase migrations before deploying."
	includeSeedFlagNameConstant     = "include-seed"
	includeSeedFlagUsageConstant    = "Include seed data when pushing migrations."
	remoteOnlyFlagNameConstant      = "remote-only"
	remoteOnlyFlagUsageConstant     = "Build the image on a Fly.io remote builder."
	detachFlagNameConstant          = "detach"
	detachFlagUsageConstant         = "Return once the deployment has started."
	strategyFlagNameConstant        = "strategy"
	strategyFlagUsageConstant       = "Fly.io deployment strategy (defaults to fly.toml)."
	flyConfigFlagNameConstant       = "fly-config"
	flyConfigFlagUsageConstant      = "Path to fly.toml"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the deploy configuration.
type ConfigurationProvider func() Configuration

// QualityGateConfigurationProvider supplies the quality gate configuration.
type QualityGateConfigurationProvider func() qualitygate.Configuration

// CredentialsProvider supplies the credential configuration of every vendor.
type CredentialsProvider func() credentials.VendorConfigurations

// CommandBuilder assembles the deploy cobra command.
type CommandBuilder struct {
	LoggerProvider                   LoggerProvider
	ConfigurationProvider            ConfigurationProvider
	QualityGateConfigurationProvider QualityGateConfigurationProvider
	CredentialsProvider              CredentialsProvider
	Executor                         vendorcli.CommandExecutor
	CredentialResolver               credentials.Resolver
	CommandEventsObserver            execshell.CommandEventObserver
}

type commandFlags struct {
	targets              *flagutils.TargetFlagValues
	qualityGate          bool
	migrate              bool
	includeSeed          bool
	remoteOnly           bool
	detach               bool
	strategy             string
	flyConfigurationPath string
}

// Build constructs the deploy command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
	}

	definitions := flagutils.DefaultTargetFlagDefinitions()
	definitions.Repository.Enabled = false
	definitions.Issue.Enabled = false

	flagValues := &commandFlags{targets: flagutils.BindTargetFlags(command, definitions)}
	flagSet := command.Flags()
	flagutils.AddToggleFlag(flagSet, &flagValues.qualityGate, qualityGateFlagNameConstant, "", true, qualityGateFlagUsageConstant)
	flagutils.AddToggleFlag(flagSet, &flagValues.migrate, migrateFlagNameConstant, "", false, migrateFlagUsageConstant)
	flagutils.AddToggleFlag(flagSet, &flagValues.includeSeed, includeSeedFlagNameConstant, "", false, includeSeedFlagUsageConstant)
	flagutils.AddToggleFlag(flagSet, &flagValues.remoteOnly, remoteOnlyFlagNameConstant, "", true, remoteOnlyFlagUsageConstant)
	flagutils.AddToggleFlag(flagSet, &flagValues.detach, detachFlagNameConstant, "", false, detachFlagUsageConstant)
	flagutils.AddChoiceFlag(flagSet, &flagValues.strategy, strategyFlagNameConstant, "", Strategies, strategyFlagUsageConstant)
	flagSet.StringVar(&flagValues.flyConfigurationPath, flyConfigFlagNameConstant, "", flyConfigFlagUsageConstant)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, flagValues)
	}
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, flagValues *commandFlags) error {
	configuration := builder.resolveConfiguration()
	applyFlagOverrides(command, flagValues, &configuration)
	if validationError := configuration.Validate(); validationError != nil {
		return outcome.Configuration(validationError)
	}
	configuration.Strategy = strings.ToLower(strings.TrimSpace(configuration.Strategy))
	gateConfiguration := builder.resolveQualityGateConfiguration()

	logger := builder.resolveLogger()
	executionContext := command.Context()
	contextWorkingDirectory, _ := utils.NewCommandContextAccessor().WorkingDirectory(executionContext)
	targets := flagValues.targets.WithFallback(flagutils.TargetFlagValues{
		App:              configuration.App,
		WorkingDirectory: contextWorkingDirectory,
	})

	executor, executorError := dependencies.ResolveExecutor(builder.Executor, logger, builder.CommandEventsObserver)
	if executorError != nil {
		return executorError
	}

	flyCredential, flyCredentialError := dependencies.ResolveCredential(executionContext, builder.CredentialResolver, builder.resolveCredentials(), credentials.VendorFly)
	if flyCredentialError != nil {
		return flyCredentialError
	}
	flyClient, flyClientError := flycli.NewClient(executor, flyCredential, targets.WorkingDirectory)
	if flyClientError != nil {
		return flyClientError
	}
	serviceDependencies := Dependencies{Deployer: flyClient, Logger: logger}

	if configuration.QualityGate {
		gate, gateError := qualitygate.NewService(qualitygate.Dependencies{Executor: executor, Logger: logger})
		if gateError != nil {
			return gateError
		}
		serviceDependencies.QualityGate = gate
	}
	if configuration.Migrate {
		supabaseCredential, supabaseCredentialError := dependencies.ResolveCredential(executionContext, builder.CredentialResolver, builder.resolveCredentials(), credentials.VendorSupabase)
		if supabaseCredentialError != nil {
			return supabaseCredentialError
		}
		supabaseClient, supabaseClientError := supabasecli.NewClient(executor, supabaseCredential, targets.WorkingDirectory)
		if supabaseClientError != nil {
			return supabaseClientError
		}
		serviceDependencies.Migrations = supabaseClient
	}

	service, serviceError := NewService(serviceDependencies)
	if serviceError != nil {
		return serviceError
	}

	result, runError := service.Run(executionContext, Options{
		WorkingDirectory:   targets.WorkingDirectory,
		QualityGate:        configuration.QualityGate,
		QualityGateCommand: gateConfiguration.Command,
		QualityGateTimeout: gateConfiguration.Timeout,
		Migrate:            configuration.Migrate,
		Migrations:         supabasecli.PushOptions{IncludeSeed: configuration.IncludeSeed},
		Deploy: flycli.DeployOptions{
			App:               targets.App,
			ConfigurationPath: configuration.FlyConfigurationPath,
			Strategy:          configuration.Strategy,
			RemoteOnly:        configuration.RemoteOnly,
			Detach:            configuration.Detach,
			Timeout:           configuration.DeployTimeout(),
		},
	})
	if _, writeError := fmt.Fprint(command.OutOrStdout(), RenderText(ui.PaletteFor(command.OutOrStdout()), result)); writeError != nil && runError == nil {
		return writeError
	}
	if runError != nil && len(result.Steps) > 0 && result.Steps[len(result.Steps)-1].Status == StepStatusFailed {
		return outcome.Reported(runError)
	}
	return runError
}

func applyFlagOverrides(command *cobra.Command, flagValues *commandFlags, configuration *Configuration) {
	flagSet := command.Flags()
	if flagSet.Changed(qualityGateFlagNameConstant) {
		configuration.QualityGate = flagValues.qualityGate
	}
	if flagSet.Changed(migrateFlagNameConstant) {
		configuration.Migrate = flagValues.migrate
	}
	if flagSet.Changed(includeSeedFlagNameConstant) {
		configuration.IncludeSeed = flagValues.includeSeed
	}
	if flagSet.Changed(remoteOnlyFlagNameConstant) {
		configuration.RemoteOnly = flagValues.remoteOnly
	}
	if flagSet.Changed(detachFlagNameConstant) {
		configuration.Detach = flagValues.detach
	}
	if flagSet.Changed(strategyFlagNameConstant) {
		configuration.Strategy = flagValues.strategy
	}
	if flagSet.Changed(flyConfigFlagNameConstant) {
		configuration.FlyConfigurationPath = flagValues.flyConfigurationPath
	}
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return Configuration{QualityGate: true, RemoteOnly: true, Timeout: DefaultTimeout}
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveQualityGateConfiguration() qualitygate.Configuration {
	if builder.QualityGateConfigurationProvider == nil {
		return qualitygate.Configuration{}
	}
	return builder.QualityGateConfigurationProvider()
}

func (builder *CommandBuilder) resolveCredentials() credentials.VendorConfigurations {
	if builder.CredentialsProvider == nil {
		return credentials.VendorConfigurations{}
	}
	return builder.CredentialsProvider()
}
