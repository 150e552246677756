package status

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/dependencies"
	"github.com/dovetail-dev/dovetail/internal/execshell"
	"github.com/dovetail-dev/dovetail/internal/flycli"
	"github.com/dovetail-dev/dovetail/internal/githubcli"
	"github.com/dovetail-dev/dovetail/internal/linearcli"
	"github.com/dovetail-dev/dovetail/internal/outcome"
	"github.com/dovetail-dev/dovetail/internal/supabasecli"
	"github.com/dovetail-dev/dovetail/internal/ui"
	"github.com/dovetail-dev/dovetail/internal/utils"
	flagutils "github.com/dovetail-dev/dovetail/internal/utils/flags"
	"github.com/dovetail-dev/dovetail/internal/vendorcli"
)

const (
	commandUseConstant              = "status"
	commandShortDescriptionConstant = "Show pull request, app, local stack and issue status for the current project"
	commandLongDescriptionConstant  = "status asks gh, flyctl, supabase and linearis about the current project. Each section is reported independently; a failing vendor does not hide the others."
	flyConfigFlagNameConstant       = "fly-config"
	flyConfigFlagUsageConstant      = "Path to fly.toml or the directory containing it"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the status configuration.
type ConfigurationProvider func() Configuration

// CredentialsProvider supplies the credential configuration of every vendor.
type CredentialsProvider func() credentials.VendorConfigurations

// CommandBuilder assembles the status cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	CredentialsProvider   CredentialsProvider
	Executor              vendorcli.CommandExecutor
	CredentialResolver    credentials.Resolver
	CommandEventsObserver execshell.CommandEventObserver
}

// Build constructs the status command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
	}

	targets := flagutils.BindTargetFlags(command, flagutils.DefaultTargetFlagDefinitions())
	var flyConfigurationPath string
	command.Flags().StringVar(&flyConfigurationPath, flyConfigFlagNameConstant, "", flyConfigFlagUsageConstant)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, *targets, flyConfigurationPath)
	}
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, targets flagutils.TargetFlagValues, flyConfigurationPath string) error {
	configuration := builder.resolveConfiguration()
	logger := builder.resolveLogger()
	executionContext := command.Context()

	contextAccessor := utils.NewCommandContextAccessor()
	contextWorkingDirectory, _ := contextAccessor.WorkingDirectory(executionContext)
	resolvedTargets := targets.WithFallback(flagutils.TargetFlagValues{
		Repository:       configuration.Repository,
		App:              configuration.App,
		Issue:            configuration.Issue,
		WorkingDirectory: contextWorkingDirectory,
	})
	if len(flyConfigurationPath) == 0 {
		flyConfigurationPath = configuration.FlyConfigurationPath
	}

	executor, executorError := dependencies.ResolveExecutor(builder.Executor, logger, builder.CommandEventsObserver)
	if executorError != nil {
		return executorError
	}
	bounded := vendorcli.WithDefaultTimeout(executor, configuration.CallTimeout())

	resolved := make(map[credentials.Vendor]credentials.Credential, 4)
	for _, vendor := range []credentials.Vendor{credentials.VendorGitHub, credentials.VendorFly, credentials.VendorSupabase, credentials.VendorLinear} {
		credential, credentialError := dependencies.ResolveCredential(executionContext, builder.CredentialResolver, builder.resolveCredentials(), vendor)
		if credentialError != nil {
			return credentialError
		}
		resolved[vendor] = credential
	}

	workingDirectory := resolvedTargets.WorkingDirectory
	githubClient, githubError := githubcli.NewClient(bounded, resolved[credentials.VendorGitHub], workingDirectory)
	if githubError != nil {
		return githubError
	}
	flyClient, flyError := flycli.NewClient(bounded, resolved[credentials.VendorFly], workingDirectory)
	if flyError != nil {
		return flyError
	}
	supabaseClient, supabaseError := supabasecli.NewClient(bounded, resolved[credentials.VendorSupabase], workingDirectory)
	if supabaseError != nil {
		return supabaseError
	}
	linearClient, linearError := linearcli.NewClient(bounded, resolved[credentials.VendorLinear], workingDirectory)
	if linearError != nil {
		return linearError
	}

	service, serviceError := NewService(Dependencies{
		PullRequests: githubClient,
		Apps:         flyClient,
		Stack:        supabaseClient,
		Issues:       linearClient,
		Logger:       logger,
	})
	if serviceError != nil {
		return serviceError
	}

	report := service.Collect(executionContext, Options{
		Repository:           resolvedTargets.Repository,
		App:                  resolvedTargets.App,
		FlyConfigurationPath: flyConfigurationPath,
		Issue:                resolvedTargets.Issue,
		WorkingDirectory:     workingDirectory,
	})
	if _, writeError := fmt.Fprint(command.OutOrStdout(), RenderText(ui.PaletteFor(command.OutOrStdout()), report)); writeError != nil {
		return writeError
	}
	if report.Failed() {
		return outcome.Reported(ErrIncomplete)
	}
	return nil
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
		return Configuration{Timeout: DefaultTimeout}
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveCredentials() credentials.VendorConfigurations {
	if builder.CredentialsProvider == nil {
		return credentials.VendorConfigurations{}
	}
	return builder.CredentialsProvider()
}
