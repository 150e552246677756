package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/deploy"
	"github.com/dovetail-dev/dovetail/internal/doctor"
	"github.com/dovetail-dev/dovetail/internal/execshell"
	"github.com/dovetail-dev/dovetail/internal/outcome"
	"github.com/dovetail-dev/dovetail/internal/qualitygate"
	"github.com/dovetail-dev/dovetail/internal/status"
	"github.com/dovetail-dev/dovetail/internal/ui"
	"github.com/dovetail-dev/dovetail/internal/utils"
	flagutils "github.com/dovetail-dev/dovetail/internal/utils/flags"
	pathutils "github.com/dovetail-dev/dovetail/internal/utils/path"
	"github.com/dovetail-dev/dovetail/internal/vendorcli"
)

const (
	applicationNameConstant                    = "dovetail"
	applicationShortDescriptionConstant        = "One front door for gh, flyctl, supabase and linearis"
	applicationLongDescriptionConstant         = "dovetail runs the GitHub, Fly.io, Supabase and Linear command-line tools through a single gateway that injects credentials, bounds every call with a timeout and explains failures with a remediation."
	configFileFlagNameConstant                 = "config"
	configFileFlagUsageConstant                = "Optional path to a configuration file (YAML)."
	logLevelFlagNameConstant                   = "log-level"
	logLevelFlagUsageConstant                  = "Override the configured log level (debug, info, warn, error)."
	logFormatFlagNameConstant                  = "log-format"
	logFormatFlagUsageConstant                 = "Override the configured log format (structured or console)."
	commonConfigurationKeyConstant             = "common"
	commonLogLevelConfigKeyConstant            = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant           = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant                  = "DOVETAIL"
	configurationSearchPathEnvironmentConstant = "DOVETAIL_CONFIG_SEARCH_PATH"
	configurationNameConstant                  = "config"
	configurationTypeConstant                  = "yaml"
	configurationInitializedMessageConstant    = "configuration initialized"
	configurationLogLevelFieldConstant         = "log_level"
	configurationLogFormatFieldConstant        = "log_format"
	configurationFileFieldConstant             = "config_file"
	configurationLoadErrorTemplateConstant     = "unable to load configuration: %w"
	loggerSyncErrorTemplateConstant            = "unable to flush logger: %w"
	workingDirectoryErrorTemplateConstant      = "unable to determine working directory: %w"
	commandBuildErrorTemplateConstant          = "unable to build %s command: %w"
	defaultConfigurationSearchPathConstant     = "."
	userConfigurationSearchPathConstant        = "~/.config/dovetail"
	toolsConfigurationKeyConstant              = "tools"
	doctorConfigurationKeyConstant             = toolsConfigurationKeyConstant + ".doctor"
	qualityGateConfigurationKeyConstant        = toolsConfigurationKeyConstant + ".quality_gate"
	statusConfigurationKeyConstant             = toolsConfigurationKeyConstant + ".status"
	deployConfigurationKeyConstant             = toolsConfigurationKeyConstant + ".deploy"
)

// Version is the build version reported by --version. Release builds set it with -ldflags.
var Version = "dev"

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common      ApplicationCommonConfiguration   `mapstructure:"common"`
	Credentials credentials.VendorConfigurations `mapstructure:"credentials"`
	Tools       ApplicationToolsConfiguration    `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationToolsConfiguration holds configuration for CLI subcommands.
type ApplicationToolsConfiguration struct {
	Doctor      doctor.Configuration      `mapstructure:"doctor"`
	QualityGate qualitygate.Configuration `mapstructure:"quality_gate"`
	Status      status.Configuration      `mapstructure:"status"`
	Deploy      deploy.Configuration      `mapstructure:"deploy"`
}

// ApplicationOption customizes an Application.
type ApplicationOption func(*Application)

// WithExecutor replaces the shell-backed gateway used by every command.
func WithExecutor(executor vendorcli.CommandExecutor) ApplicationOption {
	return func(application *Application) {
		application.executor = executor
	}
}

// WithCredentialResolver replaces the environment, file and keyring resolver.
func WithCredentialResolver(resolver credentials.Resolver) ApplicationOption {
	return func(application *Application) {
		application.credentialResolver = resolver
	}
}

// WithLogOutput directs diagnostic and command event logs to output.
func WithLogOutput(output io.Writer) ApplicationOption {
	return func(application *Application) {
		application.loggerFactory = utils.NewLoggerFactory(output)
	}
}

// WithWorkingDirectory fixes the project directory instead of the process working directory.
func WithWorkingDirectory(workingDirectory string) ApplicationOption {
	return func(application *Application) {
		application.workingDirectory = workingDirectory
	}
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	workingDirectory       string
	commandContextAccessor utils.CommandContextAccessor
	commandEvents          *commandEventRelay
	executor               vendorcli.CommandExecutor
	credentialResolver     credentials.Resolver
	buildErrors            []error
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication(options ...ApplicationOption) *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(nil),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		commandEvents:          &commandEventRelay{},
	}
	for _, option := range options {
		if option != nil {
			option(application)
		}
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	cobraCommand.SetContext(context.Background())
	cobraCommand.SetFlagErrorFunc(func(command *cobra.Command, flagError error) error {
		return outcome.Configuration(flagError)
	})
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	doctorBuilder := doctor.CommandBuilder{
		LoggerProvider: application.currentLogger,
		ConfigurationProvider: func() doctor.Configuration {
			return application.configuration.Tools.Doctor
		},
		CredentialsProvider:   application.credentialConfigurations,
		Executor:              application.executor,
		CredentialResolver:    application.credentialResolver,
		CommandEventsObserver: application.commandEvents,
	}
	application.addCommand(cobraCommand, "doctor", doctorBuilder.Build)

	statusBuilder := status.CommandBuilder{
		LoggerProvider: application.currentLogger,
		ConfigurationProvider: func() status.Configuration {
			return application.configuration.Tools.Status
		},
		CredentialsProvider:   application.credentialConfigurations,
		Executor:              application.executor,
		CredentialResolver:    application.credentialResolver,
		CommandEventsObserver: application.commandEvents,
	}
	application.addCommand(cobraCommand, "status", statusBuilder.Build)

	deployBuilder := deploy.CommandBuilder{
		LoggerProvider: application.currentLogger,
		ConfigurationProvider: func() deploy.Configuration {
			return application.configuration.Tools.Deploy
		},
		QualityGateConfigurationProvider: func() qualitygate.Configuration {
			return application.configuration.Tools.QualityGate
		},
		CredentialsProvider:   application.credentialConfigurations,
		Executor:              application.executor,
		CredentialResolver:    application.credentialResolver,
		CommandEventsObserver: application.commandEvents,
	}
	application.addCommand(cobraCommand, "deploy", deployBuilder.Build)

	application.rootCommand = cobraCommand
	return application
}

func (application *Application) addCommand(rootCommand *cobra.Command, name string, build func() (*cobra.Command, error)) {
	command, buildError := build()
	if buildError != nil {
		application.buildErrors = append(application.buildErrors, fmt.Errorf(commandBuildErrorTemplateConstant, name, buildError))
		return
	}
	command.SetFlagErrorFunc(func(command *cobra.Command, flagError error) error {
		return outcome.Configuration(flagError)
	})
	rootCommand.AddCommand(command)
}

// RootCommand exposes the Cobra root command, for example to redirect output.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// Execute runs the command hierarchy with the process arguments and flushes the logger.
func (application *Application) Execute() error {
	return application.ExecuteWithArguments(os.Args[1:])
}

// ExecuteWithArguments runs the command hierarchy with arguments. Toggle flags
// written as "--flag no" are normalized before parsing.
func (application *Application) ExecuteWithArguments(arguments []string) error {
	if len(application.buildErrors) > 0 {
		return errors.Join(application.buildErrors...)
	}
	application.rootCommand.SetArgs(flagutils.NormalizeToggleArguments(application.rootCommand, arguments))

	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}
	for _, toolDefaults := range []map[string]any{
		doctor.DefaultConfigurationValues(doctorConfigurationKeyConstant),
		qualitygate.DefaultConfigurationValues(qualityGateConfigurationKeyConstant),
		status.DefaultConfigurationValues(statusConfigurationKeyConstant),
		deploy.DefaultConfigurationValues(deployConfigurationKeyConstant),
	} {
		for configurationKey, configurationValue := range toolDefaults {
			defaultValues[configurationKey] = configurationValue
		}
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return outcome.Configuration(fmt.Errorf(configurationLoadErrorTemplateConstant, loadError))
	}
	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logLevel, logLevelError := utils.ParseLogLevel(application.configuration.Common.LogLevel)
	if logLevelError != nil {
		return outcome.Configuration(logLevelError)
	}
	logFormat, logFormatError := utils.ParseLogFormat(application.configuration.Common.LogFormat)
	if logFormatError != nil {
		return outcome.Configuration(logFormatError)
	}

	logger, loggerError := application.loggerFactory.CreateLogger(logLevel, logFormat)
	if loggerError != nil {
		return outcome.Configuration(loggerError)
	}
	application.logger = logger

	application.commandEvents.setTarget(nil)
	if logFormat == utils.LogFormatConsole {
		consoleLogger, consoleLoggerError := application.loggerFactory.CreateConsoleLogger(logLevel)
		if consoleLoggerError != nil {
			return outcome.Configuration(consoleLoggerError)
		}
		application.commandEvents.setTarget(ui.NewConsoleCommandEventLogger(consoleLogger))
	}

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, string(logLevel)),
		zap.String(configurationLogFormatFieldConstant, string(logFormat)),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	workingDirectory := application.workingDirectory
	if len(workingDirectory) == 0 {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return fmt.Errorf(workingDirectoryErrorTemplateConstant, workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(command.Context(), application.configurationMetadata.ConfigFileUsed)
		updatedContext = application.commandContextAccessor.WithWorkingDirectory(updatedContext, workingDirectory)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}
	return nil
}

func (application *Application) currentLogger() *zap.Logger {
	return application.logger
}

func (application *Application) credentialConfigurations() credentials.VendorConfigurations {
	return application.configuration.Credentials
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}

func configurationSearchPaths() []string {
	if override := strings.TrimSpace(os.Getenv(configurationSearchPathEnvironmentConstant)); len(override) > 0 {
		return filepath.SplitList(override)
	}
	return []string{
		defaultConfigurationSearchPathConstant,
		pathutils.NewHomeExpander().Expand(userConfigurationSearchPathConstant),
	}
}

// commandEventRelay forwards gateway lifecycle events to the observer chosen
// once the log format is known.
type commandEventRelay struct {
	target execshell.CommandEventObserver
}

func (relay *commandEventRelay) setTarget(target execshell.CommandEventObserver) {
	relay.target = target
}

func (relay *commandEventRelay) CommandStarted(command execshell.ShellCommand) {
	if relay.target != nil {
		relay.target.CommandStarted(command)
	}
}

func (relay *commandEventRelay) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if relay.target != nil {
		relay.target.CommandCompleted(command, result)
	}
}

func (relay *commandEventRelay) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if relay.target != nil {
		relay.target.CommandExecutionFailed(command, failure)
	}
}
