package doctor

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/dependencies"
	"github.com/dovetail-dev/dovetail/internal/execshell"
	"github.com/dovetail-dev/dovetail/internal/outcome"
	"github.com/dovetail-dev/dovetail/internal/ui"
	"github.com/dovetail-dev/dovetail/internal/utils"
	flagutils "github.com/dovetail-dev/dovetail/internal/utils/flags"
	"github.com/dovetail-dev/dovetail/internal/vendorcli"
)

const (
	commandUseConstant                  = "doctor"
	commandShortDescriptionConstant     = "Check that the vendor CLIs are installed, current and authenticated"
	commandLongDescriptionConstant      = "doctor runs each vendor CLI with --version, compares the version against the configured constraint and performs a read-only call to confirm authentication."
	outputFlagNameConstant              = "output"
	outputFlagUsageConstant             = "Report format."
	timeoutFlagNameConstant             = "timeout"
	timeoutFlagUsageConstant            = "Timeout applied to each probe."
	reportEncodingErrorTemplateConstant = "unable to encode doctor report: %w"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the doctor configuration.
type ConfigurationProvider func() Configuration

// CredentialsProvider supplies the credential configuration of every vendor.
type CredentialsProvider func() credentials.VendorConfigurations

// CommandBuilder assembles the doctor cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	CredentialsProvider   CredentialsProvider
	Executor              vendorcli.CommandExecutor
	CredentialResolver    credentials.Resolver
	CommandEventsObserver execshell.CommandEventObserver
}

// Build constructs the doctor command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	var outputFormat string
	flagutils.AddChoiceFlag(command.Flags(), &outputFormat, outputFlagNameConstant, OutputFormatTable, []string{OutputFormatTable, OutputFormatYAML}, outputFlagUsageConstant)
	command.Flags().Duration(timeoutFlagNameConstant, 0, timeoutFlagUsageConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	if command.Flags().Changed(outputFlagNameConstant) {
		configuration.Output = command.Flags().Lookup(outputFlagNameConstant).Value.String()
	}
	if command.Flags().Changed(timeoutFlagNameConstant) {
		timeoutValue, timeoutError := command.Flags().GetDuration(timeoutFlagNameConstant)
		if timeoutError != nil {
			return outcome.Configuration(timeoutError)
		}
		configuration.Timeout = timeoutValue
	}
	if configuration.Output != OutputFormatYAML {
		configuration.Output = OutputFormatTable
	}

	logger := builder.resolveLogger()
	executor, executorError := dependencies.ResolveExecutor(builder.Executor, logger, builder.CommandEventsObserver)
	if executorError != nil {
		return executorError
	}

	executionContext := command.Context()
	contextAccessor := utils.NewCommandContextAccessor()
	workingDirectory, _ := contextAccessor.WorkingDirectory(executionContext)

	resolvedCredentials := make(map[credentials.Vendor]credentials.Credential, len(ProbedVendors))
	for _, vendor := range ProbedVendors {
		credential, credentialError := dependencies.ResolveCredential(executionContext, builder.CredentialResolver, builder.resolveCredentials(), vendor)
		if credentialError != nil {
			return credentialError
		}
		resolvedCredentials[vendor] = credential
	}

	probes, probesError := BuildProbes(executor, resolvedCredentials, configuration, workingDirectory)
	if probesError != nil {
		return probesError
	}
	service, serviceError := NewService(executor, logger)
	if serviceError != nil {
		return serviceError
	}

	report, runError := service.Run(executionContext, probes, configuration.ProbeTimeout())
	if runError != nil {
		return runError
	}
	report.ConfigurationFile, _ = contextAccessor.ConfigurationFilePath(executionContext)

	if writeError := writeReport(command, configuration.Output, report); writeError != nil {
		return writeError
	}
	if !report.Healthy() {
		return outcome.Reported(ErrUnhealthy)
	}
	return nil
}

func writeReport(command *cobra.Command, outputFormat string, report Report) error {
	if outputFormat == OutputFormatYAML {
		encoded, encodingError := RenderYAML(report)
		if encodingError != nil {
			return fmt.Errorf(reportEncodingErrorTemplateConstant, encodingError)
		}
		_, writeError := command.OutOrStdout().Write(encoded)
		return writeError
	}
	_, writeError := fmt.Fprint(command.OutOrStdout(), RenderText(ui.PaletteFor(command.OutOrStdout()), report))
	return writeError
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
		return Configuration{Timeout: DefaultProbeTimeout, Output: OutputFormatTable}
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveCredentials() credentials.VendorConfigurations {
	if builder.CredentialsProvider == nil {
		return credentials.VendorConfigurations{}
	}
	return builder.CredentialsProvider()
}
