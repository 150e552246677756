package execshell

import (
	"fmt"
	"strings"
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExitCodeTemplateConstant         = "%s failed with exit code %d"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	maximumArgumentDisplayLengthConstant    = 80
	truncatedArgumentSuffixConstant         = "..."
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return fmt.Sprintf(genericStartTemplateConstant, formatter.describeCommand(command))
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(genericSuccessTemplateConstant, formatter.describeCommand(command))
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return fmt.Sprintf(genericFailureTemplateConstant, formatter.describeCommand(command), result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
}

// BuildExitCodeMessage formats the message describing a non-zero exit without the tool output.
func (formatter CommandMessageFormatter) BuildExitCodeMessage(command ShellCommand, exitCode int) string {
	return fmt.Sprintf(genericExitCodeTemplateConstant, formatter.describeCommand(command), exitCode)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(genericExecutionFailureTemplateConstant, formatter.describeCommand(command), failureMessage)
}

func (formatter CommandMessageFormatter) describeCommand(command ShellCommand) string {
	return formatCommandLabel(command) + formatter.formatWorkingDirectorySuffix(command)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

// formatCommandLabel renders the executable and its arguments; long arguments
// such as request bodies are shortened.
func formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	for _, argument := range command.Details.Arguments {
		if len(argument) > maximumArgumentDisplayLengthConstant {
			argument = argument[:maximumArgumentDisplayLengthConstant] + truncatedArgumentSuffixConstant
		}
		commandParts = append(commandParts, argument)
	}
	return strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)
}
