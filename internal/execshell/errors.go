package execshell

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	commandFailedTemplateConstant             = "%s failed with exit code %d"
	commandExecutionFailedTemplateConstant    = "%s could not be executed: %s"
	notInstalledSummaryTemplateConstant       = "%s is not installed or is not on your PATH."
	timeoutSummaryTemplateConstant            = "%s did not finish within %s."
	failedSummaryTemplateConstant             = "%s failed with exit code %d."
	remediationSeparatorConstant              = "\n"
)

var (
	// ErrLoggerNotConfigured indicates that the executor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates that the executor was constructed without a runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that ran and returned a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failure CommandFailedError) Error() string {
	message := fmt.Sprintf(commandFailedTemplateConstant, formatCommandLabel(failure.Command), failure.Result.ExitCode)
	detail := rawFailureDetail(failure.Result)
	if len(detail) == 0 {
		return message
	}
	return message + ": " + detail
}

// CommandExecutionError reports a command that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	causeMessage := unknownFailureMessageConstant
	if failure.Cause != nil {
		causeMessage = failure.Cause.Error()
	}
	return fmt.Sprintf(commandExecutionFailedTemplateConstant, formatCommandLabel(failure.Command), causeMessage)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// ClassifiedError is the single error surfaced by ShellExecutor for any failed invocation.
type ClassifiedError struct {
	Kind    ErrorKind
	Command ShellCommand
	Result  ExecutionResult
	Summary string
	// Detail is the raw tool output: standard error, or standard output when
	// standard error is empty.
	Detail string
	// Remediation holds guidance only, never tool output.
	Remediation string
	Cause       error
}

// Error renders a multi-line, actionable message.
func (classified ClassifiedError) Error() string {
	return joinNonEmpty(classified.Summary, classified.Detail, classified.Remediation)
}

// Unwrap exposes the raw CommandFailedError or CommandExecutionError.
func (classified ClassifiedError) Unwrap() error {
	return classified.Cause
}

// KindOf extracts the ErrorKind carried by err, or ErrorKindUnknown when err
// does not wrap a ClassifiedError. A nil error yields an empty kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var classified ClassifiedError
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ErrorKindUnknown
}

// IsKind reports whether err carries the provided ErrorKind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func newNotInstalledError(profile ToolProfile, command ShellCommand, cause error) ClassifiedError {
	return ClassifiedError{
		Kind:        ErrorKindNotInstalled,
		Command:     command,
		Summary:     fmt.Sprintf(notInstalledSummaryTemplateConstant, command.Name),
		Remediation: profile.InstallInstructions(),
		Cause:       CommandExecutionError{Command: command, Cause: cause},
	}
}

func newTimeoutError(profile ToolProfile, command ShellCommand, timeout time.Duration, result ExecutionResult, cause error) ClassifiedError {
	return ClassifiedError{
		Kind:        ErrorKindTimeout,
		Command:     command,
		Result:      result,
		Summary:     fmt.Sprintf(timeoutSummaryTemplateConstant, formatCommandLabel(command), timeout),
		Remediation: profile.timeoutRemediation(),
		Cause:       CommandExecutionError{Command: command, Cause: cause},
	}
}

func newExecutionError(command ShellCommand, cause error) ClassifiedError {
	executionError := CommandExecutionError{Command: command, Cause: cause}
	return ClassifiedError{
		Kind:    ErrorKindUnknown,
		Command: command,
		Summary: executionError.Error(),
		Cause:   executionError,
	}
}

func newFailedCommandError(profile ToolProfile, command ShellCommand, result ExecutionResult) ClassifiedError {
	classification := Classify(profile, result)
	return ClassifiedError{
		Kind:        classification.Kind,
		Command:     command,
		Result:      result,
		Summary:     fmt.Sprintf(failedSummaryTemplateConstant, formatCommandLabel(command), result.ExitCode),
		Detail:      rawFailureDetail(result),
		Remediation: classification.Remediation,
		Cause:       CommandFailedError{Command: command, Result: result},
	}
}

// rawFailureDetail prefers standard error and falls back to standard output.
func rawFailureDetail(result ExecutionResult) string {
	trimmedStandardError := strings.TrimSpace(result.StandardError)
	if len(trimmedStandardError) > 0 {
		return trimmedStandardError
	}
	return strings.TrimSpace(result.StandardOutput)
}

func joinNonEmpty(values ...string) string {
	nonEmpty := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if len(trimmed) == 0 {
			continue
		}
		nonEmpty = append(nonEmpty, trimmed)
	}
	return strings.Join(nonEmpty, remediationSeparatorConstant)
}
