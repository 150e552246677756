package execshell

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

const (
	chdirOperationNameConstant       = "chdir"
	logFieldCommandNameConstant      = "command_name"
	logFieldArgumentsConstant        = "arguments"
	logFieldWorkingDirectoryConstant = "working_directory"
	logFieldExitCodeConstant         = "exit_code"
	logFieldErrorKindConstant        = "error_kind"
	logFieldTimeoutConstant          = "timeout"
	killedExitCodeConstant           = -1
	deadlinePrecisionConstant        = time.Millisecond
)

// ShellExecutor is the gateway every vendor wrapper runs external commands through.
type ShellExecutor struct {
	logger    *zap.Logger
	runner    CommandRunner
	observer  CommandEventObserver
	formatter CommandMessageFormatter
}

// ExecutorOption customizes a ShellExecutor.
type ExecutorOption func(*ShellExecutor)

// WithCommandEventObserver registers an observer for command lifecycle events.
func WithCommandEventObserver(observer CommandEventObserver) ExecutorOption {
	return func(executor *ShellExecutor) {
		if observer != nil {
			executor.observer = observer
		}
	}
}

// NewShellExecutor constructs a ShellExecutor around the provided runner.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, options ...ExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	executor := &ShellExecutor{
		logger:    logger,
		runner:    runner,
		observer:  noopCommandEventObserver{},
		formatter: CommandMessageFormatter{},
	}
	for _, option := range options {
		if option != nil {
			option(executor)
		}
	}
	return executor, nil
}

// Execute runs the command described by details using profile.Name as the
// executable. A zero exit code returns the captured result untouched. Every
// other outcome returns a ClassifiedError; the captured result is returned
// alongside it whenever the process ran.
func (executor *ShellExecutor) Execute(executionContext context.Context, profile ToolProfile, details CommandDetails) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	command := ShellCommand{Name: profile.Name, Details: details}
	timeout := details.Timeout
	if timeout <= 0 {
		timeout = profile.DefaultTimeout
	}

	effectiveTimeout := effectiveDeadline(executionContext, timeout, time.Now())
	runContext := executionContext
	if timeout > 0 {
		var cancel context.CancelFunc
		runContext, cancel = context.WithTimeout(executionContext, timeout)
		defer cancel()
	}

	executor.logger.Debug(
		executor.formatter.BuildStartedMessage(command),
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, details.WorkingDirectory),
	)
	executor.observer.CommandStarted(command)

	result, runError := executor.runner.Run(runContext, command)

	if killedByDeadline(runContext, result, runError) {
		classified := newTimeoutError(profile, command, effectiveTimeout, result, runContext.Err())
		executor.reportExecutionFailure(command, classified, zap.Duration(logFieldTimeoutConstant, effectiveTimeout))
		return result, classified
	}

	if runError != nil {
		var classified ClassifiedError
		if isExecutableMissing(runError) {
			classified = newNotInstalledError(profile, command, runError)
		} else {
			classified = newExecutionError(command, runError)
		}
		executor.reportExecutionFailure(command, classified)
		return ExecutionResult{}, classified
	}

	executor.observer.CommandCompleted(command, result)

	if result.Succeeded() {
		executor.logger.Debug(
			executor.formatter.BuildSuccessMessage(command),
			zap.String(logFieldCommandNameConstant, string(command.Name)),
		)
		return result, nil
	}

	classified := newFailedCommandError(profile, command, result)
	executor.logger.Debug(
		executor.formatter.BuildFailureMessage(command, result),
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Int(logFieldExitCodeConstant, result.ExitCode),
		zap.String(logFieldErrorKindConstant, string(classified.Kind)),
	)
	return result, classified
}

func (executor *ShellExecutor) reportExecutionFailure(command ShellCommand, classified ClassifiedError, extraFields ...zap.Field) {
	fields := []zap.Field{
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.String(logFieldErrorKindConstant, string(classified.Kind)),
	}
	fields = append(fields, extraFields...)
	executor.logger.Debug(executor.formatter.BuildExecutionFailureMessage(command, classified.Cause), fields...)
	executor.observer.CommandExecutionFailed(command, classified)
}

// killedByDeadline reports whether the deadline ended the process. A process
// that exited on its own just as the deadline passed keeps its own outcome.
func killedByDeadline(runContext context.Context, result ExecutionResult, runError error) bool {
	if !errors.Is(runContext.Err(), context.DeadlineExceeded) {
		return false
	}
	return runError != nil || result.ExitCode == killedExitCodeConstant
}

// effectiveDeadline is the earlier of the configured timeout and the caller's
// own deadline, measured from now.
func effectiveDeadline(parentContext context.Context, configured time.Duration, now time.Time) time.Duration {
	deadline, hasDeadline := parentContext.Deadline()
	if !hasDeadline {
		return configured
	}
	remaining := deadline.Sub(now).Round(deadlinePrecisionConstant)
	if remaining < 0 {
		remaining = 0
	}
	if configured > 0 && configured <= remaining {
		return configured
	}
	return remaining
}

// isExecutableMissing distinguishes a missing executable from other spawn failures
// such as a missing working directory.
func isExecutableMissing(runError error) bool {
	if errors.Is(runError, exec.ErrNotFound) {
		return true
	}
	var pathError *fs.PathError
	if errors.As(runError, &pathError) {
		return pathError.Op != chdirOperationNameConstant && errors.Is(pathError.Err, fs.ErrNotExist)
	}
	return false
}
