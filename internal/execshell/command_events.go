package execshell

// CommandEventObserver receives lifecycle notifications from ShellExecutor.
type CommandEventObserver interface {
	// CommandStarted is invoked before the process is spawned.
	CommandStarted(command ShellCommand)
	// CommandCompleted is invoked once the process exits, whatever its exit code.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed is invoked when the process could not run to completion:
	// missing executable, timeout, or spawn failure. The failure is a ClassifiedError.
	CommandExecutionFailed(command ShellCommand, failure error)
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
