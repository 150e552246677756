package execshell

import (
	"context"
	"time"
)

const (
	outputStreamSeparatorConstant = "\n"
	commandGitHubStringConstant   = "gh"
	commandFlyStringConstant      = "flyctl"
	commandSupabaseStringConstant = "supabase"
	commandLinearStringConstant   = "linearis"
)

// CommandName identifies an external executable.
type CommandName string

// Known vendor executables.
const (
	CommandGitHub   CommandName = CommandName(commandGitHubStringConstant)
	CommandFly      CommandName = CommandName(commandFlyStringConstant)
	CommandSupabase CommandName = CommandName(commandSupabaseStringConstant)
	CommandLinear   CommandName = CommandName(commandLinearStringConstant)
)

// CommandDetails describes a single invocation of an executable.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
	// Timeout bounds the invocation; zero falls back to the profile default, and
	// a zero profile default waits indefinitely.
	Timeout time.Duration
}

// ShellCommand couples an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// Succeeded reports whether the command exited with status zero.
func (result ExecutionResult) Succeeded() bool {
	return result.ExitCode == 0
}

// CombinedOutput concatenates standard output and standard error on separate
// lines so that no pattern can match across the two streams.
func (result ExecutionResult) CombinedOutput() string {
	if len(result.StandardOutput) == 0 {
		return result.StandardError
	}
	if len(result.StandardError) == 0 {
		return result.StandardOutput
	}
	return result.StandardOutput + outputStreamSeparatorConstant + result.StandardError
}

// CommandRunner spawns processes. Implementations return a nil error for
// processes that ran to completion regardless of their exit code.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}
