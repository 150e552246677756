package vendorcli

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/execshell"
)

// CommandExecutor is the minimal interface required from execshell.ShellExecutor.
type CommandExecutor interface {
	Execute(executionContext context.Context, profile execshell.ToolProfile, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// WithDefaultTimeout applies timeout to every invocation that does not carry
// its own. A non-positive timeout returns executor unchanged.
func WithDefaultTimeout(executor CommandExecutor, timeout time.Duration) CommandExecutor {
	if executor == nil || timeout <= 0 {
		return executor
	}
	return boundedExecutor{executor: executor, timeout: timeout}
}

type boundedExecutor struct {
	executor CommandExecutor
	timeout  time.Duration
}

func (bounded boundedExecutor) Execute(executionContext context.Context, profile execshell.ToolProfile, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	if details.Timeout <= 0 {
		details.Timeout = bounded.timeout
	}
	return bounded.executor.Execute(executionContext, profile, details)
}

// Request describes one vendor CLI invocation.
type Request struct {
	Arguments     []string
	StandardInput []byte
	// Timeout overrides the profile default when positive.
	Timeout time.Duration
	// WorkingDirectory overrides the invoker default when non-empty.
	WorkingDirectory string
	// EnvironmentVariables are merged over the credential environment.
	EnvironmentVariables map[string]string
}

// Invoker runs requests for one vendor profile with a resolved credential.
type Invoker struct {
	executor         CommandExecutor
	profile          execshell.ToolProfile
	environment      map[string]string
	workingDirectory string
}

// NewInvoker binds an executor to a vendor profile. The credential, when
// found, is injected into every child process environment.
func NewInvoker(executor CommandExecutor, profile execshell.ToolProfile, credential credentials.Credential, workingDirectory string) (*Invoker, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Invoker{
		executor:         executor,
		profile:          profile,
		environment:      credential.Environment(),
		workingDirectory: strings.TrimSpace(workingDirectory),
	}, nil
}

// Profile returns the classification profile used for every request.
func (invoker *Invoker) Profile() execshell.ToolProfile {
	return invoker.profile
}

// Run executes the request. Gateway failures are wrapped in OperationError;
// the captured result is returned alongside them.
func (invoker *Invoker) Run(executionContext context.Context, operation OperationName, request Request) (execshell.ExecutionResult, error) {
	details := execshell.CommandDetails{
		Arguments:            request.Arguments,
		WorkingDirectory:     invoker.workingDirectory,
		EnvironmentVariables: mergeEnvironment(invoker.environment, request.EnvironmentVariables),
		StandardInput:        request.StandardInput,
		Timeout:              request.Timeout,
	}
	if len(strings.TrimSpace(request.WorkingDirectory)) > 0 {
		details.WorkingDirectory = request.WorkingDirectory
	}

	executionResult, executionError := invoker.executor.Execute(executionContext, invoker.profile, details)
	if executionError != nil {
		return executionResult, OperationError{Operation: operation, Cause: executionError}
	}
	return executionResult, nil
}

// RunJSON executes the request and decodes standard output into target.
func (invoker *Invoker) RunJSON(executionContext context.Context, operation OperationName, request Request, target any) error {
	executionResult, executionError := invoker.Run(executionContext, operation, request)
	if executionError != nil {
		return executionError
	}
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), target); decodingError != nil {
		return ResponseDecodingError{Operation: operation, Cause: decodingError}
	}
	return nil
}

func mergeEnvironment(base map[string]string, overrides map[string]string) map[string]string {
	if len(overrides) == 0 {
		return base
	}
	merged := make(map[string]string, len(base)+len(overrides))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range overrides {
		merged[key] = value
	}
	return merged
}

// RequireValue trims value and reports a MissingValueError when it is blank.
func RequireValue(fieldName string, value string) (string, error) {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return "", MissingValueError(fieldName)
	}
	return trimmedValue, nil
}

// IsResourceNotFound reports whether err was classified as a missing resource.
func IsResourceNotFound(err error) bool {
	return execshell.IsKind(err, execshell.ErrorKindNotFound)
}
