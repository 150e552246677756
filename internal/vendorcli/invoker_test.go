package vendorcli_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/execshell"
	"github.com/dovetail-dev/dovetail/internal/vendorcli"
)

const (
	testOperationNameConstant     = vendorcli.OperationName("Probe")
	testWorkingDirectoryConstant  = "/work/project"
	testOverrideDirectoryConstant = "/work/other"
)

type recordingExecutor struct {
	result           execshell.ExecutionResult
	err              error
	recordedProfiles []execshell.ToolProfile
	recordedDetails  []execshell.CommandDetails
}

func (executor *recordingExecutor) Execute(_ context.Context, profile execshell.ToolProfile, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedProfiles = append(executor.recordedProfiles, profile)
	executor.recordedDetails = append(executor.recordedDetails, details)
	return executor.result, executor.err
}

func TestNewInvokerRequiresExecutor(testInstance *testing.T) {
	invoker, creationError := vendorcli.NewInvoker(nil, execshell.GenericProfile("tool"), credentials.Credential{}, "")
	require.ErrorIs(testInstance, creationError, vendorcli.ErrExecutorNotConfigured)
	require.Nil(testInstance, invoker)
}

func TestInvokerRunBuildsCommandDetails(testInstance *testing.T) {
	executor := &recordingExecutor{}
	profile := execshell.ToolProfile{Name: "tool", InstallURL: "https://tool.example.com"}
	credential := credentials.Credential{Value: "secret", TargetVariable: "TOOL_TOKEN"}

	invoker, creationError := vendorcli.NewInvoker(executor, profile, credential, " "+testWorkingDirectoryConstant+" ")
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, profile, invoker.Profile())

	_, firstError := invoker.Run(context.Background(), testOperationNameConstant, vendorcli.Request{
		Arguments:     []string{"status"},
		StandardInput: []byte("payload"),
		Timeout:       time.Minute,
	})
	require.NoError(testInstance, firstError)

	_, secondError := invoker.Run(context.Background(), testOperationNameConstant, vendorcli.Request{
		Arguments:            []string{"status"},
		WorkingDirectory:     testOverrideDirectoryConstant,
		EnvironmentVariables: map[string]string{"TOOL_PASSWORD": "hunter2"},
	})
	require.NoError(testInstance, secondError)

	require.Len(testInstance, executor.recordedDetails, 2)
	require.Equal(testInstance, profile, executor.recordedProfiles[0])
	require.Equal(testInstance, execshell.CommandDetails{
		Arguments:            []string{"status"},
		WorkingDirectory:     testWorkingDirectoryConstant,
		EnvironmentVariables: map[string]string{"TOOL_TOKEN": "secret"},
		StandardInput:        []byte("payload"),
		Timeout:              time.Minute,
	}, executor.recordedDetails[0])
	require.Equal(testInstance, testOverrideDirectoryConstant, executor.recordedDetails[1].WorkingDirectory)
	require.Equal(testInstance, map[string]string{"TOOL_TOKEN": "secret", "TOOL_PASSWORD": "hunter2"}, executor.recordedDetails[1].EnvironmentVariables)
}

func TestInvokerRunWithoutCredentialLeavesEnvironmentUntouched(testInstance *testing.T) {
	executor := &recordingExecutor{}
	invoker, creationError := vendorcli.NewInvoker(executor, execshell.GenericProfile("tool"), credentials.Credential{TargetVariable: "TOOL_TOKEN"}, "")
	require.NoError(testInstance, creationError)

	_, runError := invoker.Run(context.Background(), testOperationNameConstant, vendorcli.Request{Arguments: []string{"whoami"}})
	require.NoError(testInstance, runError)
	require.Nil(testInstance, executor.recordedDetails[0].EnvironmentVariables)
}

func TestInvokerRunWrapsClassifiedFailures(testInstance *testing.T) {
	failedResult := execshell.ExecutionResult{StandardError: "Error: could not find app", ExitCode: 1}
	executor := &recordingExecutor{
		result: failedResult,
		err:    execshell.ClassifiedError{Kind: execshell.ErrorKindNotFound, Summary: "tool failed"},
	}
	invoker, creationError := vendorcli.NewInvoker(executor, execshell.GenericProfile("tool"), credentials.Credential{}, "")
	require.NoError(testInstance, creationError)

	result, runError := invoker.Run(context.Background(), testOperationNameConstant, vendorcli.Request{})
	require.Error(testInstance, runError)
	require.IsType(testInstance, vendorcli.OperationError{}, runError)
	require.Equal(testInstance, failedResult, result)
	require.True(testInstance, vendorcli.IsResourceNotFound(runError))
	require.Equal(testInstance, execshell.ErrorKindNotFound, execshell.KindOf(runError))
}

func TestInvokerRunJSON(testInstance *testing.T) {
	testCases := []struct {
		name          string
		executor      *recordingExecutor
		expectedValue string
		errorType     any
	}{
		{
			name:          "decodes_output",
			executor:      &recordingExecutor{result: execshell.ExecutionResult{StandardOutput: `{"name":"alpha"}`}},
			expectedValue: "alpha",
		},
		{
			name:      "reports_decoding_failure",
			executor:  &recordingExecutor{result: execshell.ExecutionResult{StandardOutput: "not-json"}},
			errorType: vendorcli.ResponseDecodingError{},
		},
		{
			name:      "reports_operation_failure",
			executor:  &recordingExecutor{err: execshell.ClassifiedError{Kind: execshell.ErrorKindUnknown}},
			errorType: vendorcli.OperationError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			invoker, creationError := vendorcli.NewInvoker(testCase.executor, execshell.GenericProfile("tool"), credentials.Credential{}, "")
			require.NoError(testInstance, creationError)

			var response struct {
				Name string `json:"name"`
			}
			runError := invoker.RunJSON(context.Background(), testOperationNameConstant, vendorcli.Request{}, &response)
			if testCase.errorType != nil {
				require.Error(testInstance, runError)
				require.IsType(testInstance, testCase.errorType, runError)
				return
			}
			require.NoError(testInstance, runError)
			require.Equal(testInstance, testCase.expectedValue, response.Name)
		})
	}
}

func TestRequireValue(testInstance *testing.T) {
	value, valueError := vendorcli.RequireValue("name", "  alpha ")
	require.NoError(testInstance, valueError)
	require.Equal(testInstance, "alpha", value)

	_, missingError := vendorcli.RequireValue("name", " ")
	require.Equal(testInstance, vendorcli.InvalidInputError{FieldName: "name", Message: "value required"}, missingError)
	require.Equal(testInstance, "name: value required", missingError.Error())
}

func TestWithDefaultTimeout(testInstance *testing.T) {
	executor := &recordingExecutor{}
	require.Same(testInstance, executor, vendorcli.WithDefaultTimeout(executor, 0))

	bounded := vendorcli.WithDefaultTimeout(executor, 5*time.Second)
	_, _ = bounded.Execute(context.Background(), execshell.GenericProfile("tool"), execshell.CommandDetails{})
	_, _ = bounded.Execute(context.Background(), execshell.GenericProfile("tool"), execshell.CommandDetails{Timeout: time.Second})

	require.Len(testInstance, executor.recordedDetails, 2)
	require.Equal(testInstance, 5*time.Second, executor.recordedDetails[0].Timeout)
	require.Equal(testInstance, time.Second, executor.recordedDetails[1].Timeout)
}
