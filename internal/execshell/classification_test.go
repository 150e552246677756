package execshell_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dovetail-dev/dovetail/internal/execshell"
)

func TestClassifyScenarios(testInstance *testing.T) {
	testCases := []struct {
		name          string
		standardError string
		expectedKind  execshell.ErrorKind
	}{
		{name: "not_logged_in", standardError: "Error: not logged in", expectedKind: execshell.ErrorKindNotAuthenticated},
		{name: "missing_app", standardError: "Error: Could not find App", expectedKind: execshell.ErrorKindNotFound},
		{name: "insufficient_scope", standardError: "permission denied: insufficient scope", expectedKind: execshell.ErrorKindPermission},
		{name: "forbidden_upper_case", standardError: "HTTP 403: FORBIDDEN", expectedKind: execshell.ErrorKindPermission},
		{name: "unmatched", standardError: "segmentation fault", expectedKind: execshell.ErrorKindUnknown},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			classification := execshell.Classify(testProfile(), execshell.ExecutionResult{StandardError: testCase.standardError, ExitCode: 1})
			require.Equal(testInstance, testCase.expectedKind, classification.Kind)
		})
	}
}

func TestClassifyFirstMatchingRuleWins(testInstance *testing.T) {
	output := "not logged in and permission denied"

	classification := execshell.Classify(testProfile(), execshell.ExecutionResult{StandardError: output, ExitCode: 1})
	require.Equal(testInstance, execshell.ErrorKindNotAuthenticated, classification.Kind)

	reversed := testProfile()
	reversed.Rules = []execshell.ClassificationRule{reversed.Rules[2], reversed.Rules[1], reversed.Rules[0]}
	classification = execshell.Classify(reversed, execshell.ExecutionResult{StandardError: output, ExitCode: 1})
	require.Equal(testInstance, execshell.ErrorKindPermission, classification.Kind)
}

func TestClassifyInspectsStandardOutput(testInstance *testing.T) {
	classification := execshell.Classify(testProfile(), execshell.ExecutionResult{StandardOutput: "resource not found", ExitCode: 1})
	require.Equal(testInstance, execshell.ErrorKindNotFound, classification.Kind)
}

func TestClassifyRegularExpressionRule(testInstance *testing.T) {
	profile := execshell.ToolProfile{
		Name: execshell.CommandName("vendor"),
		Rules: []execshell.ClassificationRule{
			{Kind: execshell.ErrorKindNotFound, Expression: regexp.MustCompile(`HTTP 404`)},
		},
	}
	classification := execshell.Classify(profile, execshell.ExecutionResult{StandardError: "gh: HTTP 404 (https://api.github.com)", ExitCode: 1})
	require.True(testInstance, classification.Matched)
	require.Equal(testInstance, execshell.ErrorKindNotFound, classification.Kind)
	require.NotEmpty(testInstance, classification.Remediation)
}

func TestClassifiedErrorMatchesEveryRulePattern(testInstance *testing.T) {
	profile := testProfile()
	for _, rule := range profile.Rules {
		for _, substring := range rule.Substrings {
			runner := &recordingCommandRunner{executionResult: execshell.ExecutionResult{StandardError: "prefix " + substring + " suffix", ExitCode: 2}}
			executor, creationError := execshell.NewShellExecutor(zap.NewNop(), runner)
			require.NoError(testInstance, creationError)

			_, executionError := executor.Execute(context.Background(), profile, execshell.CommandDetails{})
			require.Error(testInstance, executionError)
			require.NotEqual(testInstance, execshell.ErrorKindUnknown, execshell.KindOf(executionError), substring)
		}
	}
}

func TestUnknownFailureCarriesRawOutput(testInstance *testing.T) {
	testCases := []struct {
		name     string
		result   execshell.ExecutionResult
		expected string
	}{
		{name: "prefers_standard_error", result: execshell.ExecutionResult{StandardOutput: "stdout text", StandardError: "stderr text", ExitCode: 3}, expected: "stderr text"},
		{name: "falls_back_to_standard_output", result: execshell.ExecutionResult{StandardOutput: "stdout text", ExitCode: 3}, expected: "stdout text"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runner := &recordingCommandRunner{executionResult: testCase.result}
			executor, creationError := execshell.NewShellExecutor(zap.NewNop(), runner)
			require.NoError(testInstance, creationError)

			_, executionError := executor.Execute(context.Background(), execshell.GenericProfile("vendor"), execshell.CommandDetails{Arguments: []string{"deploy"}})
			require.Error(testInstance, executionError)
			require.Equal(testInstance, execshell.ErrorKindUnknown, execshell.KindOf(executionError))
			require.Equal(testInstance, "vendor deploy failed with exit code 3.\n"+testCase.expected, executionError.Error())

			var classified execshell.ClassifiedError
			require.ErrorAs(testInstance, executionError, &classified)
			require.Equal(testInstance, testCase.expected, classified.Detail)
			require.Empty(testInstance, classified.Remediation)
		})
	}
}

func TestClassifyDoesNotMatchAcrossStreams(testInstance *testing.T) {
	result := execshell.ExecutionResult{StandardOutput: "step 3: not", StandardError: " found-hash mismatch", ExitCode: 1}
	require.Equal(testInstance, "step 3: not\n found-hash mismatch", result.CombinedOutput())

	classification := execshell.Classify(testProfile(), result)
	require.Equal(testInstance, execshell.ErrorKindUnknown, classification.Kind)
	require.False(testInstance, classification.Matched)
}

func TestCombinedOutputSkipsEmptyStreams(testInstance *testing.T) {
	require.Equal(testInstance, "out", execshell.ExecutionResult{StandardOutput: "out"}.CombinedOutput())
	require.Equal(testInstance, "err", execshell.ExecutionResult{StandardError: "err"}.CombinedOutput())
}

func TestToolProfileRender(testInstance *testing.T) {
	profile := execshell.ToolProfile{Name: execshell.CommandFly, InstallURL: "https://fly.io/install"}
	require.Equal(testInstance, "Upgrade flyctl: https://fly.io/install", profile.Render("Upgrade {tool}: {install_url}"))
	require.Equal(testInstance, "Install it from: https://fly.io/install", profile.InstallInstructions())
}

func TestKindOf(testInstance *testing.T) {
	require.Equal(testInstance, execshell.ErrorKind(""), execshell.KindOf(nil))
	require.Equal(testInstance, execshell.ErrorKindUnknown, execshell.KindOf(context.Canceled))
	require.False(testInstance, execshell.IsKind(nil, execshell.ErrorKindUnknown))
}
