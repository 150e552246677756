package flycli_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/execshell"
	"github.com/dovetail-dev/dovetail/internal/flycli"
	"github.com/dovetail-dev/dovetail/internal/vendorcli"
)

const (
	testAppNameConstant = "dovetail-web"
	testTokenConstant   = "fly-token"
)

type stubFlyExecutor struct {
	result          execshell.ExecutionResult
	err             error
	recordedDetails []execshell.CommandDetails
}

func (executor *stubFlyExecutor) Execute(_ context.Context, profile execshell.ToolProfile, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	if profile.Name != execshell.CommandFly {
		return execshell.ExecutionResult{}, errors.New("unexpected profile")
	}
	executor.recordedDetails = append(executor.recordedDetails, details)
	return executor.result, executor.err
}

func newTestClient(testInstance *testing.T, executor *stubFlyExecutor) *flycli.Client {
	testInstance.Helper()
	credential := credentials.Credential{Vendor: credentials.VendorFly, Value: testTokenConstant, TargetVariable: credentials.EnvFlyAPIToken}
	client, creationError := flycli.NewClient(executor, credential, "")
	require.NoError(testInstance, creationError)
	return client
}

func TestNewClientValidation(testInstance *testing.T) {
	client, creationError := flycli.NewClient(nil, credentials.Credential{}, "")
	require.ErrorIs(testInstance, creationError, vendorcli.ErrExecutorNotConfigured)
	require.Nil(testInstance, client)
}

func TestAppStatus(testInstance *testing.T) {
	executor := &stubFlyExecutor{result: execshell.ExecutionResult{StandardOutput: `{
		"Name": "dovetail-web",
		"Status": "deployed",
		"Hostname": "dovetail-web.fly.dev",
		"Deployed": true,
		"Organization": {"Slug": "personal"},
		"Machines": [{"id": "148e", "state": "started", "region": "ams"}]
	}`}}
	client := newTestClient(testInstance, executor)

	app, statusError := client.AppStatus(context.Background(), testAppNameConstant)
	require.NoError(testInstance, statusError)
	require.Equal(testInstance, flycli.App{
		Name:         testAppNameConstant,
		Status:       "deployed",
		Hostname:     "dovetail-web.fly.dev",
		Organization: "personal",
		Deployed:     true,
		Machines:     []flycli.Machine{{ID: "148e", State: "started", Region: "ams"}},
	}, app)
	require.Equal(testInstance, []string{"status", "--app", testAppNameConstant, "--json"}, executor.recordedDetails[0].Arguments)
	require.Equal(testInstance, map[string]string{credentials.EnvFlyAPIToken: testTokenConstant}, executor.recordedDetails[0].EnvironmentVariables)

	_, validationError := client.AppStatus(context.Background(), " ")
	require.IsType(testInstance, vendorcli.InvalidInputError{}, validationError)
}

func TestAppStatusSurfacesMissingApp(testInstance *testing.T) {
	executor := &stubFlyExecutor{
		result: execshell.ExecutionResult{StandardError: "Error: Could not find App", ExitCode: 1},
		err:    execshell.ClassifiedError{Kind: execshell.ErrorKindNotFound},
	}
	client := newTestClient(testInstance, executor)

	_, statusError := client.AppStatus(context.Background(), testAppNameConstant)
	require.Error(testInstance, statusError)
	require.True(testInstance, vendorcli.IsResourceNotFound(statusError))
}

func TestListAndCreateApps(testInstance *testing.T) {
	listExecutor := &stubFlyExecutor{result: execshell.ExecutionResult{StandardOutput: `[{"Name":"one","Status":"deployed"},{"Name":"two","Status":"suspended"}]`}}
	apps, listError := newTestClient(testInstance, listExecutor).ListApps(context.Background())
	require.NoError(testInstance, listError)
	require.Len(testInstance, apps, 2)
	require.Equal(testInstance, "suspended", apps[1].Status)
	require.Equal(testInstance, []string{"apps", "list", "--json"}, listExecutor.recordedDetails[0].Arguments)

	createExecutor := &stubFlyExecutor{result: execshell.ExecutionResult{StandardOutput: `{"Name":"dovetail-web","Organization":{"Slug":"acme"}}`}}
	app, createError := newTestClient(testInstance, createExecutor).CreateApp(context.Background(), testAppNameConstant, "acme")
	require.NoError(testInstance, createError)
	require.Equal(testInstance, "acme", app.Organization)
	require.Equal(testInstance, []string{"apps", "create", testAppNameConstant, "--org", "acme", "--json"}, createExecutor.recordedDetails[0].Arguments)

	decodeExecutor := &stubFlyExecutor{result: execshell.ExecutionResult{StandardOutput: "New app created: dovetail-web"}}
	_, decodeError := newTestClient(testInstance, decodeExecutor).CreateApp(context.Background(), testAppNameConstant, "")
	require.IsType(testInstance, vendorcli.ResponseDecodingError{}, decodeError)
}

func TestDeploy(testInstance *testing.T) {
	executor := &stubFlyExecutor{result: execshell.ExecutionResult{StandardOutput: "==> Building image\n", StandardError: "Visit your newly deployed app\n"}}
	client := newTestClient(testInstance, executor)

	output, deployError := client.Deploy(context.Background(), flycli.DeployOptions{
		App:               testAppNameConstant,
		ConfigurationPath: "deploy/fly.toml",
		Strategy:          "rolling",
		RemoteOnly:        true,
		Timeout:           10 * time.Minute,
	})
	require.NoError(testInstance, deployError)
	require.Equal(testInstance, "==> Building image\nVisit your newly deployed app", output)
	require.Equal(testInstance, []string{"deploy", "--app", testAppNameConstant, "--config", "deploy/fly.toml", "--strategy", "rolling", "--remote-only"}, executor.recordedDetails[0].Arguments)
	require.Equal(testInstance, 10*time.Minute, executor.recordedDetails[0].Timeout)
}

func TestImportSecrets(testInstance *testing.T) {
	testCases := []struct {
		name              string
		secrets           map[string]string
		stage             bool
		expectedInput     string
		expectedArguments []string
		errorType         any
	}{
		{
			name:              "sorted_pairs",
			secrets:           map[string]string{"SUPABASE_URL": "https://x.supabase.co", "API_KEY": "abc"},
			expectedInput:     "API_KEY=abc\nSUPABASE_URL=https://x.supabase.co\n",
			expectedArguments: []string{"secrets", "import", "--app", testAppNameConstant},
		},
		{
			name:              "staged_multiline",
			secrets:           map[string]string{"CERT": "line1\nline2"},
			stage:             true,
			expectedInput:     "CERT=\"\"\"line1\nline2\"\"\"\n",
			expectedArguments: []string{"secrets", "import", "--app", testAppNameConstant, "--stage"},
		},
		{
			name:      "empty_secrets",
			secrets:   map[string]string{},
			errorType: vendorcli.InvalidInputError{},
		},
		{
			name:      "invalid_name",
			secrets:   map[string]string{"A=B": "c"},
			errorType: vendorcli.InvalidInputError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &stubFlyExecutor{}
			client := newTestClient(testInstance, executor)

			importError := client.ImportSecrets(context.Background(), testAppNameConstant, testCase.secrets, testCase.stage)
			if testCase.errorType != nil {
				require.IsType(testInstance, testCase.errorType, importError)
				require.Empty(testInstance, executor.recordedDetails)
				return
			}
			require.NoError(testInstance, importError)
			require.Equal(testInstance, testCase.expectedArguments, executor.recordedDetails[0].Arguments)
			require.Equal(testInstance, testCase.expectedInput, string(executor.recordedDetails[0].StandardInput))
		})
	}
}

func TestDestroyAppAndWhoami(testInstance *testing.T) {
	destroyExecutor := &stubFlyExecutor{}
	require.NoError(testInstance, newTestClient(testInstance, destroyExecutor).DestroyApp(context.Background(), testAppNameConstant))
	require.Equal(testInstance, []string{"apps", "destroy", testAppNameConstant, "--yes"}, destroyExecutor.recordedDetails[0].Arguments)

	whoamiExecutor := &stubFlyExecutor{result: execshell.ExecutionResult{StandardOutput: `{"email":"dev@example.com"}`}}
	email, whoamiError := newTestClient(testInstance, whoamiExecutor).Whoami(context.Background())
	require.NoError(testInstance, whoamiError)
	require.Equal(testInstance, "dev@example.com", email)
	require.Equal(testInstance, []string{"auth", "whoami", "--json"}, whoamiExecutor.recordedDetails[0].Arguments)
}

func TestProfileClassifiesFlyOutput(testInstance *testing.T) {
	testCases := []struct {
		name         string
		output       string
		expectedKind execshell.ErrorKind
	}{
		{name: "not_logged_in", output: "Error: not logged in", expectedKind: execshell.ErrorKindNotAuthenticated},
		{name: "no_token", output: "Error: No access token available. Please login with 'flyctl auth login'", expectedKind: execshell.ErrorKindNotAuthenticated},
		{name: "missing_app", output: "Error: Could not find App", expectedKind: execshell.ErrorKindNotFound},
		{name: "unauthorized", output: "Error: unauthorized", expectedKind: execshell.ErrorKindPermission},
		{name: "insufficient_scope", output: "permission denied: insufficient scope", expectedKind: execshell.ErrorKindPermission},
		{name: "unclassified", output: "Error: failed to fetch an image or build from source", expectedKind: execshell.ErrorKindUnknown},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			classification := execshell.Classify(flycli.Profile(), execshell.ExecutionResult{StandardError: testCase.output, ExitCode: 1})
			require.Equal(testInstance, testCase.expectedKind, classification.Kind)
		})
	}
}
