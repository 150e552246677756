package doctor_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/doctor"
	"github.com/dovetail-dev/dovetail/internal/utils"
)

type recordingResolver struct {
	vendors []credentials.Vendor
}

func (resolver *recordingResolver) Resolve(_ context.Context, spec credentials.Spec) (credentials.Credential, error) {
	resolver.vendors = append(resolver.vendors, spec.Vendor)
	if spec.Explicit == "" {
		return credentials.Credential{Vendor: spec.Vendor, TargetVariable: spec.TargetVariable}, nil
	}
	return credentials.Credential{Vendor: spec.Vendor, Value: spec.Explicit, Origin: "configuration", TargetVariable: spec.TargetVariable}, nil
}

func executeDoctor(testInstance *testing.T, builder doctor.CommandBuilder, arguments ...string) (string, error) {
	testInstance.Helper()
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	accessor := utils.NewCommandContextAccessor()
	executionContext := accessor.WithConfigurationFilePath(context.Background(), "/etc/dovetail/config.yaml")
	command.SetContext(accessor.WithWorkingDirectory(executionContext, "/src/web"))
	command.SetArgs(arguments)
	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	command.SilenceUsage = true
	command.SilenceErrors = true

	executionError := command.Execute()
	return outputBuffer.String(), executionError
}

func TestDoctorCommandRendersTable(testInstance *testing.T) {
	executor := healthyExecutor()
	resolver := &recordingResolver{}
	builder := doctor.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() doctor.Configuration { return doctor.Configuration{Output: doctor.OutputFormatTable} },
		CredentialsProvider: func() credentials.VendorConfigurations {
			return credentials.VendorConfigurations{Linear: credentials.Configuration{Token: "lin-secret"}}
		},
		Executor:           executor,
		CredentialResolver: resolver,
	}

	output, executionError := executeDoctor(testInstance, builder)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "Configuration: /etc/dovetail/config.yaml")
	require.Contains(testInstance, output, "✓ 4 passed  ⚠ 0 warnings  ✗ 0 failed")
	require.Equal(testInstance, []credentials.Vendor{credentials.VendorGitHub, credentials.VendorFly, credentials.VendorSupabase, credentials.VendorLinear}, resolver.vendors)
	require.Equal(testInstance, map[string]string{credentials.EnvLinearAPIToken: "lin-secret"}, executor.recorded["linearis teams list"].EnvironmentVariables)
	require.Equal(testInstance, "/src/web", executor.recorded["supabase projects list --output json"].WorkingDirectory)
}

func TestDoctorCommandYAMLAndFailures(testInstance *testing.T) {
	executor := healthyExecutor()
	executor.missing["supabase"] = true
	builder := doctor.CommandBuilder{
		Executor:           executor,
		CredentialResolver: &recordingResolver{},
	}

	output, executionError := executeDoctor(testInstance, builder, "--output", "yaml", "--timeout", "2s")
	require.ErrorIs(testInstance, executionError, doctor.ErrUnhealthy)
	require.Contains(testInstance, output, "status: error")
	require.Contains(testInstance, output, "kind: not_installed")
	require.Equal(testInstance, "2s", executor.recorded["gh --version"].Timeout.String())
}

func TestDoctorCommandRejectsInvalidCredentialSources(testInstance *testing.T) {
	builder := doctor.CommandBuilder{
		Executor: healthyExecutor(),
		CredentialsProvider: func() credentials.VendorConfigurations {
			return credentials.VendorConfigurations{GitHub: credentials.Configuration{Sources: []string{"vault:gh"}}}
		},
		CredentialResolver: &recordingResolver{},
	}

	_, executionError := executeDoctor(testInstance, builder)
	require.ErrorContains(testInstance, executionError, "unsupported token source type")
}
