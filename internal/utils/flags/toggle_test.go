package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func newDeployLikeCommand(qualityGate *bool, migrate *bool) *cobra.Command {
	rootCommand := &cobra.Command{Use: "dovetail"}
	deployCommand := &cobra.Command{Use: "deploy", RunE: func(*cobra.Command, []string) error { return nil }}
	AddToggleFlag(deployCommand.Flags(), qualityGate, "quality-gate", "", true, "Run the test suite before deploying")
	AddToggleFlag(deployCommand.Flags(), migrate, "migrate", "m", false, "Push Supabase migrations before deploying")
	rootCommand.AddCommand(deployCommand)
	return rootCommand
}

func TestAddToggleFlagParsesValues(t *testing.T) {
	testCases := []struct {
		name                string
		arguments           []string
		expectedQualityGate bool
		expectedMigrate     bool
	}{
		{name: "Defaults", arguments: []string{"deploy"}, expectedQualityGate: true, expectedMigrate: false},
		{name: "ImplicitTrue", arguments: []string{"deploy", "--migrate"}, expectedQualityGate: true, expectedMigrate: true},
		{name: "ExplicitNo", arguments: []string{"deploy", "--quality-gate", "no"}, expectedQualityGate: false, expectedMigrate: false},
		{name: "ExplicitUppercase", arguments: []string{"deploy", "--quality-gate", "FALSE", "--migrate", "YES"}, expectedQualityGate: false, expectedMigrate: true},
		{name: "InlineValue", arguments: []string{"deploy", "--quality-gate=off"}, expectedQualityGate: false, expectedMigrate: false},
		{name: "Shorthand", arguments: []string{"deploy", "-m", "y"}, expectedQualityGate: true, expectedMigrate: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var qualityGate, migrate bool
			rootCommand := newDeployLikeCommand(&qualityGate, &migrate)
			rootCommand.SetArgs(NormalizeToggleArguments(rootCommand, testCase.arguments))

			require.NoError(t, rootCommand.Execute())
			require.Equal(t, testCase.expectedQualityGate, qualityGate)
			require.Equal(t, testCase.expectedMigrate, migrate)
		})
	}
}

func TestAddToggleFlagRejectsInvalidValues(t *testing.T) {
	var qualityGate, migrate bool
	rootCommand := newDeployLikeCommand(&qualityGate, &migrate)
	rootCommand.SilenceErrors = true
	rootCommand.SilenceUsage = true
	rootCommand.SetArgs(NormalizeToggleArguments(rootCommand, []string{"deploy", "--migrate=maybe"}))

	require.ErrorContains(t, rootCommand.Execute(), "invalid toggle value")
	require.False(t, migrate)
}

func TestNormalizeToggleArgumentsLeavesOtherArguments(t *testing.T) {
	var qualityGate, migrate bool
	rootCommand := newDeployLikeCommand(&qualityGate, &migrate)

	normalized := NormalizeToggleArguments(rootCommand, []string{"deploy", "--migrate", "--app", "no", "--", "--quality-gate", "no"})
	require.Equal(t, []string{"deploy", "--migrate", "--app", "no", "--", "--quality-gate", "no"}, normalized)
	require.Nil(t, NormalizeToggleArguments(rootCommand, nil))
}

func TestToggleUsageHighlightsDefault(t *testing.T) {
	var qualityGate, migrate bool
	rootCommand := newDeployLikeCommand(&qualityGate, &migrate)
	deployCommand, _, findError := rootCommand.Find([]string{"deploy"})
	require.NoError(t, findError)

	require.Equal(t, "`<YES|no>` Run the test suite before deploying", deployCommand.Flags().Lookup("quality-gate").Usage)
	require.Equal(t, "`<yes|NO>` Push Supabase migrations before deploying", deployCommand.Flags().Lookup("migrate").Usage)
}
