package status_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dovetail-dev/dovetail/internal/execshell"
	"github.com/dovetail-dev/dovetail/internal/status"
	"github.com/dovetail-dev/dovetail/internal/ui"
)

func TestRenderText(testInstance *testing.T) {
	report := status.Report{Sections: []status.Section{
		{Title: "GitHub", State: status.SectionStateOK, Lines: []string{"#42 Add login", "open  feature/eng-42 -> main"}},
		{Title: "Fly.io", State: status.SectionStateFailed, Err: execshell.ClassifiedError{
			Kind:        execshell.ErrorKindNotAuthenticated,
			Summary:     "flyctl status failed with exit code 1.",
			Remediation: "Run `flyctl auth login` (or set FLY_API_TOKEN) and try again.",
		}},
		{Title: "Supabase", State: status.SectionStateFailed, Err: errors.New("unexpected end of JSON input")},
		{Title: "Linear", State: status.SectionStateSkipped, Lines: []string{"no issue configured or referenced by the branch"}},
	}}

	expected := "✓ GitHub\n" +
		"  #42 Add login\n" +
		"  open  feature/eng-42 -> main\n" +
		"✗ Fly.io\n" +
		"  ✗ flyctl status failed with exit code 1. [not_authenticated]\n" +
		"    Run `flyctl auth login` (or set FLY_API_TOKEN) and try again.\n" +
		"✗ Supabase\n" +
		"  ✗ Error: unexpected end of JSON input\n" +
		"- Linear\n" +
		"  no issue configured or referenced by the branch\n"
	require.Equal(testInstance, expected, status.RenderText(ui.NewPalette(false), report))
}
