package deploy

import (
	"fmt"
	"strings"

	"github.com/dovetail-dev/dovetail/internal/ui"
)

const (
	stepLineTemplateConstant    = "%s %s"
	stepDetailSeparatorConstant = "  "
	failureIndentConstant       = "  "
)

// RenderText formats the steps of a deployment. A failed step is followed by
// its rendered error.
func RenderText(palette ui.Palette, result Result) string {
	var lines []string
	for _, step := range result.Steps {
		var line string
		switch step.Status {
		case StepStatusPassed:
			line = fmt.Sprintf(stepLineTemplateConstant, palette.Pass(ui.IconPass), step.Name)
		case StepStatusSkipped:
			line = fmt.Sprintf(stepLineTemplateConstant, palette.Muted(ui.IconSkip), palette.Muted(step.Name))
		default:
			line = fmt.Sprintf(stepLineTemplateConstant, palette.Fail(ui.IconFail), step.Name)
		}
		if detail := strings.TrimSpace(step.Detail); len(detail) > 0 {
			line += stepDetailSeparatorConstant + palette.Muted(detail)
		}
		lines = append(lines, line)

		if step.Status == StepStatusFailed && step.Err != nil {
			for _, errorLine := range strings.Split(ui.RenderError(palette, step.Err), lineSeparatorConstant) {
				lines = append(lines, failureIndentConstant+errorLine)
			}
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, lineSeparatorConstant) + lineSeparatorConstant
}
