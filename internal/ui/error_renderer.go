package ui

import (
	"errors"
	"strings"

	"github.com/dovetail-dev/dovetail/internal/execshell"
)

const (
	errorPrefixConstant       = "Error: "
	remediationIndentConstant = "  "
	kindLabelPrefixConstant   = "["
	kindLabelSuffixConstant   = "]"
	lineSeparatorConstant     = "\n"
	iconSeparatorConstant     = " "
)

// RenderError formats err for the console. Classified gateway failures show
// the summary, the error kind, the tool output and indented remediation lines;
// other errors render as a single "Error:" line.
func RenderError(palette Palette, err error) string {
	if err == nil {
		return ""
	}

	var classified execshell.ClassifiedError
	if !errors.As(err, &classified) || len(strings.TrimSpace(classified.Summary)) == 0 {
		return palette.Fail(IconFail+iconSeparatorConstant+errorPrefixConstant) + err.Error()
	}

	lines := []string{
		palette.Fail(IconFail+iconSeparatorConstant+classified.Summary) + iconSeparatorConstant +
			palette.Muted(kindLabelPrefixConstant+string(classified.Kind)+kindLabelSuffixConstant),
	}
	for _, detailLine := range strings.Split(strings.TrimSpace(classified.Detail), lineSeparatorConstant) {
		if len(strings.TrimSpace(detailLine)) == 0 {
			continue
		}
		lines = append(lines, remediationIndentConstant+palette.Muted(detailLine))
	}
	for _, remediationLine := range strings.Split(strings.TrimSpace(classified.Remediation), lineSeparatorConstant) {
		if len(strings.TrimSpace(remediationLine)) == 0 {
			continue
		}
		lines = append(lines, remediationIndentConstant+remediationLine)
	}
	return strings.Join(lines, lineSeparatorConstant)
}
