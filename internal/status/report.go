package status

import (
	"fmt"
	"strings"

	"github.com/dovetail-dev/dovetail/internal/ui"
)

const (
	sectionLineTemplateConstant = "%s %s"
	detailIndentConstant        = "  "
	lineSeparatorConstant       = "\n"
)

// RenderText formats the report. Failed sections show the classified error
// with its remediation.
func RenderText(palette ui.Palette, report Report) string {
	var lines []string
	for _, section := range report.Sections {
		switch section.State {
		case SectionStateOK:
			lines = append(lines, fmt.Sprintf(sectionLineTemplateConstant, palette.Pass(ui.IconPass), palette.Heading(section.Title)))
			for _, line := range section.Lines {
				lines = append(lines, detailIndentConstant+line)
			}
		case SectionStateSkipped:
			lines = append(lines, fmt.Sprintf(sectionLineTemplateConstant, palette.Muted(ui.IconSkip), palette.Heading(section.Title)))
			for _, line := range section.Lines {
				lines = append(lines, detailIndentConstant+palette.Muted(line))
			}
		default:
			lines = append(lines, fmt.Sprintf(sectionLineTemplateConstant, palette.Fail(ui.IconFail), palette.Heading(section.Title)))
			for _, line := range strings.Split(ui.RenderError(palette, section.Err), lineSeparatorConstant) {
				lines = append(lines, detailIndentConstant+line)
			}
		}
	}
	return strings.Join(lines, lineSeparatorConstant) + lineSeparatorConstant
}
