package doctor

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dovetail-dev/dovetail/internal/ui"
)

const (
	reportHeadingConstant             = "Vendor CLIs"
	configurationLineTemplateConstant = "Configuration: %s"
	toolLineTemplateConstant          = "  %s  %s"
	detailIndentConstant              = "     "
	remediationIndentConstant         = "       "
	notInstalledLabelConstant         = "not installed"
	unknownVersionLabelConstant       = "version unknown"
	constraintLabelTemplateConstant   = "(%s)"
	identityLabelTemplateConstant     = "authenticated as %s"
	authenticatedLabelConstant        = "authenticated"
	notAuthenticatedLabelConstant     = "not authenticated"
	credentialLabelTemplateConstant   = "credential: %s"
	kindLabelTemplateConstant         = "[%s]"
	summaryTemplateConstant           = "%s %d passed  %s %d warnings  %s %d failed"
	separatorWidthConstant            = 48
	separatorRuneConstant             = "─"
	fieldSeparatorConstant            = "  "
	lineSeparatorConstant             = "\n"
)

// RenderText formats the report for a terminal.
func RenderText(palette ui.Palette, report Report) string {
	lines := []string{palette.Heading(reportHeadingConstant)}
	if len(report.ConfigurationFile) > 0 {
		lines = append(lines, palette.Muted(fmt.Sprintf(configurationLineTemplateConstant, report.ConfigurationFile)))
	}

	for _, tool := range report.Tools {
		lines = append(lines, fmt.Sprintf(toolLineTemplateConstant, statusIcon(palette, tool.Status), describeTool(palette, tool)))
		if tool.Failure == nil {
			continue
		}
		failureLine := detailIndentConstant + palette.Fail(tool.Failure.Summary)
		if len(tool.Failure.Kind) > 0 {
			failureLine += " " + palette.Muted(fmt.Sprintf(kindLabelTemplateConstant, tool.Failure.Kind))
		}
		lines = append(lines, failureLine)
		for _, detailLine := range strings.Split(tool.Failure.Detail, lineSeparatorConstant) {
			if trimmed := strings.TrimSpace(detailLine); len(trimmed) > 0 {
				lines = append(lines, remediationIndentConstant+palette.Muted(trimmed))
			}
		}
		for _, remediationLine := range strings.Split(tool.Failure.Remediation, lineSeparatorConstant) {
			if trimmed := strings.TrimSpace(remediationLine); len(trimmed) > 0 {
				lines = append(lines, remediationIndentConstant+trimmed)
			}
		}
	}

	passed, warned, failed := report.Counts()
	lines = append(lines,
		palette.Muted(strings.Repeat(separatorRuneConstant, separatorWidthConstant)),
		fmt.Sprintf(summaryTemplateConstant,
			palette.Pass(ui.IconPass), passed,
			palette.Warn(ui.IconWarn), warned,
			palette.Fail(ui.IconFail), failed,
		),
	)
	return strings.Join(lines, lineSeparatorConstant) + lineSeparatorConstant
}

// RenderYAML formats the report as YAML.
func RenderYAML(report Report) ([]byte, error) {
	return yaml.Marshal(report)
}

func statusIcon(palette ui.Palette, status Status) string {
	switch status {
	case StatusOK:
		return palette.Pass(ui.IconPass)
	case StatusWarning:
		return palette.Warn(ui.IconWarn)
	default:
		return palette.Fail(ui.IconFail)
	}
}

func describeTool(palette ui.Palette, tool ToolReport) string {
	segments := []string{tool.Command}
	switch {
	case !tool.Installed:
		segments = append(segments, palette.Muted(notInstalledLabelConstant))
		return strings.Join(segments, fieldSeparatorConstant)
	case len(tool.Version) > 0:
		segments = append(segments, tool.Version)
	default:
		segments = append(segments, palette.Muted(unknownVersionLabelConstant))
	}
	if len(tool.Constraint) > 0 {
		segments = append(segments, palette.Muted(fmt.Sprintf(constraintLabelTemplateConstant, tool.Constraint)))
	}

	switch {
	case tool.Authenticated && len(tool.Identity) > 0:
		segments = append(segments, fmt.Sprintf(identityLabelTemplateConstant, tool.Identity))
	case tool.Authenticated:
		segments = append(segments, authenticatedLabelConstant)
	case tool.VersionSatisfied:
		segments = append(segments, palette.Muted(notAuthenticatedLabelConstant))
	}
	if len(tool.CredentialOrigin) > 0 {
		segments = append(segments, palette.Muted(fmt.Sprintf(credentialLabelTemplateConstant, tool.CredentialOrigin)))
	}
	return strings.Join(segments, fieldSeparatorConstant)
}
