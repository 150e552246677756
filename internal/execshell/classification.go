package execshell

import (
	"regexp"
	"strings"
	"time"
)

const (
	errorKindNotInstalledStringConstant     = "not_installed"
	errorKindNotAuthenticatedStringConstant = "not_authenticated"
	errorKindNotFoundStringConstant         = "resource_not_found"
	errorKindPermissionStringConstant       = "permission_denied"
	errorKindTimeoutStringConstant          = "timeout"
	errorKindUnknownStringConstant          = "unknown"

	toolPlaceholderConstant       = "{tool}"
	installURLPlaceholderConstant = "{install_url}"

	defaultNotAuthenticatedRemediationConstant = "Authenticate with {tool} and try again."
	defaultNotFoundRemediationConstant         = "Check that the referenced resource exists and that the identifier is spelled correctly."
	defaultPermissionRemediationConstant       = "Your {tool} credentials lack the required permissions. Grant the missing scopes and try again."
	defaultInstallInstructionsConstant         = "Install it from: {install_url}"
	defaultInstallFallbackConstant             = "Install {tool} and make sure it is on your PATH."
	defaultTimeoutRemediationConstant          = "Check your network connection and {tool} service status, or raise the configured timeout."
)

// ErrorKind names a class of external command failure.
type ErrorKind string

// Failure taxonomy shared by every vendor profile.
const (
	ErrorKindNotInstalled     ErrorKind = ErrorKind(errorKindNotInstalledStringConstant)
	ErrorKindNotAuthenticated ErrorKind = ErrorKind(errorKindNotAuthenticatedStringConstant)
	ErrorKindNotFound         ErrorKind = ErrorKind(errorKindNotFoundStringConstant)
	ErrorKindPermission       ErrorKind = ErrorKind(errorKindPermissionStringConstant)
	ErrorKindTimeout          ErrorKind = ErrorKind(errorKindTimeoutStringConstant)
	ErrorKindUnknown          ErrorKind = ErrorKind(errorKindUnknownStringConstant)
)

// ClassificationRule maps output fragments to an ErrorKind.
type ClassificationRule struct {
	Kind ErrorKind
	// Substrings match case-insensitively; any one of them is sufficient.
	Substrings []string
	Expression *regexp.Regexp
	// Remediation may reference {tool} and {install_url}.
	Remediation string
}

// Matches reports whether the rule applies to the provided output.
func (rule ClassificationRule) Matches(output string) bool {
	loweredOutput := strings.ToLower(output)
	for _, substring := range rule.Substrings {
		trimmedSubstring := strings.TrimSpace(substring)
		if len(trimmedSubstring) == 0 {
			continue
		}
		if strings.Contains(loweredOutput, strings.ToLower(trimmedSubstring)) {
			return true
		}
	}
	if rule.Expression != nil && rule.Expression.MatchString(output) {
		return true
	}
	return false
}

// ToolProfile configures classification for one external tool.
type ToolProfile struct {
	Name           CommandName
	InstallURL     string
	DefaultTimeout time.Duration
	// Rules are evaluated in order; the first match wins.
	Rules []ClassificationRule
}

// GenericProfile returns a profile without classification rules.
func GenericProfile(name CommandName) ToolProfile {
	return ToolProfile{Name: name}
}

// Classification is the outcome of evaluating a profile against a failed result.
type Classification struct {
	Kind        ErrorKind
	Remediation string
	Matched     bool
}

// Classify evaluates the profile rules against the combined output of a failed command.
func Classify(profile ToolProfile, result ExecutionResult) Classification {
	combinedOutput := result.CombinedOutput()
	for _, rule := range profile.Rules {
		if !rule.Matches(combinedOutput) {
			continue
		}
		return Classification{
			Kind:        rule.Kind,
			Remediation: profile.Render(resolveRemediation(rule)),
			Matched:     true,
		}
	}
	return Classification{Kind: ErrorKindUnknown}
}

// InstallInstructions describes how to install the tool.
func (profile ToolProfile) InstallInstructions() string {
	if len(strings.TrimSpace(profile.InstallURL)) == 0 {
		return profile.Render(defaultInstallFallbackConstant)
	}
	return profile.Render(defaultInstallInstructionsConstant)
}

func (profile ToolProfile) timeoutRemediation() string {
	return profile.Render(defaultTimeoutRemediationConstant)
}

// Render substitutes {tool} and {install_url} in template.
func (profile ToolProfile) Render(template string) string {
	replacer := strings.NewReplacer(
		toolPlaceholderConstant, string(profile.Name),
		installURLPlaceholderConstant, profile.InstallURL,
	)
	return replacer.Replace(template)
}

func resolveRemediation(rule ClassificationRule) string {
	if len(strings.TrimSpace(rule.Remediation)) > 0 {
		return rule.Remediation
	}
	switch rule.Kind {
	case ErrorKindNotAuthenticated:
		return defaultNotAuthenticatedRemediationConstant
	case ErrorKindNotFound:
		return defaultNotFoundRemediationConstant
	case ErrorKindPermission:
		return defaultPermissionRemediationConstant
	case ErrorKindNotInstalled:
		return defaultInstallFallbackConstant
	case ErrorKindTimeout:
		return defaultTimeoutRemediationConstant
	default:
		return ""
	}
}
