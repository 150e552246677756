package linearcli

import (
	"time"

	"github.com/dovetail-dev/dovetail/internal/execshell"
)

const (
	installURLConstant     = "https://github.com/czottmann/linearis"
	defaultTimeoutConstant = time.Minute

	authenticationRemediationConstant = "Create a personal API key in Linear settings and set LINEAR_API_TOKEN (or configure a token source)."
	notFoundRemediationConstant       = "Check the issue identifier or team key; `linearis teams list` shows the available teams."
	permissionRemediationConstant     = "Your Linear API key cannot access this workspace or team. Ask a workspace admin for access."
)

// Profile returns the linearis classification table.
func Profile() execshell.ToolProfile {
	return execshell.ToolProfile{
		Name:           execshell.CommandLinear,
		InstallURL:     installURLConstant,
		DefaultTimeout: defaultTimeoutConstant,
		Rules: []execshell.ClassificationRule{
			{
				Kind:        execshell.ErrorKindNotAuthenticated,
				Substrings:  []string{"no api token", "api token not found", "authentication required", "not authenticated", "not logged in"},
				Remediation: authenticationRemediationConstant,
			},
			{
				Kind:        execshell.ErrorKindPermission,
				Substrings:  []string{"forbidden", "permission", "unauthorized"},
				Remediation: permissionRemediationConstant,
			},
			{
				Kind:        execshell.ErrorKindNotFound,
				Substrings:  []string{"entity not found", "could not find", "not found"},
				Remediation: notFoundRemediationConstant,
			},
		},
	}
}
