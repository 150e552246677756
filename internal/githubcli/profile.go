package githubcli

import (
	"regexp"
	"time"

	"github.com/dovetail-dev/dovetail/internal/execshell"
)

const (
	installURLConstant          = "https://cli.github.com"
	defaultTimeoutConstant      = 2 * time.Minute
	noPullRequestsFoundConstant = "no pull requests found"

	authenticationRemediationConstant = "Run `gh auth login` (or set GH_TOKEN) and try again."
	notFoundRemediationConstant       = "Check the repository name and branch, and that your account can see the repository."
	permissionRemediationConstant     = "Run `gh auth refresh -s repo,workflow` to grant the missing scopes, or ask a repository admin for access."
)

var httpStatusNotFoundExpression = regexp.MustCompile(`HTTP 404`)

// Profile returns the gh classification table.
func Profile() execshell.ToolProfile {
	return execshell.ToolProfile{
		Name:           execshell.CommandGitHub,
		InstallURL:     installURLConstant,
		DefaultTimeout: defaultTimeoutConstant,
		Rules: []execshell.ClassificationRule{
			{
				Kind:        execshell.ErrorKindNotAuthenticated,
				Substrings:  []string{"not logged in", "not logged into", "gh auth login", "authentication required", "bad credentials", "HTTP 401"},
				Remediation: authenticationRemediationConstant,
			},
			{
				Kind:        execshell.ErrorKindPermission,
				Substrings:  []string{"HTTP 403", "forbidden", "resource not accessible", "permission", "unauthorized", "insufficient scope"},
				Remediation: permissionRemediationConstant,
			},
			{
				Kind:        execshell.ErrorKindNotFound,
				Substrings:  []string{"could not resolve to a repository", noPullRequestsFoundConstant, "could not find", "not found"},
				Expression:  httpStatusNotFoundExpression,
				Remediation: notFoundRemediationConstant,
			},
		},
	}
}
