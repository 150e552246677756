package flycli

import (
	"time"

	"github.com/dovetail-dev/dovetail/internal/execshell"
)

const (
	installURLConstant     = "https://fly.io/docs/flyctl/install/"
	defaultTimeoutConstant = 2 * time.Minute

	authenticationRemediationConstant = "Run `flyctl auth login` (or set FLY_API_TOKEN) and try again."
	notFoundRemediationConstant       = "Check the app name in fly.toml or create the app with `flyctl apps create`."
	permissionRemediationConstant     = "Your Fly.io token cannot access this app. Create a token with `flyctl tokens create org` for the owning organization."
)

// Profile returns the flyctl classification table.
func Profile() execshell.ToolProfile {
	return execshell.ToolProfile{
		Name:           execshell.CommandFly,
		InstallURL:     installURLConstant,
		DefaultTimeout: defaultTimeoutConstant,
		Rules: []execshell.ClassificationRule{
			{
				Kind:        execshell.ErrorKindNotAuthenticated,
				Substrings:  []string{"not logged in", "no access token", "fly auth login", "flyctl auth login"},
				Remediation: authenticationRemediationConstant,
			},
			{
				Kind:        execshell.ErrorKindPermission,
				Substrings:  []string{"unauthorized", "forbidden", "permission", "not authorized"},
				Remediation: permissionRemediationConstant,
			},
			{
				Kind:        execshell.ErrorKindNotFound,
				Substrings:  []string{"could not find app", "could not find", "not found", "no such app"},
				Remediation: notFoundRemediationConstant,
			},
		},
	}
}
