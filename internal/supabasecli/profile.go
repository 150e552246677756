package supabasecli

import (
	"time"

	"github.com/dovetail-dev/dovetail/internal/execshell"
)

const (
	installURLConstant     = "https://supabase.com/docs/guides/local-development/cli/getting-started"
	defaultTimeoutConstant = 5 * time.Minute

	authenticationRemediationConstant = "Run `supabase login` (or set SUPABASE_ACCESS_TOKEN) and try again."
	unlinkedRemediationConstant       = "Run `supabase link --project-ref <ref>` in the project directory."
	stoppedRemediationConstant        = "Start the local stack with `supabase start`."
	notFoundRemediationConstant       = "Check the project ref with `supabase projects list`."
	permissionRemediationConstant     = "Your Supabase access token cannot manage this project. Ask an organization owner for access or generate a new token."
)

// Profile returns the supabase classification table.
func Profile() execshell.ToolProfile {
	return execshell.ToolProfile{
		Name:           execshell.CommandSupabase,
		InstallURL:     installURLConstant,
		DefaultTimeout: defaultTimeoutConstant,
		Rules: []execshell.ClassificationRule{
			{
				Kind:        execshell.ErrorKindNotAuthenticated,
				Substrings:  []string{"access token not provided", "supabase login", "not logged in", "invalid access token"},
				Remediation: authenticationRemediationConstant,
			},
			{
				Kind:        execshell.ErrorKindNotFound,
				Substrings:  []string{"cannot find project ref", "have you run supabase link"},
				Remediation: unlinkedRemediationConstant,
			},
			{
				Kind:        execshell.ErrorKindNotFound,
				Substrings:  []string{"no such container", "is not running"},
				Remediation: stoppedRemediationConstant,
			},
			{
				Kind:        execshell.ErrorKindPermission,
				Substrings:  []string{"unauthorized", "forbidden", "permission"},
				Remediation: permissionRemediationConstant,
			},
			{
				Kind:        execshell.ErrorKindNotFound,
				Substrings:  []string{"could not find", "not found"},
				Remediation: notFoundRemediationConstant,
			},
		},
	}
}
