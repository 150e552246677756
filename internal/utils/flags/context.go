package flags

import (
	"strings"

	"github.com/spf13/cobra"
)

// Shared target flag names.
const (
	RepositoryFlagName        = "repo"
	RepositoryFlagUsage       = "GitHub repository as OWNER/NAME (defaults to the repository in the working directory)"
	AppFlagName               = "app"
	AppFlagUsage              = "Fly.io application name (defaults to the app in fly.toml)"
	IssueFlagName             = "issue"
	IssueFlagUsage            = "Linear issue identifier, for example ENG-42"
	WorkingDirectoryFlagName  = "dir"
	WorkingDirectoryFlagUsage = "Project directory the vendor CLIs run in"
)

// TargetFlagDefinition captures one target flag's configuration.
type TargetFlagDefinition struct {
	Name    string
	Usage   string
	Enabled bool
}

// TargetFlagDefinitions groups the flags that select what a command acts on.
type TargetFlagDefinitions struct {
	Repository       TargetFlagDefinition
	App              TargetFlagDefinition
	Issue            TargetFlagDefinition
	WorkingDirectory TargetFlagDefinition
}

// DefaultTargetFlagDefinitions enables every target flag with its shared name.
func DefaultTargetFlagDefinitions() TargetFlagDefinitions {
	return TargetFlagDefinitions{
		Repository:       TargetFlagDefinition{Name: RepositoryFlagName, Usage: RepositoryFlagUsage, Enabled: true},
		App:              TargetFlagDefinition{Name: AppFlagName, Usage: AppFlagUsage, Enabled: true},
		Issue:            TargetFlagDefinition{Name: IssueFlagName, Usage: IssueFlagUsage, Enabled: true},
		WorkingDirectory: TargetFlagDefinition{Name: WorkingDirectoryFlagName, Usage: WorkingDirectoryFlagUsage, Enabled: true},
	}
}

// TargetFlagValues stores target flag values.
type TargetFlagValues struct {
	Repository       string
	App              string
	Issue            string
	WorkingDirectory string
}

// WithFallback fills every empty value from fallback.
func (values TargetFlagValues) WithFallback(fallback TargetFlagValues) TargetFlagValues {
	return TargetFlagValues{
		Repository:       firstNonEmpty(values.Repository, fallback.Repository),
		App:              firstNonEmpty(values.App, fallback.App),
		Issue:            firstNonEmpty(values.Issue, fallback.Issue),
		WorkingDirectory: firstNonEmpty(values.WorkingDirectory, fallback.WorkingDirectory),
	}
}

// BindTargetFlags attaches the enabled target flags to the command.
func BindTargetFlags(command *cobra.Command, definitions TargetFlagDefinitions) *TargetFlagValues {
	values := &TargetFlagValues{}
	if command == nil {
		return values
	}

	flagSet := command.Flags()
	bind := func(target *string, definition TargetFlagDefinition) {
		if !definition.Enabled || len(definition.Name) == 0 || flagSet.Lookup(definition.Name) != nil {
			return
		}
		flagSet.StringVar(target, definition.Name, "", definition.Usage)
	}

	bind(&values.Repository, definitions.Repository)
	bind(&values.App, definitions.App)
	bind(&values.Issue, definitions.Issue)
	bind(&values.WorkingDirectory, definitions.WorkingDirectory)
	return values
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if trimmed := strings.TrimSpace(candidate); len(trimmed) > 0 {
			return trimmed
		}
	}
	return ""
}
