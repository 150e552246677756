package supabasecli

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/vendorcli"
)

const (
	projectsSubcommandConstant = "projects"
	listSubcommandConstant     = "list"
	linkSubcommandConstant     = "link"
	databaseSubcommandConstant = "db"
	pushSubcommandConstant     = "push"
	statusSubcommandConstant   = "status"
	outputFlagConstant         = "--output"
	jsonOutputValueConstant    = "json"
	projectRefFlagConstant     = "--project-ref"
	includeSeedFlagConstant    = "--include-seed"
	dryRunFlagConstant         = "--dry-run"

	databasePasswordVariableConstant = "SUPABASE_DB_PASSWORD"
	projectRefFieldNameConstant      = "project_ref"

	listProjectsOperationNameConstant   = vendorcli.OperationName("ListProjects")
	linkProjectOperationNameConstant    = vendorcli.OperationName("LinkProject")
	pushMigrationsOperationNameConstant = vendorcli.OperationName("PushMigrations")
	statusOperationNameConstant         = vendorcli.OperationName("Status")
)

// Project describes a hosted Supabase project.
type Project struct {
	Ref            string
	Name           string
	Region         string
	OrganizationID string
	Linked         bool
}

// PushOptions configures PushMigrations.
type PushOptions struct {
	IncludeSeed bool
	DryRun      bool
	// Timeout bounds the push; zero uses the profile default.
	Timeout time.Duration
}

// StackStatus holds the local development stack endpoints keyed by name,
// for example API_URL or DB_URL.
type StackStatus map[string]string

// Names returns the endpoint names in sorted order.
func (status StackStatus) Names() []string {
	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Client coordinates supabase invocations through execshell.
type Client struct {
	invoker *vendorcli.Invoker
}

// NewClient constructs a supabase client running in workingDirectory, which
// should be the project root containing the supabase directory.
func NewClient(executor vendorcli.CommandExecutor, credential credentials.Credential, workingDirectory string) (*Client, error) {
	invoker, invokerError := vendorcli.NewInvoker(executor, Profile(), credential, workingDirectory)
	if invokerError != nil {
		return nil, invokerError
	}
	return &Client{invoker: invoker}, nil
}

// ListProjects enumerates hosted projects visible to the access token.
func (client *Client) ListProjects(executionContext context.Context) ([]Project, error) {
	var response []struct {
		ID             string `json:"id"`
		Ref            string `json:"ref"`
		Name           string `json:"name"`
		Region         string `json:"region"`
		OrganizationID string `json:"organization_id"`
		Linked         bool   `json:"linked"`
	}
	request := vendorcli.Request{Arguments: []string{projectsSubcommandConstant, listSubcommandConstant, outputFlagConstant, jsonOutputValueConstant}}
	if runError := client.invoker.RunJSON(executionContext, listProjectsOperationNameConstant, request, &response); runError != nil {
		return nil, runError
	}

	projects := make([]Project, 0, len(response))
	for _, projectEntry := range response {
		projectRef := projectEntry.Ref
		if len(projectRef) == 0 {
			projectRef = projectEntry.ID
		}
		projects = append(projects, Project{
			Ref:            projectRef,
			Name:           projectEntry.Name,
			Region:         projectEntry.Region,
			OrganizationID: projectEntry.OrganizationID,
			Linked:         projectEntry.Linked,
		})
	}
	return projects, nil
}

// LinkProject links the working directory to a hosted project. The database
// password, when provided, is passed through the environment.
func (client *Client) LinkProject(executionContext context.Context, projectRef string, databasePassword string) error {
	ref, refError := vendorcli.RequireValue(projectRefFieldNameConstant, projectRef)
	if refError != nil {
		return refError
	}

	request := vendorcli.Request{Arguments: []string{linkSubcommandConstant, projectRefFlagConstant, ref}}
	if len(databasePassword) > 0 {
		request.EnvironmentVariables = map[string]string{databasePasswordVariableConstant: databasePassword}
	}

	_, runError := client.invoker.Run(executionContext, linkProjectOperationNameConstant, request)
	return runError
}

// PushMigrations applies local migrations to the linked project and returns
// the CLI output.
func (client *Client) PushMigrations(executionContext context.Context, options PushOptions) (string, error) {
	arguments := []string{databaseSubcommandConstant, pushSubcommandConstant}
	if options.IncludeSeed {
		arguments = append(arguments, includeSeedFlagConstant)
	}
	if options.DryRun {
		arguments = append(arguments, dryRunFlagConstant)
	}

	executionResult, runError := client.invoker.Run(executionContext, pushMigrationsOperationNameConstant, vendorcli.Request{Arguments: arguments, Timeout: options.Timeout})
	if runError != nil {
		return "", runError
	}
	return strings.TrimSpace(executionResult.CombinedOutput()), nil
}

// Status reports the endpoints of the local development stack.
func (client *Client) Status(executionContext context.Context) (StackStatus, error) {
	var response map[string]string
	request := vendorcli.Request{Arguments: []string{statusSubcommandConstant, outputFlagConstant, jsonOutputValueConstant}}
	if runError := client.invoker.RunJSON(executionContext, statusOperationNameConstant, request, &response); runError != nil {
		return nil, runError
	}
	return StackStatus(response), nil
}
