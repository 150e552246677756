package linearcli

import (
	"context"
	"strconv"
	"strings"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/vendorcli"
)

const (
	issuesSubcommandConstant = "issues"
	teamsSubcommandConstant  = "teams"
	readSubcommandConstant   = "read"
	listSubcommandConstant   = "list"
	createSubcommandConstant = "create"
	updateSubcommandConstant = "update"
	limitFlagConstant        = "--limit"
	teamFlagConstant         = "--team"
	descriptionFlagConstant  = "--description"
	priorityFlagConstant     = "--priority"
	assigneeFlagConstant     = "--assignee"
	labelsFlagConstant       = "--labels"
	stateFlagConstant        = "--state"
	labelSeparatorConstant   = ","

	issueFieldNameConstant       = "issue"
	titleFieldNameConstant       = "title"
	teamFieldNameConstant        = "team"
	stateFieldNameConstant       = "state"
	priorityFieldNameConstant    = "priority"
	priorityRangeMessageConstant = "must be between 0 and 4"
	maximumPriorityConstant      = 4

	readIssueOperationNameConstant        = vendorcli.OperationName("ReadIssue")
	listIssuesOperationNameConstant       = vendorcli.OperationName("ListIssues")
	createIssueOperationNameConstant      = vendorcli.OperationName("CreateIssue")
	updateIssueStateOperationNameConstant = vendorcli.OperationName("UpdateIssueState")
	listTeamsOperationNameConstant        = vendorcli.OperationName("ListTeams")
)

// Issue describes a Linear issue.
type Issue struct {
	ID          string
	Identifier  string
	Title       string
	Description string
	URL         string
	State       string
	Team        string
	Assignee    string
	Priority    int
}

// Team describes a Linear team.
type Team struct {
	ID   string
	Key  string
	Name string
}

// IssueListOptions configures ListIssues.
type IssueListOptions struct {
	Limit int
}

// IssueCreateOptions configures CreateIssue.
type IssueCreateOptions struct {
	Title       string
	Team        string
	Description string
	Assignee    string
	Labels      []string
	// Priority ranges from 0 (none) to 4 (low); nil leaves it unset.
	Priority *int
}

type namedReference struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

type issueResponse struct {
	ID          string          `json:"id"`
	Identifier  string          `json:"identifier"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	URL         string          `json:"url"`
	Priority    int             `json:"priority"`
	State       *namedReference `json:"state"`
	Team        *namedReference `json:"team"`
	Assignee    *namedReference `json:"assignee"`
}

func (response issueResponse) toIssue() Issue {
	issue := Issue{
		ID:          response.ID,
		Identifier:  response.Identifier,
		Title:       response.Title,
		Description: response.Description,
		URL:         response.URL,
		Priority:    response.Priority,
	}
	if response.State != nil {
		issue.State = response.State.Name
	}
	if response.Team != nil {
		issue.Team = response.Team.Key
	}
	if response.Assignee != nil {
		issue.Assignee = response.Assignee.Name
	}
	return issue
}

// Client coordinates linearis invocations through execshell.
type Client struct {
	invoker *vendorcli.Invoker
}

// NewClient constructs a linearis client.
func NewClient(executor vendorcli.CommandExecutor, credential credentials.Credential, workingDirectory string) (*Client, error) {
	invoker, invokerError := vendorcli.NewInvoker(executor, Profile(), credential, workingDirectory)
	if invokerError != nil {
		return nil, invokerError
	}
	return &Client{invoker: invoker}, nil
}

// ReadIssue fetches an issue by identifier (ENG-123) or ID.
func (client *Client) ReadIssue(executionContext context.Context, issueIdentifier string) (Issue, error) {
	identifier, identifierError := vendorcli.RequireValue(issueFieldNameConstant, issueIdentifier)
	if identifierError != nil {
		return Issue{}, identifierError
	}

	var response issueResponse
	request := vendorcli.Request{Arguments: []string{issuesSubcommandConstant, readSubcommandConstant, identifier}}
	if runError := client.invoker.RunJSON(executionContext, readIssueOperationNameConstant, request, &response); runError != nil {
		return Issue{}, runError
	}
	return response.toIssue(), nil
}

// ListIssues enumerates recent issues.
func (client *Client) ListIssues(executionContext context.Context, options IssueListOptions) ([]Issue, error) {
	arguments := []string{issuesSubcommandConstant, listSubcommandConstant}
	if options.Limit > 0 {
		arguments = append(arguments, limitFlagConstant, strconv.Itoa(options.Limit))
	}

	var response []issueResponse
	if runError := client.invoker.RunJSON(executionContext, listIssuesOperationNameConstant, vendorcli.Request{Arguments: arguments}, &response); runError != nil {
		return nil, runError
	}

	issues := make([]Issue, 0, len(response))
	for _, issueEntry := range response {
		issues = append(issues, issueEntry.toIssue())
	}
	return issues, nil
}

// CreateIssue creates an issue in a team identified by key or ID.
func (client *Client) CreateIssue(executionContext context.Context, options IssueCreateOptions) (Issue, error) {
	title, titleError := vendorcli.RequireValue(titleFieldNameConstant, options.Title)
	if titleError != nil {
		return Issue{}, titleError
	}
	team, teamError := vendorcli.RequireValue(teamFieldNameConstant, options.Team)
	if teamError != nil {
		return Issue{}, teamError
	}

	arguments := []string{issuesSubcommandConstant, createSubcommandConstant, title, teamFlagConstant, team}
	if description := strings.TrimSpace(options.Description); len(description) > 0 {
		arguments = append(arguments, descriptionFlagConstant, description)
	}
	if assignee := strings.TrimSpace(options.Assignee); len(assignee) > 0 {
		arguments = append(arguments, assigneeFlagConstant, assignee)
	}
	if labels := joinLabels(options.Labels); len(labels) > 0 {
		arguments = append(arguments, labelsFlagConstant, labels)
	}
	if options.Priority != nil {
		if *options.Priority < 0 || *options.Priority > maximumPriorityConstant {
			return Issue{}, vendorcli.InvalidInputError{FieldName: priorityFieldNameConstant, Message: priorityRangeMessageConstant}
		}
		arguments = append(arguments, priorityFlagConstant, strconv.Itoa(*options.Priority))
	}

	var response issueResponse
	if runError := client.invoker.RunJSON(executionContext, createIssueOperationNameConstant, vendorcli.Request{Arguments: arguments}, &response); runError != nil {
		return Issue{}, runError
	}
	return response.toIssue(), nil
}

// UpdateIssueState moves an issue to a workflow state given by name or ID.
func (client *Client) UpdateIssueState(executionContext context.Context, issueIdentifier string, state string) (Issue, error) {
	identifier, identifierError := vendorcli.RequireValue(issueFieldNameConstant, issueIdentifier)
	if identifierError != nil {
		return Issue{}, identifierError
	}
	targetState, stateError := vendorcli.RequireValue(stateFieldNameConstant, state)
	if stateError != nil {
		return Issue{}, stateError
	}

	var response issueResponse
	request := vendorcli.Request{Arguments: []string{issuesSubcommandConstant, updateSubcommandConstant, identifier, stateFlagConstant, targetState}}
	if runError := client.invoker.RunJSON(executionContext, updateIssueStateOperationNameConstant, request, &response); runError != nil {
		return Issue{}, runError
	}
	return response.toIssue(), nil
}

// ListTeams enumerates the teams of the workspace.
func (client *Client) ListTeams(executionContext context.Context) ([]Team, error) {
	var response []namedReference
	request := vendorcli.Request{Arguments: []string{teamsSubcommandConstant, listSubcommandConstant}}
	if runError := client.invoker.RunJSON(executionContext, listTeamsOperationNameConstant, request, &response); runError != nil {
		return nil, runError
	}

	teams := make([]Team, 0, len(response))
	for _, teamEntry := range response {
		teams = append(teams, Team{ID: teamEntry.ID, Key: teamEntry.Key, Name: teamEntry.Name})
	}
	return teams, nil
}

func joinLabels(labels []string) string {
	trimmedLabels := make([]string, 0, len(labels))
	for _, label := range labels {
		if trimmedLabel := strings.TrimSpace(label); len(trimmedLabel) > 0 {
			trimmedLabels = append(trimmedLabels, trimmedLabel)
		}
	}
	return strings.Join(trimmedLabels, labelSeparatorConstant)
}
