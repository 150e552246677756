package githubcli

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/execshell"
	"github.com/dovetail-dev/dovetail/internal/vendorcli"
)

const (
	repoSubcommandConstant        = "repo"
	viewSubcommandConstant        = "view"
	createSubcommandConstant      = "create"
	pullRequestSubcommandConstant = "pr"
	listSubcommandConstant        = "list"
	mergeSubcommandConstant       = "merge"
	authSubcommandConstant        = "auth"
	statusSubcommandConstant      = "status"
	jsonFlagConstant              = "--json"
	repoFlagConstant              = "--repo"
	stateFlagConstant             = "--state"
	baseFlagConstant              = "--base"
	headFlagConstant              = "--head"
	limitFlagConstant             = "--limit"
	titleFlagConstant             = "--title"
	bodyFlagConstant              = "--body"
	draftFlagConstant             = "--draft"
	deleteBranchFlagConstant      = "--delete-branch"
	descriptionFlagConstant       = "--description"
	sourceFlagConstant            = "--source"
	pushFlagConstant              = "--push"
	hostnameFlagConstant          = "--hostname"
	flagPrefixConstant            = "--"

	repositoryFieldNameConstant     = "repository"
	titleFieldNameConstant          = "title"
	identifierFieldNameConstant     = "identifier"
	nameFieldNameConstant           = "name"
	stateFieldNameConstant          = "state"
	mergeMethodFieldNameConstant    = "merge_method"
	visibilityFieldNameConstant     = "visibility"
	unsupportedValueMessageConstant = "unsupported value"

	pullRequestLimitDefaultValueConstant = 100
	pullRequestJSONFieldsConstant        = "number,title,headRefName,baseRefName,state,url,isDraft"
	pullRequestViewJSONFieldsConstant    = "number,title,headRefName,baseRefName,state,url,isDraft,reviewDecision,mergeStateStatus"
	repoViewJSONFieldsConstant           = "defaultBranchRef,nameWithOwner,description,url"

	repositoryMetadataOperationNameConstant = vendorcli.OperationName("ResolveRepoMetadata")
	listPullRequestsOperationNameConstant   = vendorcli.OperationName("ListPullRequests")
	viewPullRequestOperationNameConstant    = vendorcli.OperationName("ViewPullRequest")
	createPullRequestOperationNameConstant  = vendorcli.OperationName("CreatePullRequest")
	mergePullRequestOperationNameConstant   = vendorcli.OperationName("MergePullRequest")
	createRepositoryOperationNameConstant   = vendorcli.OperationName("CreateRepository")
	authStatusOperationNameConstant         = vendorcli.OperationName("AuthStatus")
)

var authenticatedAccountExpression = regexp.MustCompile(`\b(?:account|as) ([A-Za-z0-9][A-Za-z0-9-]*)`)

// PullRequestState describes acceptable GitHub pull request states.
type PullRequestState string

// Pull request state enumerations.
const (
	PullRequestStateOpen   PullRequestState = PullRequestState("open")
	PullRequestStateClosed PullRequestState = PullRequestState("closed")
	PullRequestStateMerged PullRequestState = PullRequestState("merged")
	PullRequestStateAll    PullRequestState = PullRequestState("all")
)

// MergeMethod selects how gh pr merge combines commits.
type MergeMethod string

// Merge method enumerations.
const (
	MergeMethodMerge  MergeMethod = MergeMethod("merge")
	MergeMethodSquash MergeMethod = MergeMethod("squash")
	MergeMethodRebase MergeMethod = MergeMethod("rebase")
)

// RepositoryVisibility selects the visibility of a created repository.
type RepositoryVisibility string

// Repository visibility enumerations.
const (
	RepositoryVisibilityPrivate  RepositoryVisibility = RepositoryVisibility("private")
	RepositoryVisibilityPublic   RepositoryVisibility = RepositoryVisibility("public")
	RepositoryVisibilityInternal RepositoryVisibility = RepositoryVisibility("internal")
)

// RepositoryMetadata contains key details resolved from GitHub.
type RepositoryMetadata struct {
	NameWithOwner string
	Description   string
	DefaultBranch string
	URL           string
}

// PullRequest represents pull request details returned by GitHub CLI.
type PullRequest struct {
	Number           int
	Title            string
	HeadRefName      string
	BaseRefName      string
	State            string
	URL              string
	IsDraft          bool
	ReviewDecision   string
	MergeStateStatus string
}

// PullRequestListOptions configures ListPullRequests queries.
type PullRequestListOptions struct {
	State       PullRequestState
	BaseBranch  string
	HeadBranch  string
	ResultLimit int
}

// PullRequestCreateOptions configures CreatePullRequest.
type PullRequestCreateOptions struct {
	Title      string
	Body       string
	BaseBranch string
	HeadBranch string
	Draft      bool
}

// PullRequestMergeOptions configures MergePullRequest.
type PullRequestMergeOptions struct {
	// Identifier is a pull request number, URL or head branch.
	Identifier   string
	Method       MergeMethod
	DeleteBranch bool
}

// RepositoryCreateOptions configures CreateRepository.
type RepositoryCreateOptions struct {
	Name        string
	Description string
	Visibility  RepositoryVisibility
	// SourceDirectory, when set, pushes an existing local repository.
	SourceDirectory string
}

// AuthenticationStatus summarizes gh auth status output.
type AuthenticationStatus struct {
	Account string
	Detail  string
}

type pullRequestResponse struct {
	Number           int    `json:"number"`
	Title            string `json:"title"`
	HeadRefName      string `json:"headRefName"`
	BaseRefName      string `json:"baseRefName"`
	State            string `json:"state"`
	URL              string `json:"url"`
	IsDraft          bool   `json:"isDraft"`
	ReviewDecision   string `json:"reviewDecision"`
	MergeStateStatus string `json:"mergeStateStatus"`
}

func (response pullRequestResponse) toPullRequest() PullRequest {
	return PullRequest{
		Number:           response.Number,
		Title:            response.Title,
		HeadRefName:      response.HeadRefName,
		BaseRefName:      response.BaseRefName,
		State:            response.State,
		URL:              response.URL,
		IsDraft:          response.IsDraft,
		ReviewDecision:   response.ReviewDecision,
		MergeStateStatus: response.MergeStateStatus,
	}
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	invoker *vendorcli.Invoker
}

// NewClient constructs a GitHub CLI client. Commands run in workingDirectory
// (the current directory when empty) with the resolved credential injected.
func NewClient(executor vendorcli.CommandExecutor, credential credentials.Credential, workingDirectory string) (*Client, error) {
	invoker, invokerError := vendorcli.NewInvoker(executor, Profile(), credential, workingDirectory)
	if invokerError != nil {
		return nil, invokerError
	}
	return &Client{invoker: invoker}, nil
}

// ResolveRepoMetadata retrieves canonical metadata using gh repo view. An empty
// repository resolves the repository of the working directory.
func (client *Client) ResolveRepoMetadata(executionContext context.Context, repository string) (RepositoryMetadata, error) {
	arguments := []string{repoSubcommandConstant, viewSubcommandConstant}
	if repositoryIdentifier := strings.TrimSpace(repository); len(repositoryIdentifier) > 0 {
		arguments = append(arguments, repositoryIdentifier)
	}
	arguments = append(arguments, jsonFlagConstant, repoViewJSONFieldsConstant)

	var response struct {
		NameWithOwner    string `json:"nameWithOwner"`
		Description      string `json:"description"`
		URL              string `json:"url"`
		DefaultBranchRef struct {
			Name string `json:"name"`
		} `json:"defaultBranchRef"`
	}
	if runError := client.invoker.RunJSON(executionContext, repositoryMetadataOperationNameConstant, vendorcli.Request{Arguments: arguments}, &response); runError != nil {
		return RepositoryMetadata{}, runError
	}

	return RepositoryMetadata{
		NameWithOwner: response.NameWithOwner,
		Description:   response.Description,
		DefaultBranch: response.DefaultBranchRef.Name,
		URL:           response.URL,
	}, nil
}

// ListPullRequests enumerates pull requests using gh pr list.
func (client *Client) ListPullRequests(executionContext context.Context, repository string, options PullRequestListOptions) ([]PullRequest, error) {
	repositoryIdentifier, repositoryError := vendorcli.RequireValue(repositoryFieldNameConstant, repository)
	if repositoryError != nil {
		return nil, repositoryError
	}
	if len(options.State) == 0 {
		return nil, vendorcli.MissingValueError(stateFieldNameConstant)
	}

	resultLimit := options.ResultLimit
	if resultLimit <= 0 {
		resultLimit = pullRequestLimitDefaultValueConstant
	}

	arguments := []string{
		pullRequestSubcommandConstant,
		listSubcommandConstant,
		repoFlagConstant,
		repositoryIdentifier,
		stateFlagConstant,
		string(options.State),
	}
	arguments = appendOptionalFlag(arguments, baseFlagConstant, options.BaseBranch)
	arguments = appendOptionalFlag(arguments, headFlagConstant, options.HeadBranch)
	arguments = append(arguments, jsonFlagConstant, pullRequestJSONFieldsConstant, limitFlagConstant, strconv.Itoa(resultLimit))

	var response []pullRequestResponse
	if runError := client.invoker.RunJSON(executionContext, listPullRequestsOperationNameConstant, vendorcli.Request{Arguments: arguments}, &response); runError != nil {
		return nil, runError
	}

	pullRequests := make([]PullRequest, 0, len(response))
	for _, pullRequestEntry := range response {
		pullRequests = append(pullRequests, pullRequestEntry.toPullRequest())
	}
	return pullRequests, nil
}

// ViewPullRequest returns the pull request for a number, URL or branch, or nil
// when gh reports that none exists. An empty identifier selects the current
// branch. A missing or inaccessible repository is returned as an error.
func (client *Client) ViewPullRequest(executionContext context.Context, repository string, identifier string) (*PullRequest, error) {
	arguments := []string{pullRequestSubcommandConstant, viewSubcommandConstant}
	if trimmedIdentifier := strings.TrimSpace(identifier); len(trimmedIdentifier) > 0 {
		arguments = append(arguments, trimmedIdentifier)
	}
	arguments = appendOptionalFlag(arguments, repoFlagConstant, repository)
	arguments = append(arguments, jsonFlagConstant, pullRequestViewJSONFieldsConstant)

	var response pullRequestResponse
	runError := client.invoker.RunJSON(executionContext, viewPullRequestOperationNameConstant, vendorcli.Request{Arguments: arguments}, &response)
	if runError != nil {
		if isMissingPullRequest(runError) {
			return nil, nil
		}
		return nil, runError
	}

	pullRequest := response.toPullRequest()
	return &pullRequest, nil
}

// CreatePullRequest opens a pull request and returns its URL.
func (client *Client) CreatePullRequest(executionContext context.Context, repository string, options PullRequestCreateOptions) (string, error) {
	title, titleError := vendorcli.RequireValue(titleFieldNameConstant, options.Title)
	if titleError != nil {
		return "", titleError
	}

	arguments := []string{
		pullRequestSubcommandConstant,
		createSubcommandConstant,
		titleFlagConstant,
		title,
		bodyFlagConstant,
		options.Body,
	}
	arguments = appendOptionalFlag(arguments, baseFlagConstant, options.BaseBranch)
	arguments = appendOptionalFlag(arguments, headFlagConstant, options.HeadBranch)
	arguments = appendOptionalFlag(arguments, repoFlagConstant, repository)
	if options.Draft {
		arguments = append(arguments, draftFlagConstant)
	}

	executionResult, runError := client.invoker.Run(executionContext, createPullRequestOperationNameConstant, vendorcli.Request{Arguments: arguments})
	if runError != nil {
		return "", runError
	}
	return lastNonEmptyLine(executionResult.StandardOutput), nil
}

// MergePullRequest merges a pull request with the selected method.
func (client *Client) MergePullRequest(executionContext context.Context, repository string, options PullRequestMergeOptions) error {
	identifier, identifierError := vendorcli.RequireValue(identifierFieldNameConstant, options.Identifier)
	if identifierError != nil {
		return identifierError
	}

	method := options.Method
	if len(method) == 0 {
		method = MergeMethodSquash
	}
	switch method {
	case MergeMethodMerge, MergeMethodSquash, MergeMethodRebase:
	default:
		return vendorcli.InvalidInputError{FieldName: mergeMethodFieldNameConstant, Message: unsupportedValueMessageConstant}
	}

	arguments := []string{pullRequestSubcommandConstant, mergeSubcommandConstant, identifier, flagPrefixConstant + string(method)}
	if options.DeleteBranch {
		arguments = append(arguments, deleteBranchFlagConstant)
	}
	arguments = appendOptionalFlag(arguments, repoFlagConstant, repository)

	_, runError := client.invoker.Run(executionContext, mergePullRequestOperationNameConstant, vendorcli.Request{Arguments: arguments})
	return runError
}

// CreateRepository creates a GitHub repository and returns its URL.
func (client *Client) CreateRepository(executionContext context.Context, options RepositoryCreateOptions) (string, error) {
	name, nameError := vendorcli.RequireValue(nameFieldNameConstant, options.Name)
	if nameError != nil {
		return "", nameError
	}

	visibility := options.Visibility
	if len(visibility) == 0 {
		visibility = RepositoryVisibilityPrivate
	}
	switch visibility {
	case RepositoryVisibilityPrivate, RepositoryVisibilityPublic, RepositoryVisibilityInternal:
	default:
		return "", vendorcli.InvalidInputError{FieldName: visibilityFieldNameConstant, Message: unsupportedValueMessageConstant}
	}

	arguments := []string{repoSubcommandConstant, createSubcommandConstant, name, flagPrefixConstant + string(visibility)}
	arguments = appendOptionalFlag(arguments, descriptionFlagConstant, options.Description)
	if sourceDirectory := strings.TrimSpace(options.SourceDirectory); len(sourceDirectory) > 0 {
		arguments = append(arguments, sourceFlagConstant, sourceDirectory, pushFlagConstant)
	}

	executionResult, runError := client.invoker.Run(executionContext, createRepositoryOperationNameConstant, vendorcli.Request{Arguments: arguments})
	if runError != nil {
		return "", runError
	}
	return lastNonEmptyLine(executionResult.StandardOutput), nil
}

// AuthStatus reports the authenticated account for an optional hostname.
// A logged-out CLI surfaces as a NotAuthenticated classified error.
func (client *Client) AuthStatus(executionContext context.Context, hostname string) (AuthenticationStatus, error) {
	arguments := appendOptionalFlag([]string{authSubcommandConstant, statusSubcommandConstant}, hostnameFlagConstant, hostname)

	executionResult, runError := client.invoker.Run(executionContext, authStatusOperationNameConstant, vendorcli.Request{Arguments: arguments})
	if runError != nil {
		return AuthenticationStatus{}, runError
	}

	combinedOutput := strings.TrimSpace(executionResult.CombinedOutput())
	status := AuthenticationStatus{Detail: combinedOutput}
	if match := authenticatedAccountExpression.FindStringSubmatch(combinedOutput); len(match) == 2 {
		status.Account = match[1]
	}
	return status, nil
}

// isMissingPullRequest reports whether gh failed only because no pull request
// matched; other not-found failures concern the repository itself.
func isMissingPullRequest(err error) bool {
	var classified execshell.ClassifiedError
	if !errors.As(err, &classified) || classified.Kind != execshell.ErrorKindNotFound {
		return false
	}
	return strings.Contains(strings.ToLower(classified.Result.CombinedOutput()), noPullRequestsFoundConstant)
}

func appendOptionalFlag(arguments []string, flagName string, value string) []string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return arguments
	}
	return append(arguments, flagName, trimmedValue)
}

func lastNonEmptyLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for index := len(lines) - 1; index >= 0; index-- {
		if trimmedLine := strings.TrimSpace(lines[index]); len(trimmedLine) > 0 {
			return trimmedLine
		}
	}
	return ""
}
