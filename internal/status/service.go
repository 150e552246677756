package status

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dovetail-dev/dovetail/internal/flycli"
	"github.com/dovetail-dev/dovetail/internal/githubcli"
	"github.com/dovetail-dev/dovetail/internal/linearcli"
	"github.com/dovetail-dev/dovetail/internal/supabasecli"
)

const (
	githubSectionTitleConstant          = "GitHub"
	flySectionTitleConstant             = "Fly.io"
	supabaseSectionTitleConstant        = "Supabase"
	linearSectionTitleConstant          = "Linear"
	noPullRequestMessageConstant        = "no pull request for the current branch"
	noAppMessageConstant                = "no fly.toml found and no app configured"
	noIssueMessageConstant              = "no issue configured or referenced by the branch"
	emptyStackMessageConstant           = "local stack reports no endpoints"
	pullRequestLineTemplateConstant     = "#%d %s"
	pullRequestStateTemplateConstant    = "%s  %s -> %s"
	draftLabelConstant                  = "draft"
	reviewLabelTemplateConstant         = "review %s"
	mergeLabelTemplateConstant          = "merge %s"
	appLineTemplateConstant             = "%s  %s"
	hostnameLabelTemplateConstant       = "https://%s"
	machineLineTemplateConstant         = "machine %s  %s  %s"
	endpointLineTemplateConstant        = "%s: %s"
	issueLineTemplateConstant           = "%s %s"
	assigneeLabelTemplateConstant       = "assigned to %s"
	fieldSeparatorConstant              = "  "
	sectionFailedMessageConstant        = "status section failed"
	logFieldSectionConstant             = "section"
	missingCollaboratorTemplateConstant = "status %s client not configured"
	incompleteMessageConstant           = "one or more status sections failed"
)

var issueReferenceExpression = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])([a-z][a-z0-9]{1,4}-[0-9]+)(?:[^0-9]|$)`)

// ErrIncomplete indicates at least one section failed.
var ErrIncomplete = errors.New(incompleteMessageConstant)

// PullRequestViewer reads pull requests.
type PullRequestViewer interface {
	ViewPullRequest(executionContext context.Context, repository string, identifier string) (*githubcli.PullRequest, error)
}

// AppInspector reads Fly.io app state.
type AppInspector interface {
	AppStatus(executionContext context.Context, appName string) (flycli.App, error)
}

// StackInspector reads the local Supabase stack.
type StackInspector interface {
	Status(executionContext context.Context) (supabasecli.StackStatus, error)
}

// IssueReader reads Linear issues.
type IssueReader interface {
	ReadIssue(executionContext context.Context, issueIdentifier string) (linearcli.Issue, error)
}

// AppNameReader resolves the app declared in a fly.toml path or directory.
type AppNameReader func(configurationPath string) (string, error)

// SectionState enumerates section outcomes.
type SectionState string

// Section states.
const (
	SectionStateOK      SectionState = SectionState("ok")
	SectionStateSkipped SectionState = SectionState("skipped")
	SectionStateFailed  SectionState = SectionState("failed")
)

// Section is the outcome of one vendor lookup.
type Section struct {
	Title string
	State SectionState
	Lines []string
	Err   error
}

// Report holds every section in display order.
type Report struct {
	Sections []Section
}

// Failed reports whether any section failed.
func (report Report) Failed() bool {
	for _, section := range report.Sections {
		if section.State == SectionStateFailed {
			return true
		}
	}
	return false
}

// Options selects what the report describes.
type Options struct {
	Repository           string
	App                  string
	FlyConfigurationPath string
	Issue                string
	WorkingDirectory     string
}

// Dependencies wires the vendor clients used by Service.
type Dependencies struct {
	PullRequests  PullRequestViewer
	Apps          AppInspector
	Stack         StackInspector
	Issues        IssueReader
	AppNameReader AppNameReader
	Logger        *zap.Logger
}

// Service collects the status report.
type Service struct {
	pullRequests  PullRequestViewer
	apps          AppInspector
	stack         StackInspector
	issues        IssueReader
	appNameReader AppNameReader
	logger        *zap.Logger
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	switch {
	case dependencies.PullRequests == nil:
		return nil, fmt.Errorf(missingCollaboratorTemplateConstant, "github")
	case dependencies.Apps == nil:
		return nil, fmt.Errorf(missingCollaboratorTemplateConstant, "fly")
	case dependencies.Stack == nil:
		return nil, fmt.Errorf(missingCollaboratorTemplateConstant, "supabase")
	case dependencies.Issues == nil:
		return nil, fmt.Errorf(missingCollaboratorTemplateConstant, "linear")
	}

	service := &Service{
		pullRequests:  dependencies.PullRequests,
		apps:          dependencies.Apps,
		stack:         dependencies.Stack,
		issues:        dependencies.Issues,
		appNameReader: dependencies.AppNameReader,
		logger:        dependencies.Logger,
	}
	if service.appNameReader == nil {
		service.appNameReader = flycli.ReadAppName
	}
	if service.logger == nil {
		service.logger = zap.NewNop()
	}
	return service, nil
}

// Collect gathers every section. GitHub, Fly.io and Supabase are queried
// concurrently; Linear follows because the issue may come from the pull
// request branch. Section failures are recorded, never returned.
func (service *Service) Collect(executionContext context.Context, options Options) Report {
	sections := make([]Section, 4)
	var pullRequest *githubcli.PullRequest

	var group errgroup.Group
	group.Go(func() error {
		sections[0], pullRequest = service.collectPullRequest(executionContext, options)
		return nil
	})
	group.Go(func() error {
		sections[1] = service.collectApp(executionContext, options)
		return nil
	})
	group.Go(func() error {
		sections[2] = service.collectStack(executionContext)
		return nil
	})
	_ = group.Wait()

	sections[3] = service.collectIssue(executionContext, options, pullRequest)

	for _, section := range sections {
		if section.State == SectionStateFailed {
			service.logger.Debug(sectionFailedMessageConstant, zap.String(logFieldSectionConstant, section.Title), zap.Error(section.Err))
		}
	}
	return Report{Sections: sections}
}

func (service *Service) collectPullRequest(executionContext context.Context, options Options) (Section, *githubcli.PullRequest) {
	pullRequest, viewError := service.pullRequests.ViewPullRequest(executionContext, options.Repository, "")
	if viewError != nil {
		return failedSection(githubSectionTitleConstant, viewError), nil
	}
	if pullRequest == nil {
		return skippedSection(githubSectionTitleConstant, noPullRequestMessageConstant), nil
	}

	stateSegments := []string{fmt.Sprintf(pullRequestStateTemplateConstant, strings.ToLower(pullRequest.State), pullRequest.HeadRefName, pullRequest.BaseRefName)}
	if pullRequest.IsDraft {
		stateSegments = append(stateSegments, draftLabelConstant)
	}
	if len(pullRequest.ReviewDecision) > 0 {
		stateSegments = append(stateSegments, fmt.Sprintf(reviewLabelTemplateConstant, strings.ToLower(pullRequest.ReviewDecision)))
	}
	if len(pullRequest.MergeStateStatus) > 0 {
		stateSegments = append(stateSegments, fmt.Sprintf(mergeLabelTemplateConstant, strings.ToLower(pullRequest.MergeStateStatus)))
	}

	lines := []string{
		fmt.Sprintf(pullRequestLineTemplateConstant, pullRequest.Number, pullRequest.Title),
		strings.Join(stateSegments, fieldSeparatorConstant),
	}
	if len(pullRequest.URL) > 0 {
		lines = append(lines, pullRequest.URL)
	}
	return Section{Title: githubSectionTitleConstant, State: SectionStateOK, Lines: lines}, pullRequest
}

func (service *Service) collectApp(executionContext context.Context, options Options) Section {
	appName := strings.TrimSpace(options.App)
	if len(appName) == 0 {
		configurationPath := options.FlyConfigurationPath
		if len(strings.TrimSpace(configurationPath)) == 0 {
			configurationPath = options.WorkingDirectory
		}
		resolvedName, readError := service.appNameReader(configurationPath)
		if readError != nil {
			if errors.Is(readError, fs.ErrNotExist) {
				return skippedSection(flySectionTitleConstant, noAppMessageConstant)
			}
			return failedSection(flySectionTitleConstant, readError)
		}
		appName = resolvedName
	}

	app, statusError := service.apps.AppStatus(executionContext, appName)
	if statusError != nil {
		return failedSection(flySectionTitleConstant, statusError)
	}

	headline := []string{fmt.Sprintf(appLineTemplateConstant, app.Name, app.Status)}
	if len(app.Hostname) > 0 {
		headline = append(headline, fmt.Sprintf(hostnameLabelTemplateConstant, app.Hostname))
	}
	lines := []string{strings.Join(headline, fieldSeparatorConstant)}
	for _, machine := range app.Machines {
		lines = append(lines, fmt.Sprintf(machineLineTemplateConstant, machine.ID, machine.State, machine.Region))
	}
	return Section{Title: flySectionTitleConstant, State: SectionStateOK, Lines: lines}
}

func (service *Service) collectStack(executionContext context.Context) Section {
	stackStatus, statusError := service.stack.Status(executionContext)
	if statusError != nil {
		return failedSection(supabaseSectionTitleConstant, statusError)
	}
	if len(stackStatus) == 0 {
		return skippedSection(supabaseSectionTitleConstant, emptyStackMessageConstant)
	}

	lines := make([]string, 0, len(stackStatus))
	for _, name := range stackStatus.Names() {
		lines = append(lines, fmt.Sprintf(endpointLineTemplateConstant, name, stackStatus[name]))
	}
	return Section{Title: supabaseSectionTitleConstant, State: SectionStateOK, Lines: lines}
}

func (service *Service) collectIssue(executionContext context.Context, options Options, pullRequest *githubcli.PullRequest) Section {
	issueIdentifier := strings.TrimSpace(options.Issue)
	if len(issueIdentifier) == 0 && pullRequest != nil {
		issueIdentifier = IssueReferenceFromBranch(pullRequest.HeadRefName)
	}
	if len(issueIdentifier) == 0 {
		return skippedSection(linearSectionTitleConstant, noIssueMessageConstant)
	}

	issue, readError := service.issues.ReadIssue(executionContext, issueIdentifier)
	if readError != nil {
		return failedSection(linearSectionTitleConstant, readError)
	}

	lines := []string{fmt.Sprintf(issueLineTemplateConstant, issue.Identifier, issue.Title)}
	var detail []string
	if len(issue.State) > 0 {
		detail = append(detail, issue.State)
	}
	if len(issue.Assignee) > 0 {
		detail = append(detail, fmt.Sprintf(assigneeLabelTemplateConstant, issue.Assignee))
	}
	if len(detail) > 0 {
		lines = append(lines, strings.Join(detail, fieldSeparatorConstant))
	}
	if len(issue.URL) > 0 {
		lines = append(lines, issue.URL)
	}
	return Section{Title: linearSectionTitleConstant, State: SectionStateOK, Lines: lines}
}

// IssueReferenceFromBranch extracts an issue key such as ENG-42 from a branch
// name like "feature/eng-42-login". It returns an empty string when none is present.
func IssueReferenceFromBranch(branchName string) string {
	match := issueReferenceExpression.FindStringSubmatch(branchName)
	if len(match) != 2 {
		return ""
	}
	return strings.ToUpper(match[1])
}

func failedSection(title string, err error) Section {
	return Section{Title: title, State: SectionStateFailed, Err: err}
}

func skippedSection(title string, message string) Section {
	return Section{Title: title, State: SectionStateSkipped, Lines: []string{message}}
}
