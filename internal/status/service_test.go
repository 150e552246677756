package status_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dovetail-dev/dovetail/internal/execshell"
	"github.com/dovetail-dev/dovetail/internal/flycli"
	"github.com/dovetail-dev/dovetail/internal/githubcli"
	"github.com/dovetail-dev/dovetail/internal/linearcli"
	"github.com/dovetail-dev/dovetail/internal/status"
	"github.com/dovetail-dev/dovetail/internal/supabasecli"
)

type stubPullRequests struct {
	pullRequest        *githubcli.PullRequest
	err                error
	recordedRepository string
}

func (stub *stubPullRequests) ViewPullRequest(_ context.Context, repository string, _ string) (*githubcli.PullRequest, error) {
	stub.recordedRepository = repository
	return stub.pullRequest, stub.err
}

type stubApps struct {
	mutex       sync.Mutex
	app         flycli.App
	err         error
	recordedApp string
}

func (stub *stubApps) AppStatus(_ context.Context, appName string) (flycli.App, error) {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	stub.recordedApp = appName
	return stub.app, stub.err
}

type stubStack struct {
	stackStatus supabasecli.StackStatus
	err         error
}

func (stub *stubStack) Status(context.Context) (supabasecli.StackStatus, error) {
	return stub.stackStatus, stub.err
}

type stubIssues struct {
	issue         linearcli.Issue
	err           error
	recordedIssue string
}

func (stub *stubIssues) ReadIssue(_ context.Context, issueIdentifier string) (linearcli.Issue, error) {
	stub.recordedIssue = issueIdentifier
	return stub.issue, stub.err
}

func healthyDependencies() (status.Dependencies, *stubPullRequests, *stubApps, *stubIssues) {
	pullRequests := &stubPullRequests{pullRequest: &githubcli.PullRequest{
		Number:           42,
		Title:            "Add login",
		HeadRefName:      "feature/eng-42-login",
		BaseRefName:      "main",
		State:            "OPEN",
		URL:              "https://github.com/acme/web/pull/42",
		ReviewDecision:   "APPROVED",
		MergeStateStatus: "CLEAN",
	}}
	apps := &stubApps{app: flycli.App{
		Name:     "acme-web",
		Status:   "deployed",
		Hostname: "acme-web.fly.dev",
		Machines: []flycli.Machine{{ID: "148e", State: "started", Region: "ams"}},
	}}
	issues := &stubIssues{issue: linearcli.Issue{Identifier: "ENG-42", Title: "Login page", State: "In Progress", Assignee: "Ada", URL: "https://linear.app/acme/issue/ENG-42"}}
	dependencies := status.Dependencies{
		PullRequests:  pullRequests,
		Apps:          apps,
		Stack:         &stubStack{stackStatus: supabasecli.StackStatus{"DB_URL": "postgresql://localhost:54322/postgres", "API_URL": "http://127.0.0.1:54321"}},
		Issues:        issues,
		AppNameReader: func(string) (string, error) { return "from-fly-toml", nil },
	}
	return dependencies, pullRequests, apps, issues
}

func TestCollectHealthyProject(testInstance *testing.T) {
	dependencies, pullRequests, apps, issues := healthyDependencies()
	service, serviceError := status.NewService(dependencies)
	require.NoError(testInstance, serviceError)

	report := service.Collect(context.Background(), status.Options{Repository: "acme/web"})
	require.False(testInstance, report.Failed())
	require.Len(testInstance, report.Sections, 4)

	require.Equal(testInstance, "acme/web", pullRequests.recordedRepository)
	require.Equal(testInstance, []string{
		"#42 Add login",
		"open  feature/eng-42-login -> main  review approved  merge clean",
		"https://github.com/acme/web/pull/42",
	}, report.Sections[0].Lines)

	require.Equal(testInstance, "from-fly-toml", apps.recordedApp)
	require.Equal(testInstance, []string{"acme-web  deployed  https://acme-web.fly.dev", "machine 148e  started  ams"}, report.Sections[1].Lines)

	require.Equal(testInstance, []string{"API_URL: http://127.0.0.1:54321", "DB_URL: postgresql://localhost:54322/postgres"}, report.Sections[2].Lines)

	require.Equal(testInstance, "ENG-42", issues.recordedIssue)
	require.Equal(testInstance, []string{"ENG-42 Login page", "In Progress  assigned to Ada", "https://linear.app/acme/issue/ENG-42"}, report.Sections[3].Lines)
}

func TestCollectSectionsFailIndependently(testInstance *testing.T) {
	dependencies, _, _, issues := healthyDependencies()
	dependencies.Apps = &stubApps{err: execshell.ClassifiedError{Kind: execshell.ErrorKindNotAuthenticated, Summary: "flyctl status failed with exit code 1."}}
	dependencies.Stack = &stubStack{err: execshell.ClassifiedError{Kind: execshell.ErrorKindNotInstalled, Summary: "supabase is not installed or is not on your PATH."}}
	service, serviceError := status.NewService(dependencies)
	require.NoError(testInstance, serviceError)

	report := service.Collect(context.Background(), status.Options{App: "acme-web", Issue: "OPS-7"})
	require.True(testInstance, report.Failed())

	states := make([]status.SectionState, 0, len(report.Sections))
	for _, section := range report.Sections {
		states = append(states, section.State)
	}
	require.Equal(testInstance, []status.SectionState{status.SectionStateOK, status.SectionStateFailed, status.SectionStateFailed, status.SectionStateOK}, states)
	require.Equal(testInstance, execshell.ErrorKindNotAuthenticated, execshell.KindOf(report.Sections[1].Err))
	require.Equal(testInstance, execshell.ErrorKindNotInstalled, execshell.KindOf(report.Sections[2].Err))
	require.Equal(testInstance, "OPS-7", issues.recordedIssue)
}

func TestCollectSkipsMissingTargets(testInstance *testing.T) {
	dependencies, _, apps, issues := healthyDependencies()
	dependencies.PullRequests = &stubPullRequests{}
	dependencies.Stack = &stubStack{stackStatus: supabasecli.StackStatus{}}
	dependencies.AppNameReader = func(path string) (string, error) {
		return "", fmt.Errorf("unable to read %s: %w", path, fs.ErrNotExist)
	}
	service, serviceError := status.NewService(dependencies)
	require.NoError(testInstance, serviceError)

	report := service.Collect(context.Background(), status.Options{WorkingDirectory: "/src/web"})
	require.False(testInstance, report.Failed())
	for _, section := range report.Sections {
		require.Equal(testInstance, status.SectionStateSkipped, section.State, section.Title)
	}
	require.Empty(testInstance, apps.recordedApp)
	require.Empty(testInstance, issues.recordedIssue)
}

func TestCollectReportsUnreadableFlyConfiguration(testInstance *testing.T) {
	dependencies, _, _, _ := healthyDependencies()
	var requestedPath string
	dependencies.AppNameReader = func(path string) (string, error) {
		requestedPath = path
		return "", errors.New("fly.toml: app entry is missing")
	}
	service, serviceError := status.NewService(dependencies)
	require.NoError(testInstance, serviceError)

	report := service.Collect(context.Background(), status.Options{WorkingDirectory: "/src/web", FlyConfigurationPath: "/src/web/deploy/fly.toml"})
	require.Equal(testInstance, "/src/web/deploy/fly.toml", requestedPath)
	require.Equal(testInstance, status.SectionStateFailed, report.Sections[1].State)
	require.ErrorContains(testInstance, report.Sections[1].Err, "app entry is missing")
}

func TestNewServiceRequiresClients(testInstance *testing.T) {
	_, serviceError := status.NewService(status.Dependencies{})
	require.ErrorContains(testInstance, serviceError, "github client not configured")
}

func TestIssueReferenceFromBranch(testInstance *testing.T) {
	testCases := []struct {
		branch   string
		expected string
	}{
		{branch: "feature/eng-42-login", expected: "ENG-42"},
		{branch: "ENG-7", expected: "ENG-7"},
		{branch: "ada/ops-118", expected: "OPS-118"},
		{branch: "main", expected: ""},
		{branch: "release-2024", expected: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.branch, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, status.IssueReferenceFromBranch(testCase.branch))
		})
	}
}
