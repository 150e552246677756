package doctor

import (
	"context"
	"fmt"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/execshell"
	"github.com/dovetail-dev/dovetail/internal/flycli"
	"github.com/dovetail-dev/dovetail/internal/githubcli"
	"github.com/dovetail-dev/dovetail/internal/linearcli"
	"github.com/dovetail-dev/dovetail/internal/supabasecli"
	"github.com/dovetail-dev/dovetail/internal/vendorcli"
)

const (
	projectCountTemplateConstant = "%d projects visible"
	teamCountTemplateConstant    = "%d teams visible"
)

// ProbedVendors lists the vendors in report order.
var ProbedVendors = []credentials.Vendor{
	credentials.VendorGitHub,
	credentials.VendorFly,
	credentials.VendorSupabase,
	credentials.VendorLinear,
}

// AuthenticationCheck runs a read-only vendor call and describes the identity it observed.
type AuthenticationCheck func(executionContext context.Context) (string, error)

// Probe describes how to check one vendor CLI.
type Probe struct {
	Vendor       credentials.Vendor
	Profile      execshell.ToolProfile
	Constraint   string
	Credential   credentials.Credential
	Authenticate AuthenticationCheck
}

// BuildProbes assembles the probes for every vendor. Authentication checks go
// through the typed vendor clients with the resolved credentials injected.
func BuildProbes(executor vendorcli.CommandExecutor, resolvedCredentials map[credentials.Vendor]credentials.Credential, configuration Configuration, workingDirectory string) ([]Probe, error) {
	if executor == nil {
		return nil, vendorcli.ErrExecutorNotConfigured
	}
	bounded := vendorcli.WithDefaultTimeout(executor, configuration.ProbeTimeout())

	githubClient, githubError := githubcli.NewClient(bounded, resolvedCredentials[credentials.VendorGitHub], workingDirectory)
	if githubError != nil {
		return nil, githubError
	}
	flyClient, flyError := flycli.NewClient(bounded, resolvedCredentials[credentials.VendorFly], workingDirectory)
	if flyError != nil {
		return nil, flyError
	}
	supabaseClient, supabaseError := supabasecli.NewClient(bounded, resolvedCredentials[credentials.VendorSupabase], workingDirectory)
	if supabaseError != nil {
		return nil, supabaseError
	}
	linearClient, linearError := linearcli.NewClient(bounded, resolvedCredentials[credentials.VendorLinear], workingDirectory)
	if linearError != nil {
		return nil, linearError
	}

	authenticateGitHub := func(executionContext context.Context) (string, error) {
		status, statusError := githubClient.AuthStatus(executionContext, "")
		return status.Account, statusError
	}
	authenticateSupabase := func(executionContext context.Context) (string, error) {
		projects, listError := supabaseClient.ListProjects(executionContext)
		if listError != nil {
			return "", listError
		}
		return fmt.Sprintf(projectCountTemplateConstant, len(projects)), nil
	}
	authenticateLinear := func(executionContext context.Context) (string, error) {
		teams, listError := linearClient.ListTeams(executionContext)
		if listError != nil {
			return "", listError
		}
		return fmt.Sprintf(teamCountTemplateConstant, len(teams)), nil
	}

	newProbe := func(vendor credentials.Vendor, profile execshell.ToolProfile, authenticate AuthenticationCheck) Probe {
		return Probe{
			Vendor:       vendor,
			Profile:      profile,
			Constraint:   configuration.For(vendor).Constraint,
			Credential:   resolvedCredentials[vendor],
			Authenticate: authenticate,
		}
	}

	probes := []Probe{
		newProbe(credentials.VendorGitHub, githubcli.Profile(), authenticateGitHub),
		newProbe(credentials.VendorFly, flycli.Profile(), flyClient.Whoami),
		newProbe(credentials.VendorSupabase, supabasecli.Profile(), authenticateSupabase),
		newProbe(credentials.VendorLinear, linearcli.Profile(), authenticateLinear),
	}
	return probes, nil
}
