package doctor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/execshell"
	"github.com/dovetail-dev/dovetail/internal/outcome"
	"github.com/dovetail-dev/dovetail/internal/vendorcli"
)

const (
	versionFlagConstant                          = "--version"
	versionOperationNameConstant                 = vendorcli.OperationName("Version")
	invalidConstraintTemplateConstant            = "invalid version constraint %q for %s: %w"
	constraintUnsatisfiedSummaryTemplateConstant = "%s %s does not satisfy %s."
	constraintUnsatisfiedRemediationConstant     = "Upgrade {tool}: {install_url}"
	unparsableVersionSummaryTemplateConstant     = "Unable to read the %s version from %q."
	unhealthyMessageConstant                     = "doctor found failing checks"
	probeStartedMessageConstant                  = "probing vendor cli"
	probeFinishedMessageConstant                 = "vendor cli probed"
	logFieldVendorConstant                       = "vendor"
	logFieldStatusConstant                       = "status"
	versionMismatchKindConstant                  = "version_mismatch"
	unreadableVersionKindConstant                = "unreadable_version"
)

// ErrUnhealthy reports that at least one probe ended in StatusError.
var ErrUnhealthy = errors.New(unhealthyMessageConstant)

var versionExpression = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z.-]+)?)`)

// Status grades a probe.
type Status string

// Probe status enumerations.
const (
	StatusOK      Status = Status("ok")
	StatusWarning Status = Status("warning")
	StatusError   Status = Status("error")
)

// Failure describes why a probe did not pass.
type Failure struct {
	Kind        string `yaml:"kind"`
	Summary     string `yaml:"summary"`
	Detail      string `yaml:"detail,omitempty"`
	Remediation string `yaml:"remediation,omitempty"`
}

// ToolReport is the outcome of probing one vendor CLI.
type ToolReport struct {
	Vendor           credentials.Vendor `yaml:"vendor"`
	Command          string             `yaml:"command"`
	Status           Status             `yaml:"status"`
	Installed        bool               `yaml:"installed"`
	Version          string             `yaml:"version,omitempty"`
	Constraint       string             `yaml:"constraint,omitempty"`
	VersionSatisfied bool               `yaml:"version_satisfied"`
	Authenticated    bool               `yaml:"authenticated"`
	Identity         string             `yaml:"identity,omitempty"`
	CredentialOrigin string             `yaml:"credential_origin,omitempty"`
	Failure          *Failure           `yaml:"failure,omitempty"`
}

// Report aggregates the probes of one doctor run.
type Report struct {
	ConfigurationFile string       `yaml:"configuration_file,omitempty"`
	Tools             []ToolReport `yaml:"tools"`
}

// Healthy reports whether no probe ended in StatusError.
func (report Report) Healthy() bool {
	for _, tool := range report.Tools {
		if tool.Status == StatusError {
			return false
		}
	}
	return true
}

// Counts tallies probes by status.
func (report Report) Counts() (passed int, warned int, failed int) {
	for _, tool := range report.Tools {
		switch tool.Status {
		case StatusOK:
			passed++
		case StatusWarning:
			warned++
		default:
			failed++
		}
	}
	return passed, warned, failed
}

// Service runs probes through the gateway.
type Service struct {
	executor vendorcli.CommandExecutor
	logger   *zap.Logger
}

// NewService constructs a doctor service.
func NewService(executor vendorcli.CommandExecutor, logger *zap.Logger) (*Service, error) {
	if executor == nil {
		return nil, vendorcli.ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{executor: executor, logger: logger}, nil
}

// Run validates every constraint and then probes each tool in order. Probe
// failures are recorded in the report; only invalid constraints and context
// cancellation are returned as errors.
func (service *Service) Run(executionContext context.Context, probes []Probe, timeout time.Duration) (Report, error) {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	constraints := make([]*semver.Constraints, len(probes))
	for probeIndex, probe := range probes {
		trimmedConstraint := strings.TrimSpace(probe.Constraint)
		if len(trimmedConstraint) == 0 {
			continue
		}
		constraint, constraintError := semver.NewConstraint(trimmedConstraint)
		if constraintError != nil {
			return Report{}, outcome.Configuration(fmt.Errorf(invalidConstraintTemplateConstant, trimmedConstraint, probe.Profile.Name, constraintError))
		}
		constraints[probeIndex] = constraint
	}

	report := Report{Tools: make([]ToolReport, 0, len(probes))}
	for probeIndex, probe := range probes {
		if contextError := executionContext.Err(); contextError != nil {
			return report, contextError
		}
		service.logger.Debug(probeStartedMessageConstant, zap.String(logFieldVendorConstant, string(probe.Vendor)))
		toolReport := service.probe(executionContext, probe, constraints[probeIndex], timeout)
		service.logger.Info(probeFinishedMessageConstant,
			zap.String(logFieldVendorConstant, string(probe.Vendor)),
			zap.String(logFieldStatusConstant, string(toolReport.Status)),
		)
		report.Tools = append(report.Tools, toolReport)
	}
	return report, nil
}

func (service *Service) probe(executionContext context.Context, probe Probe, constraint *semver.Constraints, timeout time.Duration) ToolReport {
	toolReport := ToolReport{
		Vendor:           probe.Vendor,
		Command:          string(probe.Profile.Name),
		Constraint:       strings.TrimSpace(probe.Constraint),
		CredentialOrigin: probe.Credential.Origin,
	}

	invoker, invokerError := vendorcli.NewInvoker(service.executor, probe.Profile, credentials.Credential{}, "")
	if invokerError != nil {
		return toolReport.failWith(StatusError, invokerError)
	}
	versionResult, versionError := invoker.Run(executionContext, versionOperationNameConstant, vendorcli.Request{
		Arguments: []string{versionFlagConstant},
		Timeout:   timeout,
	})
	if versionError != nil {
		toolReport.Installed = !execshell.IsKind(versionError, execshell.ErrorKindNotInstalled)
		return toolReport.failWith(StatusError, versionError)
	}
	toolReport.Installed = true

	rawVersion := extractVersion(versionResult.CombinedOutput())
	toolReport.Version = rawVersion
	toolReport.VersionSatisfied = constraint == nil
	if constraint != nil {
		parsedVersion, parseError := semver.NewVersion(rawVersion)
		if parseError != nil {
			return toolReport.fail(StatusWarning, Failure{
				Kind:    unreadableVersionKindConstant,
				Summary: fmt.Sprintf(unparsableVersionSummaryTemplateConstant, probe.Profile.Name, strings.TrimSpace(versionResult.StandardOutput)),
			})
		}
		if !constraint.Check(parsedVersion) {
			return toolReport.fail(StatusError, Failure{
				Kind:        versionMismatchKindConstant,
				Summary:     fmt.Sprintf(constraintUnsatisfiedSummaryTemplateConstant, probe.Profile.Name, rawVersion, toolReport.Constraint),
				Remediation: renderInstallHint(probe.Profile),
			})
		}
		toolReport.VersionSatisfied = true
	}

	if probe.Authenticate == nil {
		toolReport.Status = StatusOK
		return toolReport
	}
	identity, authenticationError := probe.Authenticate(executionContext)
	if authenticationError != nil {
		return toolReport.failWith(StatusWarning, authenticationError)
	}
	toolReport.Authenticated = true
	toolReport.Identity = identity
	toolReport.Status = StatusOK
	return toolReport
}

func (report ToolReport) fail(status Status, failure Failure) ToolReport {
	report.Status = status
	report.Failure = &failure
	return report
}

func (report ToolReport) failWith(status Status, failure error) ToolReport {
	var classified execshell.ClassifiedError
	if errors.As(failure, &classified) {
		return report.fail(status, Failure{
			Kind:        string(classified.Kind),
			Summary:     classified.Summary,
			Detail:      strings.TrimSpace(classified.Detail),
			Remediation: strings.TrimSpace(classified.Remediation),
		})
	}
	return report.fail(status, Failure{Kind: string(execshell.KindOf(failure)), Summary: failure.Error()})
}

func extractVersion(output string) string {
	match := versionExpression.FindStringSubmatch(output)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

func renderInstallHint(profile execshell.ToolProfile) string {
	if len(strings.TrimSpace(profile.InstallURL)) == 0 {
		return ""
	}
	return profile.Render(constraintUnsatisfiedRemediationConstant)
}
