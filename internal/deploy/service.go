package deploy

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dovetail-dev/dovetail/internal/flycli"
	"github.com/dovetail-dev/dovetail/internal/qualitygate"
	"github.com/dovetail-dev/dovetail/internal/supabasecli"
)

const (
	deployerMissingMessageConstant    = "deploy requires a Fly.io client"
	qualityGateMissingMessageConstant = "deploy requires a quality gate when the gate is enabled"
	migrationsMissingMessageConstant  = "deploy requires a Supabase client when migrations are enabled"
	stepStartedMessageConstant        = "deploy step started"
	stepFinishedMessageConstant       = "deploy step finished"
	logFieldStepConstant              = "step"
	logFieldStatusConstant            = "status"
	logFieldDurationConstant          = "duration"
	disabledDetailConstant            = "disabled"
	lineSeparatorConstant             = "\n"
)

// Step names in execution order.
const (
	StepQualityGate = "quality gate"
	StepMigrations  = "migrations"
	StepDeploy      = "deploy"
)

// StepStatus enumerates step outcomes.
type StepStatus string

// Step statuses.
const (
	StepStatusPassed  StepStatus = StepStatus("passed")
	StepStatusSkipped StepStatus = StepStatus("skipped")
	StepStatusFailed  StepStatus = StepStatus("failed")
)

// ErrDeployerNotConfigured indicates the service was constructed without a Fly.io client.
var ErrDeployerNotConfigured = errors.New(deployerMissingMessageConstant)

// QualityGate runs the project test suite.
type QualityGate interface {
	Run(executionContext context.Context, options qualitygate.Options) (qualitygate.Report, error)
}

// MigrationPusher applies Supabase migrations.
type MigrationPusher interface {
	PushMigrations(executionContext context.Context, options supabasecli.PushOptions) (string, error)
}

// Deployer deploys a Fly.io app.
type Deployer interface {
	Deploy(executionContext context.Context, options flycli.DeployOptions) (string, error)
}

// StepResult records the outcome of one step.
type StepResult struct {
	Name     string
	Status   StepStatus
	Detail   string
	Duration time.Duration
	Err      error
}

// Result lists the steps that were considered, in order. Steps after a
// failure are absent.
type Result struct {
	Steps []StepResult
}

// Options configures one deployment.
type Options struct {
	WorkingDirectory   string
	QualityGate        bool
	QualityGateCommand string
	QualityGateTimeout time.Duration
	Migrate            bool
	Migrations         supabasecli.PushOptions
	Deploy             flycli.DeployOptions
}

// Dependencies wires the collaborators used by Service. QualityGate and
// Migrations may be nil when the corresponding steps are never enabled.
type Dependencies struct {
	QualityGate QualityGate
	Migrations  MigrationPusher
	Deployer    Deployer
	Logger      *zap.Logger
	Clock       func() time.Time
}

// Service runs the deployment sequence.
type Service struct {
	qualityGate QualityGate
	migrations  MigrationPusher
	deployer    Deployer
	logger      *zap.Logger
	clock       func() time.Time
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Deployer == nil {
		return nil, ErrDeployerNotConfigured
	}
	service := &Service{
		qualityGate: dependencies.QualityGate,
		migrations:  dependencies.Migrations,
		deployer:    dependencies.Deployer,
		logger:      dependencies.Logger,
		clock:       dependencies.Clock,
	}
	if service.logger == nil {
		service.logger = zap.NewNop()
	}
	if service.clock == nil {
		service.clock = time.Now
	}
	return service, nil
}

// Run executes the enabled steps sequentially. The first failing step ends
// the run and its error is returned unchanged, so a failing quality gate
// stays an outcome.BlockedError and vendor failures keep their classification.
func (service *Service) Run(executionContext context.Context, options Options) (Result, error) {
	var result Result

	qualityGateStep := func(stepContext context.Context) (string, error) {
		if service.qualityGate == nil {
			return "", errors.New(qualityGateMissingMessageConstant)
		}
		report, gateError := service.qualityGate.Run(stepContext, qualitygate.Options{
			WorkingDirectory: options.WorkingDirectory,
			Command:          options.QualityGateCommand,
			Timeout:          options.QualityGateTimeout,
		})
		return report.Strategy.String(), gateError
	}
	migrationsStep := func(stepContext context.Context) (string, error) {
		if service.migrations == nil {
			return "", errors.New(migrationsMissingMessageConstant)
		}
		output, pushError := service.migrations.PushMigrations(stepContext, options.Migrations)
		return lastLine(output), pushError
	}
	deployStep := func(stepContext context.Context) (string, error) {
		output, deployError := service.deployer.Deploy(stepContext, options.Deploy)
		return lastLine(output), deployError
	}

	steps := []struct {
		name    string
		enabled bool
		run     func(context.Context) (string, error)
	}{
		{name: StepQualityGate, enabled: options.QualityGate, run: qualityGateStep},
		{name: StepMigrations, enabled: options.Migrate, run: migrationsStep},
		{name: StepDeploy, enabled: true, run: deployStep},
	}

	for _, step := range steps {
		if !step.enabled {
			result.Steps = append(result.Steps, StepResult{Name: step.name, Status: StepStatusSkipped, Detail: disabledDetailConstant})
			continue
		}
		if contextError := executionContext.Err(); contextError != nil {
			return result, contextError
		}

		service.logger.Info(stepStartedMessageConstant, zap.String(logFieldStepConstant, step.name))
		startedAt := service.clock()
		detail, stepError := step.run(executionContext)
		stepResult := StepResult{Name: step.name, Status: StepStatusPassed, Detail: detail, Duration: service.clock().Sub(startedAt)}
		if stepError != nil {
			stepResult.Status = StepStatusFailed
			stepResult.Err = stepError
		}
		service.logger.Info(stepFinishedMessageConstant,
			zap.String(logFieldStepConstant, step.name),
			zap.String(logFieldStatusConstant, string(stepResult.Status)),
			zap.Duration(logFieldDurationConstant, stepResult.Duration),
		)

		result.Steps = append(result.Steps, stepResult)
		if stepError != nil {
			return result, stepError
		}
	}
	return result, nil
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), lineSeparatorConstant)
	return strings.TrimSpace(lines[len(lines)-1])
}
