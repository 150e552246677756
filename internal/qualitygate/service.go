package qualitygate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dovetail-dev/dovetail/internal/execshell"
	"github.com/dovetail-dev/dovetail/internal/outcome"
)

const (
	executorNotConfiguredMessageConstant = "quality gate executor not configured"
	blockedReasonTemplateConstant        = "quality gate failed (%s)"
	noStrategyReasonConstant             = "quality gate has no test command; set tools.quality_gate.command or skip the gate"
	strategySelectedMessageConstant      = "quality gate selected"
	strategyPassedMessageConstant        = "quality gate passed"
	logFieldCommandConstant              = "command"
	logFieldSourceConstant               = "source"
	logFieldDurationConstant             = "duration"
)

// DefaultTimeout bounds the test command when no timeout is configured.
const DefaultTimeout = 10 * time.Minute

// ErrExecutorNotConfigured indicates the service was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// CommandExecutor is the gateway surface the quality gate needs.
type CommandExecutor interface {
	Execute(executionContext context.Context, profile execshell.ToolProfile, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Configuration holds quality gate settings.
type Configuration struct {
	Command string        `mapstructure:"command"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfigurationValues returns the defaults registered with viper under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	return map[string]any{
		prefix + ".command": "",
		prefix + ".timeout": DefaultTimeout.String(),
	}
}

// Options configures one quality gate run.
type Options struct {
	WorkingDirectory string
	Command          string
	Timeout          time.Duration
}

// Report summarizes a passing run.
type Report struct {
	Strategy Strategy
	Result   execshell.ExecutionResult
	Duration time.Duration
}

// Dependencies wires the collaborators required by Service.
type Dependencies struct {
	Executor CommandExecutor
	Detector Detector
	Logger   *zap.Logger
	Clock    func() time.Time
}

// Service runs the selected test command through the gateway.
type Service struct {
	executor CommandExecutor
	detector Detector
	logger   *zap.Logger
	clock    func() time.Time
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	service := &Service{
		executor: dependencies.Executor,
		detector: dependencies.Detector,
		logger:   dependencies.Logger,
		clock:    dependencies.Clock,
	}
	if service.detector.readFile == nil {
		service.detector = NewDetector()
	}
	if service.logger == nil {
		service.logger = zap.NewNop()
	}
	if service.clock == nil {
		service.clock = time.Now
	}
	return service, nil
}

// Run selects and executes the test command. A failing suite and a project
// without a detectable suite yield outcome.BlockedError. A missing runner or
// a timeout surfaces the gateway's classified error unchanged.
func (service *Service) Run(executionContext context.Context, options Options) (Report, error) {
	strategy, selectionError := service.detector.Select(options.WorkingDirectory, options.Command)
	if selectionError != nil {
		if errors.Is(selectionError, ErrNoStrategy) {
			return Report{}, outcome.Blocked(noStrategyReasonConstant, selectionError)
		}
		if len(strings.TrimSpace(options.Command)) > 0 {
			return Report{}, outcome.Configuration(selectionError)
		}
		return Report{}, selectionError
	}

	service.logger.Info(strategySelectedMessageConstant,
		zap.String(logFieldCommandConstant, strategy.String()),
		zap.String(logFieldSourceConstant, strategy.Source),
	)

	startedAt := service.clock()
	result, executionError := service.executor.Execute(executionContext, strategy.Profile(), execshell.CommandDetails{
		Arguments:        strategy.Arguments,
		WorkingDirectory: options.WorkingDirectory,
		Timeout:          options.Timeout,
	})
	duration := service.clock().Sub(startedAt)
	report := Report{Strategy: strategy, Result: result, Duration: duration}

	if executionError != nil {
		switch execshell.KindOf(executionError) {
		case execshell.ErrorKindNotInstalled, execshell.ErrorKindTimeout:
			return report, executionError
		default:
			return report, outcome.Blocked(fmt.Sprintf(blockedReasonTemplateConstant, strategy.String()), executionError)
		}
	}

	service.logger.Info(strategyPassedMessageConstant,
		zap.String(logFieldCommandConstant, strategy.String()),
		zap.Duration(logFieldDurationConstant, duration),
	)
	return report, nil
}
