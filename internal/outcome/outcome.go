package outcome

import (
	"errors"
	"fmt"

	"github.com/dovetail-dev/dovetail/internal/execshell"
)

const (
	blockedMessageTemplateConstant          = "blocked: %s"
	blockedWithCauseMessageTemplateConstant = "blocked: %s: %s"
	configurationMessageTemplateConstant    = "configuration error: %s"
)

// ExitCode values reported to the host shell.
const (
	ExitCodeSuccess       = 0
	ExitCodeFailure       = 1
	ExitCodeConfiguration = 2
	ExitCodeBlocked       = 3
	ExitCodeTimeout       = 124
	ExitCodeNotInstalled  = 127
)

// BlockedError reports a workflow step that refused to proceed, such as a
// failing quality gate.
type BlockedError struct {
	Reason string
	Cause  error
}

// Error describes the blocking condition.
func (blocked BlockedError) Error() string {
	if blocked.Cause == nil {
		return fmt.Sprintf(blockedMessageTemplateConstant, blocked.Reason)
	}
	return fmt.Sprintf(blockedWithCauseMessageTemplateConstant, blocked.Reason, blocked.Cause)
}

// Unwrap exposes the underlying cause.
func (blocked BlockedError) Unwrap() error {
	return blocked.Cause
}

// Blocked constructs a BlockedError.
func Blocked(reason string, cause error) error {
	return BlockedError{Reason: reason, Cause: cause}
}

// ConfigurationError reports invalid flags, configuration files or values.
type ConfigurationError struct {
	Cause error
}

// Error describes the configuration problem.
func (configurationError ConfigurationError) Error() string {
	return fmt.Sprintf(configurationMessageTemplateConstant, configurationError.Cause)
}

// Unwrap exposes the underlying cause.
func (configurationError ConfigurationError) Unwrap() error {
	return configurationError.Cause
}

// Configuration wraps err as a ConfigurationError. A nil error stays nil.
func Configuration(err error) error {
	if err == nil {
		return nil
	}
	var existing ConfigurationError
	if errors.As(err, &existing) {
		return err
	}
	return ConfigurationError{Cause: err}
}

// ExitCode maps an error returned by a command to the process exit status.
// Blocked and configuration outcomes take precedence over the classified
// gateway failure they may wrap.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var blocked BlockedError
	if errors.As(err, &blocked) {
		return ExitCodeBlocked
	}
	var configurationError ConfigurationError
	if errors.As(err, &configurationError) {
		return ExitCodeConfiguration
	}

	switch execshell.KindOf(err) {
	case execshell.ErrorKindNotInstalled:
		return ExitCodeNotInstalled
	case execshell.ErrorKindTimeout:
		return ExitCodeTimeout
	default:
		return ExitCodeFailure
	}
}

// ReportedError marks a failure the command has already rendered to its
// output. The exit code still follows the wrapped cause.
type ReportedError struct {
	Cause error
}

// Error returns the cause's message.
func (reported ReportedError) Error() string {
	return reported.Cause.Error()
}

// Unwrap exposes the underlying cause.
func (reported ReportedError) Unwrap() error {
	return reported.Cause
}

// Reported wraps err as a ReportedError. A nil error stays nil.
func Reported(err error) error {
	if err == nil {
		return nil
	}
	return ReportedError{Cause: err}
}

// IsReported reports whether err has already been rendered.
func IsReported(err error) bool {
	var reported ReportedError
	return errors.As(err, &reported)
}
