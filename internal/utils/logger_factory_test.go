package utils_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dovetail-dev/dovetail/internal/utils"
)

const (
	testLoggerFactoryCaseSupportedFormatConstant   = "supported_log_level_%s_format_%s"
	testLoggerFactoryCaseUnsupportedLevelConstant  = "unsupported_log_level"
	testLoggerFactoryCaseUnsupportedFormatConstant = "unsupported_log_format"
	testLoggerFactorySubtestTemplateConstant       = "%d_%s"
	testInvalidLogLevelConstant                    = "invalid"
	testInvalidLogFormatConstant                   = "invalid"
	testLogMessageConstant                         = "logger_factory_test_message"
)

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name                string
		requestedLogLevel   utils.LogLevel
		requestedLogFormat  utils.LogFormat
		expectError         bool
		expectStructuredLog bool
	}{
		{
			name:                fmt.Sprintf(testLoggerFactoryCaseSupportedFormatConstant, utils.LogLevelDebug, utils.LogFormatStructured),
			requestedLogLevel:   utils.LogLevelDebug,
			requestedLogFormat:  utils.LogFormatStructured,
			expectStructuredLog: true,
		},
		{
			name:                fmt.Sprintf(testLoggerFactoryCaseSupportedFormatConstant, utils.LogLevelInfo, utils.LogFormatStructured),
			requestedLogLevel:   utils.LogLevelInfo,
			requestedLogFormat:  utils.LogFormatStructured,
			expectStructuredLog: true,
		},
		{
			name:               fmt.Sprintf(testLoggerFactoryCaseSupportedFormatConstant, utils.LogLevelInfo, utils.LogFormatConsole),
			requestedLogLevel:  utils.LogLevelInfo,
			requestedLogFormat: utils.LogFormatConsole,
		},
		{
			name:               testLoggerFactoryCaseUnsupportedLevelConstant,
			requestedLogLevel:  utils.LogLevel(testInvalidLogLevelConstant),
			requestedLogFormat: utils.LogFormatStructured,
			expectError:        true,
		},
		{
			name:               testLoggerFactoryCaseUnsupportedFormatConstant,
			requestedLogLevel:  utils.LogLevelInfo,
			requestedLogFormat: utils.LogFormat(testInvalidLogFormatConstant),
			expectError:        true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testLoggerFactorySubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			outputBuffer := &bytes.Buffer{}
			loggerFactory := utils.NewLoggerFactory(outputBuffer)

			logger, creationError := loggerFactory.CreateLogger(testCase.requestedLogLevel, testCase.requestedLogFormat)
			if testCase.expectError {
				require.Error(testInstance, creationError)
				require.Nil(testInstance, logger)
				return
			}
			require.NoError(testInstance, creationError)

			logger.Info(testLogMessageConstant)
			require.NoError(testInstance, logger.Sync())

			output := strings.TrimSpace(outputBuffer.String())
			require.Contains(testInstance, output, testLogMessageConstant)
			if testCase.expectStructuredLog {
				var payload map[string]any
				require.NoError(testInstance, json.Unmarshal([]byte(output), &payload))
				require.Equal(testInstance, testLogMessageConstant, payload["message"])
				require.Equal(testInstance, "info", payload["level"])
				return
			}
			require.Contains(testInstance, output, "INFO")
		})
	}
}

func TestLoggerFactoryHonorsLevel(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	logger, creationError := utils.NewLoggerFactory(outputBuffer).CreateLogger(utils.LogLevelWarn, utils.LogFormatStructured)
	require.NoError(testInstance, creationError)

	logger.Info(testLogMessageConstant)
	require.Empty(testInstance, outputBuffer.String())
}

func TestLoggerFactoryCreateConsoleLogger(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	logger, creationError := utils.NewLoggerFactory(outputBuffer).CreateConsoleLogger(utils.LogLevelInfo)
	require.NoError(testInstance, creationError)

	logger.Info("Running gh pr list")
	require.Equal(testInstance, "Running gh pr list\n", outputBuffer.String())

	_, invalidError := utils.NewLoggerFactory(outputBuffer).CreateConsoleLogger(utils.LogLevel(testInvalidLogLevelConstant))
	require.Error(testInstance, invalidError)
}

func TestParseLogLevelAndFormat(testInstance *testing.T) {
	level, levelError := utils.ParseLogLevel(" DEBUG ")
	require.NoError(testInstance, levelError)
	require.Equal(testInstance, utils.LogLevelDebug, level)

	_, invalidLevelError := utils.ParseLogLevel("verbose")
	require.Error(testInstance, invalidLevelError)

	format, formatError := utils.ParseLogFormat("Console")
	require.NoError(testInstance, formatError)
	require.Equal(testInstance, utils.LogFormatConsole, format)

	_, invalidFormatError := utils.ParseLogFormat("xml")
	require.Error(testInstance, invalidFormatError)
}
