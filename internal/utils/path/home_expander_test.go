package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/dovetail-dev/dovetail/internal/utils/path"
)

func TestHomeExpanderExpand(testInstance *testing.T) {
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) { return "/home/tester", nil })

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "tilde_only", input: "~", expected: "/home/tester"},
		{name: "tilde_path", input: "~/.config/dovetail/token", expected: filepath.Join("/home/tester", ".config/dovetail/token")},
		{name: "absolute_path", input: "/etc/dovetail", expected: "/etc/dovetail"},
		{name: "other_user", input: "~other/token", expected: "~other/token"},
		{name: "empty", input: "", expected: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, expander.Expand(testCase.input))
		})
	}
}

func TestHomeExpanderLeavesPathWhenHomeUnavailable(testInstance *testing.T) {
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) { return "", errors.New("no home") })
	require.Equal(testInstance, "~/token", expander.Expand("~/token"))
}
