package flycli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	configurationFileNameConstant          = "fly.toml"
	configurationReadErrorTemplateConstant = "unable to read %s: %w"
	appNameMissingErrorTemplateConstant    = "%s: %w"
	appNameMissingErrorMessageConstant     = "fly.toml does not declare an app name"
)

// ErrAppNameMissing indicates fly.toml exists but has no app entry.
var ErrAppNameMissing = errors.New(appNameMissingErrorMessageConstant)

type appConfiguration struct {
	App string `toml:"app"`
}

// ReadAppName returns the app declared in fly.toml. The path may name the
// file itself or the directory containing it.
func ReadAppName(configurationPath string) (string, error) {
	filePath := resolveConfigurationPath(configurationPath)

	var configuration appConfiguration
	if _, decodeError := toml.DecodeFile(filePath, &configuration); decodeError != nil {
		return "", fmt.Errorf(configurationReadErrorTemplateConstant, filePath, decodeError)
	}

	appName := strings.TrimSpace(configuration.App)
	if len(appName) == 0 {
		return "", fmt.Errorf(appNameMissingErrorTemplateConstant, filePath, ErrAppNameMissing)
	}
	return appName, nil
}

func resolveConfigurationPath(configurationPath string) string {
	trimmedPath := strings.TrimSpace(configurationPath)
	if len(trimmedPath) == 0 {
		return configurationFileNameConstant
	}
	if info, statError := os.Stat(trimmedPath); statError == nil && info.IsDir() {
		return filepath.Join(trimmedPath, configurationFileNameConstant)
	}
	return trimmedPath
}
