package supabasecli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	configurationDirectoryNameConstant     = "supabase"
	configurationFileNameConstant          = "config.toml"
	configurationReadErrorTemplateConstant = "unable to read %s: %w"
	projectIDMissingErrorTemplateConstant  = "%s: %w"
	projectIDMissingErrorMessageConstant   = "supabase/config.toml does not declare a project_id"
)

// ErrProjectIDMissing indicates config.toml exists but has no project_id.
var ErrProjectIDMissing = errors.New(projectIDMissingErrorMessageConstant)

type projectConfiguration struct {
	ProjectID string `toml:"project_id"`
}

// ReadProjectID returns the project_id from supabase/config.toml. The path may
// name the file, the supabase directory, or the project root containing it.
func ReadProjectID(configurationPath string) (string, error) {
	filePath := resolveConfigurationPath(configurationPath)

	var configuration projectConfiguration
	if _, decodeError := toml.DecodeFile(filePath, &configuration); decodeError != nil {
		return "", fmt.Errorf(configurationReadErrorTemplateConstant, filePath, decodeError)
	}

	projectID := strings.TrimSpace(configuration.ProjectID)
	if len(projectID) == 0 {
		return "", fmt.Errorf(projectIDMissingErrorTemplateConstant, filePath, ErrProjectIDMissing)
	}
	return projectID, nil
}

func resolveConfigurationPath(configurationPath string) string {
	trimmedPath := strings.TrimSpace(configurationPath)
	if len(trimmedPath) == 0 {
		trimmedPath = "."
	}
	if !isDirectory(trimmedPath) {
		return trimmedPath
	}
	nestedDirectory := filepath.Join(trimmedPath, configurationDirectoryNameConstant)
	if isDirectory(nestedDirectory) {
		return filepath.Join(nestedDirectory, configurationFileNameConstant)
	}
	return filepath.Join(trimmedPath, configurationFileNameConstant)
}

func isDirectory(path string) bool {
	info, statError := os.Stat(path)
	return statError == nil && info.IsDir()
}
