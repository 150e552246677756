package qualitygate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"

	"github.com/dovetail-dev/dovetail/internal/execshell"
)

const (
	configuredSourceConstant              = "configuration"
	goModuleFileConstant                  = "go.mod"
	packageManifestFileConstant           = "package.json"
	cargoManifestFileConstant             = "Cargo.toml"
	pyprojectFileConstant                 = "pyproject.toml"
	pytestConfigurationFileConstant       = "pytest.ini"
	npmPlaceholderTestScriptConstant      = "no test specified"
	commandParseErrorTemplateConstant     = "unable to parse quality gate command %q: %w"
	manifestReadErrorTemplateConstant     = "unable to read %s: %w"
	emptyConfiguredCommandMessageConstant = "quality gate command is empty"
	noStrategyMessageConstant             = "no test suite detected"
)

// ErrNoStrategy indicates that no test command was configured or detected.
var ErrNoStrategy = errors.New(noStrategyMessageConstant)

// Strategy is the test command chosen for a project directory.
type Strategy struct {
	// Source is the project file that selected the strategy, or "configuration".
	Source     string
	Command    execshell.CommandName
	Arguments  []string
	InstallURL string
}

// String renders the command line.
func (strategy Strategy) String() string {
	return strings.Join(append([]string{string(strategy.Command)}, strategy.Arguments...), " ")
}

// Profile returns the gateway profile for the strategy's runner.
func (strategy Strategy) Profile() execshell.ToolProfile {
	profile := execshell.GenericProfile(strategy.Command)
	profile.InstallURL = strategy.InstallURL
	profile.DefaultTimeout = DefaultTimeout
	return profile
}

type detectionRule struct {
	manifest string
	strategy Strategy
	accepts  func(contents []byte) (bool, error)
}

var detectionRules = []detectionRule{
	{
		manifest: goModuleFileConstant,
		strategy: Strategy{Command: "go", Arguments: []string{"test", "./..."}, InstallURL: "https://go.dev/dl/"},
	},
	{
		manifest: packageManifestFileConstant,
		strategy: Strategy{Command: "npm", Arguments: []string{"test"}, InstallURL: "https://nodejs.org/en/download"},
		accepts:  declaresTestScript,
	},
	{
		manifest: cargoManifestFileConstant,
		strategy: Strategy{Command: "cargo", Arguments: []string{"test"}, InstallURL: "https://rustup.rs"},
	},
	{
		manifest: pyprojectFileConstant,
		strategy: Strategy{Command: "pytest", InstallURL: "https://docs.pytest.org/en/stable/getting-started.html"},
	},
	{
		manifest: pytestConfigurationFileConstant,
		strategy: Strategy{Command: "pytest", InstallURL: "https://docs.pytest.org/en/stable/getting-started.html"},
	},
}

// Detector chooses a Strategy for a project directory.
type Detector struct {
	readFile func(path string) ([]byte, error)
}

// NewDetector constructs a detector reading from the local filesystem.
func NewDetector() Detector {
	return Detector{readFile: os.ReadFile}
}

// NewDetectorWithReader constructs a detector using readFile for manifests.
func NewDetectorWithReader(readFile func(path string) ([]byte, error)) Detector {
	return Detector{readFile: readFile}
}

// Select returns the configured command when one is set; otherwise the first
// project manifest found in workingDirectory decides.
func (detector Detector) Select(workingDirectory string, configuredCommand string) (Strategy, error) {
	if len(strings.TrimSpace(configuredCommand)) > 0 {
		return parseConfiguredCommand(configuredCommand)
	}

	readFile := detector.readFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	for _, rule := range detectionRules {
		manifestPath := filepath.Join(workingDirectory, rule.manifest)
		contents, readError := readFile(manifestPath)
		if readError != nil {
			if errors.Is(readError, fs.ErrNotExist) {
				continue
			}
			return Strategy{}, fmt.Errorf(manifestReadErrorTemplateConstant, rule.manifest, readError)
		}
		if rule.accepts != nil {
			accepted, acceptError := rule.accepts(contents)
			if acceptError != nil {
				return Strategy{}, acceptError
			}
			if !accepted {
				continue
			}
		}
		strategy := rule.strategy
		strategy.Source = rule.manifest
		strategy.Arguments = append([]string(nil), rule.strategy.Arguments...)
		return strategy, nil
	}

	return Strategy{}, ErrNoStrategy
}

func parseConfiguredCommand(configuredCommand string) (Strategy, error) {
	fields, splitError := shlex.Split(configuredCommand)
	if splitError != nil {
		return Strategy{}, fmt.Errorf(commandParseErrorTemplateConstant, configuredCommand, splitError)
	}
	if len(fields) == 0 {
		return Strategy{}, errors.New(emptyConfiguredCommandMessageConstant)
	}
	return Strategy{
		Source:    configuredSourceConstant,
		Command:   execshell.CommandName(fields[0]),
		Arguments: fields[1:],
	}, nil
}

func declaresTestScript(contents []byte) (bool, error) {
	var manifest struct {
		Scripts map[string]string `json:"scripts"`
	}
	if decodeError := json.Unmarshal(contents, &manifest); decodeError != nil {
		return false, fmt.Errorf(manifestReadErrorTemplateConstant, packageManifestFileConstant, decodeError)
	}
	testScript := strings.TrimSpace(manifest.Scripts["test"])
	return len(testScript) > 0 && !strings.Contains(testScript, npmPlaceholderTestScriptConstant), nil
}
