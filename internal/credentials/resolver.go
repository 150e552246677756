package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	pathutils "github.com/dovetail-dev/dovetail/internal/utils/path"
)

const (
	fileReadErrorTemplateConstant     = "unable to read token file %s: %w"
	keyringReadErrorTemplateConstant  = "unable to read keyring entry %s: %w"
	explicitOriginConstant            = "configuration"
	environmentOriginTemplateConstant = "environment variable %s"
)

// Vendor identifies the service a credential belongs to.
type Vendor string

// Supported vendors.
const (
	VendorGitHub   Vendor = Vendor("github")
	VendorFly      Vendor = Vendor("fly")
	VendorSupabase Vendor = Vendor("supabase")
	VendorLinear   Vendor = Vendor("linear")
)

// Environment variable names consumed by the vendor CLIs.
const (
	EnvGitHubCLIToken      = "GH_TOKEN"
	EnvGitHubToken         = "GITHUB_TOKEN"
	EnvGitHubAPIToken      = "GITHUB_API_TOKEN"
	EnvFlyAPIToken         = "FLY_API_TOKEN"
	EnvFlyAccessToken      = "FLY_ACCESS_TOKEN"
	EnvSupabaseAccessToken = "SUPABASE_ACCESS_TOKEN"
	EnvLinearAPIToken      = "LINEAR_API_TOKEN"
)

// Spec describes how to resolve one vendor credential.
type Spec struct {
	Vendor Vendor
	// Explicit wins over every other source when non-empty.
	Explicit string
	Sources  []Source
	// EnvironmentFallbacks are consulted last, in order.
	EnvironmentFallbacks []string
	// TargetVariable is the variable the vendor CLI reads the token from.
	TargetVariable string
}

// Credential is a resolved token and where it came from.
type Credential struct {
	Vendor         Vendor
	Value          string
	Origin         string
	TargetVariable string
}

// Found reports whether a token was resolved.
func (credential Credential) Found() bool {
	return len(credential.Value) > 0
}

// Environment returns the variables to inject into the vendor CLI process.
// An unresolved credential yields nil so the CLI falls back to its own login state.
func (credential Credential) Environment() map[string]string {
	if !credential.Found() || len(credential.TargetVariable) == 0 {
		return nil
	}
	return map[string]string{credential.TargetVariable: credential.Value}
}

// DefaultSpec returns the environment conventions of each vendor CLI.
func DefaultSpec(vendor Vendor) Spec {
	switch vendor {
	case VendorGitHub:
		return Spec{Vendor: vendor, TargetVariable: EnvGitHubCLIToken, EnvironmentFallbacks: []string{EnvGitHubCLIToken, EnvGitHubToken, EnvGitHubAPIToken}}
	case VendorFly:
		return Spec{Vendor: vendor, TargetVariable: EnvFlyAPIToken, EnvironmentFallbacks: []string{EnvFlyAPIToken, EnvFlyAccessToken}}
	case VendorSupabase:
		return Spec{Vendor: vendor, TargetVariable: EnvSupabaseAccessToken, EnvironmentFallbacks: []string{EnvSupabaseAccessToken}}
	case VendorLinear:
		return Spec{Vendor: vendor, TargetVariable: EnvLinearAPIToken, EnvironmentFallbacks: []string{EnvLinearAPIToken}}
	default:
		return Spec{Vendor: vendor}
	}
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// FileReader reads the contents of a file path.
type FileReader func(path string) ([]byte, error)

// KeyringReader reads a secret from the operating system keyring.
type KeyringReader func(service string, account string) (string, error)

// Resolver retrieves credentials.
type Resolver interface {
	Resolve(resolutionContext context.Context, spec Spec) (Credential, error)
}

// Dependencies overrides the lookups used by the resolver; nil members use the operating system.
type Dependencies struct {
	EnvironmentLookup EnvironmentLookup
	FileReader        FileReader
	KeyringReader     KeyringReader
	HomeExpander      *pathutils.HomeExpander
}

type resolver struct {
	environmentLookup EnvironmentLookup
	fileReader        FileReader
	keyringReader     KeyringReader
	homeExpander      *pathutils.HomeExpander
}

// NewResolver creates a resolver with optional dependency overrides.
func NewResolver(dependencies Dependencies) Resolver {
	resolved := &resolver{
		environmentLookup: dependencies.EnvironmentLookup,
		fileReader:        dependencies.FileReader,
		keyringReader:     dependencies.KeyringReader,
		homeExpander:      dependencies.HomeExpander,
	}
	if resolved.environmentLookup == nil {
		resolved.environmentLookup = os.LookupEnv
	}
	if resolved.fileReader == nil {
		resolved.fileReader = os.ReadFile
	}
	if resolved.keyringReader == nil {
		resolved.keyringReader = keyring.Get
	}
	if resolved.homeExpander == nil {
		resolved.homeExpander = pathutils.NewHomeExpander()
	}
	return resolved
}

// Resolve walks the explicit value, the configured sources, and the environment
// fallbacks in that order. Absent entries are skipped; an unresolved credential
// is not an error.
func (resolver *resolver) Resolve(resolutionContext context.Context, spec Spec) (Credential, error) {
	credential := Credential{Vendor: spec.Vendor, TargetVariable: spec.TargetVariable}

	if explicitValue := strings.TrimSpace(spec.Explicit); len(explicitValue) > 0 {
		credential.Value = explicitValue
		credential.Origin = explicitOriginConstant
		return credential, nil
	}

	for _, source := range spec.Sources {
		if resolutionContext != nil && resolutionContext.Err() != nil {
			return Credential{}, resolutionContext.Err()
		}
		value, found, lookupError := resolver.lookupSource(source)
		if lookupError != nil {
			return Credential{}, lookupError
		}
		if found {
			credential.Value = value
			credential.Origin = source.String()
			return credential, nil
		}
	}

	for _, variableName := range spec.EnvironmentFallbacks {
		value, found := resolver.lookupEnvironment(variableName)
		if found {
			credential.Value = value
			credential.Origin = fmt.Sprintf(environmentOriginTemplateConstant, variableName)
			return credential, nil
		}
	}

	return credential, nil
}

func (resolver *resolver) lookupSource(source Source) (string, bool, error) {
	switch source.Type {
	case SourceTypeEnvironment:
		value, found := resolver.lookupEnvironment(source.Reference)
		return value, found, nil
	case SourceTypeFile:
		filePath := resolver.homeExpander.Expand(source.Reference)
		contents, readError := resolver.fileReader(filePath)
		if readError != nil {
			if errors.Is(readError, fs.ErrNotExist) {
				return "", false, nil
			}
			return "", false, fmt.Errorf(fileReadErrorTemplateConstant, filePath, readError)
		}
		trimmedValue := strings.TrimSpace(string(contents))
		return trimmedValue, len(trimmedValue) > 0, nil
	case SourceTypeKeyring:
		service, account, splitError := splitKeyringReference(source.Reference)
		if splitError != nil {
			return "", false, splitError
		}
		secret, readError := resolver.keyringReader(service, account)
		if readError != nil {
			if errors.Is(readError, keyring.ErrNotFound) {
				return "", false, nil
			}
			return "", false, fmt.Errorf(keyringReadErrorTemplateConstant, source.Reference, readError)
		}
		trimmedValue := strings.TrimSpace(secret)
		return trimmedValue, len(trimmedValue) > 0, nil
	default:
		return "", false, fmt.Errorf(unsupportedSourceTemplateConstant, source.Type)
	}
}

func (resolver *resolver) lookupEnvironment(variableName string) (string, bool) {
	value, found := resolver.environmentLookup(variableName)
	if !found {
		return "", false
	}
	trimmedValue := strings.TrimSpace(value)
	return trimmedValue, len(trimmedValue) > 0
}
