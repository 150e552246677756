package credentials

import (
	"errors"
	"fmt"
	"strings"
)

const (
	sourceSeparatorConstant                    = ":"
	keyringAccountSeparatorConstant            = "/"
	environmentSourceTypeValueConstant         = "env"
	fileSourceTypeValueConstant                = "file"
	keyringSourceTypeValueConstant             = "keyring"
	sourceMissingErrorMessageConstant          = "token source must be provided"
	environmentNameMissingErrorMessageConstant = "environment variable name must be provided"
	filePathMissingErrorMessageConstant        = "token file path must be provided"
	keyringReferenceInvalidTemplateConstant    = "keyring source %q must look like keyring:service/account"
	unsupportedSourceTemplateConstant          = "unsupported token source type %q"
)

// SourceType enumerates the supported token retrieval mechanisms.
type SourceType string

// Token source type enumerations.
const (
	SourceTypeEnvironment SourceType = SourceType(environmentSourceTypeValueConstant)
	SourceTypeFile        SourceType = SourceType(fileSourceTypeValueConstant)
	SourceTypeKeyring     SourceType = SourceType(keyringSourceTypeValueConstant)
)

// Source specifies where to look for a token.
type Source struct {
	Type      SourceType
	Reference string
}

// String renders the source in its textual declaration form.
func (source Source) String() string {
	return string(source.Type) + sourceSeparatorConstant + source.Reference
}

// ParseSource interprets textual token source declarations such as
// "env:GH_TOKEN", "file:~/.config/fly/token" or "keyring:dovetail/github".
// A bare value is treated as an environment variable name.
func ParseSource(sourceValue string) (Source, error) {
	trimmedValue := strings.TrimSpace(sourceValue)
	if len(trimmedValue) == 0 {
		return Source{}, errors.New(sourceMissingErrorMessageConstant)
	}

	components := strings.SplitN(trimmedValue, sourceSeparatorConstant, 2)
	if len(components) == 1 {
		return Source{Type: SourceTypeEnvironment, Reference: trimmedValue}, nil
	}

	sourceType := strings.ToLower(strings.TrimSpace(components[0]))
	reference := strings.TrimSpace(components[1])

	switch SourceType(sourceType) {
	case SourceTypeEnvironment:
		if len(reference) == 0 {
			return Source{}, errors.New(environmentNameMissingErrorMessageConstant)
		}
		return Source{Type: SourceTypeEnvironment, Reference: reference}, nil
	case SourceTypeFile:
		if len(reference) == 0 {
			return Source{}, errors.New(filePathMissingErrorMessageConstant)
		}
		return Source{Type: SourceTypeFile, Reference: reference}, nil
	case SourceTypeKeyring:
		if _, _, splitError := splitKeyringReference(reference); splitError != nil {
			return Source{}, splitError
		}
		return Source{Type: SourceTypeKeyring, Reference: reference}, nil
	default:
		return Source{}, fmt.Errorf(unsupportedSourceTemplateConstant, sourceType)
	}
}

// ParseSources parses every declaration, failing on the first invalid one.
func ParseSources(sourceValues []string) ([]Source, error) {
	sources := make([]Source, 0, len(sourceValues))
	for _, sourceValue := range sourceValues {
		if len(strings.TrimSpace(sourceValue)) == 0 {
			continue
		}
		source, parseError := ParseSource(sourceValue)
		if parseError != nil {
			return nil, parseError
		}
		sources = append(sources, source)
	}
	return sources, nil
}

func splitKeyringReference(reference string) (string, string, error) {
	components := strings.SplitN(reference, keyringAccountSeparatorConstant, 2)
	if len(components) != 2 {
		return "", "", fmt.Errorf(keyringReferenceInvalidTemplateConstant, reference)
	}
	service := strings.TrimSpace(components[0])
	account := strings.TrimSpace(components[1])
	if len(service) == 0 || len(account) == 0 {
		return "", "", fmt.Errorf(keyringReferenceInvalidTemplateConstant, reference)
	}
	return service, account, nil
}
