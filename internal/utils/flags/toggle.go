package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalValue               = "true"
	toggleFalseCanonicalValue              = "false"
	toggleParseErrorTemplate               = "invalid toggle value %q (use yes or no)"
	toggleArgumentTruePlaceholderConstant  = "<YES|no>"
	toggleArgumentFalsePlaceholderConstant = "<yes|NO>"
	toggleAnnotationKeyConstant            = "dovetail/toggle"
	longFlagPrefixConstant                 = "--"
	shortFlagPrefixConstant                = "-"
	flagValueSeparatorConstant             = "="
)

var (
	trueLiteralSet  = map[string]struct{}{"true": {}, "yes": {}, "on": {}, "1": {}, "t": {}, "y": {}}
	falseLiteralSet = map[string]struct{}{"false": {}, "no": {}, "off": {}, "0": {}, "f": {}, "n": {}}
)

// AddToggleFlag registers a boolean flag that accepts yes/no style values.
// A bare flag means yes. The flag is annotated so NormalizeToggleArguments
// can attach a following value.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	toggleValue := newToggleFlagValue(defaultValue, target)
	flagSet.VarP(toggleValue, name, shorthand, usage)

	flag := flagSet.Lookup(name)
	if flag == nil {
		return
	}
	flag.NoOptDefVal = toggleTrueCanonicalValue
	flag.Usage = formatToggleUsage(usage, defaultValue)
	_ = flagSet.SetAnnotation(name, toggleAnnotationKeyConstant, []string{toggleTrueCanonicalValue})
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleArgumentFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleArgumentTruePlaceholderConstant
	}
	trimmed := strings.TrimSpace(description)
	if len(trimmed) == 0 {
		return fmt.Sprintf("`%s`", placeholder)
	}
	return fmt.Sprintf("`%s` %s", placeholder, trimmed)
}

// NormalizeToggleArguments rewrites "--flag value" into "--flag=value" for
// every toggle flag declared anywhere in the command tree rooted at command.
func NormalizeToggleArguments(command *cobra.Command, arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	names, shorthands := collectToggleFlags(command)
	normalized := make([]string, 0, len(arguments))
	index := 0
	for index < len(arguments) {
		current := arguments[index]
		if current == longFlagPrefixConstant {
			normalized = append(normalized, arguments[index:]...)
			break
		}

		hasInlineValue, isToggle := matchToggle(current, names, shorthands)
		if isToggle && !hasInlineValue && index+1 < len(arguments) && isToggleLiteral(arguments[index+1]) {
			normalized = append(normalized, current+flagValueSeparatorConstant+arguments[index+1])
			index += 2
			continue
		}

		normalized = append(normalized, current)
		index++
	}

	return normalized
}

func collectToggleFlags(command *cobra.Command) (map[string]struct{}, map[string]struct{}) {
	names := map[string]struct{}{}
	shorthands := map[string]struct{}{}
	if command == nil {
		return names, shorthands
	}

	visit := func(flag *pflag.Flag) {
		if _, annotated := flag.Annotations[toggleAnnotationKeyConstant]; !annotated {
			return
		}
		names[flag.Name] = struct{}{}
		if len(flag.Shorthand) > 0 {
			shorthands[flag.Shorthand] = struct{}{}
		}
	}

	pending := []*cobra.Command{command}
	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]
		current.Flags().VisitAll(visit)
		current.PersistentFlags().VisitAll(visit)
		pending = append(pending, current.Commands()...)
	}
	return names, shorthands
}

func matchToggle(argument string, names map[string]struct{}, shorthands map[string]struct{}) (bool, bool) {
	switch {
	case strings.HasPrefix(argument, longFlagPrefixConstant):
		name, _, hasInlineValue := strings.Cut(strings.TrimPrefix(argument, longFlagPrefixConstant), flagValueSeparatorConstant)
		_, isToggle := names[name]
		return hasInlineValue, isToggle
	case strings.HasPrefix(argument, shortFlagPrefixConstant):
		shorthand, _, hasInlineValue := strings.Cut(strings.TrimPrefix(argument, shortFlagPrefixConstant), flagValueSeparatorConstant)
		if len(shorthand) != 1 {
			return false, false
		}
		_, isToggle := shorthands[shorthand]
		return hasInlineValue, isToggle
	default:
		return false, false
	}
}

func isToggleLiteral(value string) bool {
	_, parseError := parseToggleValue(value)
	return parseError == nil && len(strings.TrimSpace(value)) > 0
}

type toggleFlagValue struct {
	currentValue bool
	target       *bool
}

func newToggleFlagValue(defaultValue bool, target *bool) *toggleFlagValue {
	if target != nil {
		*target = defaultValue
	}
	return &toggleFlagValue{currentValue: defaultValue, target: target}
}

func (value *toggleFlagValue) Set(rawValue string) error {
	parsedValue, parseError := parseToggleValue(rawValue)
	if parseError != nil {
		return parseError
	}

	value.currentValue = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}
	return nil
}

func (value *toggleFlagValue) String() string {
	if value == nil || !value.currentValue {
		return toggleFalseCanonicalValue
	}
	return toggleTrueCanonicalValue
}

func (value *toggleFlagValue) Type() string {
	return "bool"
}

func parseToggleValue(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		return true, nil
	}
	if _, isTrue := trueLiteralSet[normalizedValue]; isTrue {
		return true, nil
	}
	if _, isFalse := falseLiteralSet[normalizedValue]; isFalse {
		return false, nil
	}
	return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
}
