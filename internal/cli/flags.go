package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	literalBoolTypeName    = "bool"
	literalBoolTrue        = "true"
	literalBoolAccepted    = "true, false, yes, no, on, off, 1, 0"
	literalBoolErrorFormat = "invalid boolean value %q for --%s; accepted values: %s"
)

var literalBoolValues = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// parseLiteralBool accepts the words in literalBoolValues, case-insensitively.
// An empty input means true.
func parseLiteralBool(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return true, true
	}
	parsed, known := literalBoolValues[normalized]
	return parsed, known
}

// literalBool is a pflag.Value accepting yes/no style literals.
type literalBool struct {
	target *bool
	name   string
}

func (value *literalBool) Set(input string) error {
	parsed, known := parseLiteralBool(input)
	if !known {
		return fmt.Errorf(literalBoolErrorFormat, input, value.name, literalBoolAccepted)
	}
	*value.target = parsed
	return nil
}

func (value *literalBool) String() string {
	if value.target == nil {
		return "false"
	}
	return strconv.FormatBool(*value.target)
}

func (value *literalBool) Type() string {
	return literalBoolTypeName
}

// registerBooleanFlag defines a boolean flag that also accepts "--name value"
// once the arguments pass through normalizeBooleanFlagArguments.
func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	*target = defaultValue
	flagSet.Var(&literalBool{target: target, name: name}, name, usage)
	flag := flagSet.Lookup(name)
	flag.DefValue = strconv.FormatBool(defaultValue)
	flag.NoOptDefVal = literalBoolTrue
}

// normalizeBooleanFlagArguments joins "--name literal" into "--name=literal"
// for every boolean flag defined anywhere in the command tree. Arguments
// after "--" are left alone.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	booleanFlags := map[string]struct{}{}
	collectBooleanFlagNames(command, booleanFlags)

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == "--" {
			return append(normalized, arguments[index:]...)
		}
		name, isLongFlag := strings.CutPrefix(current, "--")
		_, isBoolean := booleanFlags[name]
		if isLongFlag && isBoolean && index+1 < len(arguments) {
			next := arguments[index+1]
			if _, known := literalBoolValues[strings.ToLower(strings.TrimSpace(next))]; known {
				normalized = append(normalized, current+"="+next)
				index++
				continue
			}
		}
		normalized = append(normalized, current)
	}
	return normalized
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	record := func(flag *pflag.Flag) {
		if flag.Value.Type() == literalBoolTypeName {
			target[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(record)
	command.Flags().VisitAll(record)
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}
