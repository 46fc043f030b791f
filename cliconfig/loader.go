// Package cliconfig loads command configuration from urfave/cli flags,
// environment variables and a config file into tagged structs.
//
// Fields are tagged with the flag they come from:
//
//	type Config struct {
//		Endpoint string `cli:"endpoint" validate:"required"`
//		Routes   string `cli:"routes" normalize:"filepath"`
//		Email    string `cli:"arg:0" label:"email address"`
//	}
package cliconfig

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joggr/joggr-client/internal/osutil"
	"github.com/oleiade/reflections"
	"github.com/urfave/cli"
)

type Loader struct {
	// The context that is passed when using a urfave/cli action
	CLI *cli.Context

	// The struct that the config values will be loaded into
	Config any

	// A slice of paths to files that should be used as config files
	DefaultConfigFilePaths []string

	// The file that was used when loading this configuration
	File *File
}

// Matches "arg:index" (specific non-flag arg) or "arg:*" (all non-flag args).
var argCLINameRE = regexp.MustCompile(`arg:(\d+|\*)`)

// Load fills Config. Precedence, lowest first: flag defaults, the config
// file, environment variables and explicitly passed flags.
func (l *Loader) Load() (warnings []string, err error) {
	// Try and find a config file, either passed in the command line using
	// --config, or in one of the default configuration file paths.
	if path := l.CLI.String("config"); path != "" {
		file := File{Path: path}

		// Because this file was passed in manually, we should throw an error
		// if it doesn't exist.
		if !file.Exists() {
			absolutePath, _ := file.AbsolutePath()
			return warnings, fmt.Errorf("a configuration file could not be found at: %q", absolutePath)
		}
		l.File = &file
	} else {
		for _, path := range l.DefaultConfigFilePaths {
			file := File{Path: path}
			if file.Exists() {
				l.File = &file
				break
			}
		}
	}

	if l.File != nil {
		if err := l.File.Load(); err != nil {
			return warnings, fmt.Errorf("loading config file: %w", err)
		}
	}

	fields, err := reflections.FieldsDeep(l.Config)
	if err != nil {
		return warnings, fmt.Errorf("listing config fields: %w", err)
	}

	for _, fieldName := range fields {
		cliName, _ := reflections.GetFieldTag(l.Config, fieldName, "cli")
		if cliName != "" {
			if err := l.setFieldValueFromCLI(fieldName, cliName); err != nil {
				return warnings, fmt.Errorf("setting config field %s: %w", fieldName, err)
			}
		}

		if normalization, _ := reflections.GetFieldTag(l.Config, fieldName, "normalize"); normalization != "" {
			if err := l.normalizeField(fieldName, normalization); err != nil {
				return warnings, fmt.Errorf("normalizing config field %s: %w", fieldName, err)
			}
		}

		if reason, _ := reflections.GetFieldTag(l.Config, fieldName, "deprecated"); reason != "" && !l.fieldValueIsEmpty(fieldName) {
			warnings = append(warnings,
				fmt.Sprintf("The config option `%s` has been deprecated: %s", cliName, reason))
		}

		if validationRules, _ := reflections.GetFieldTag(l.Config, fieldName, "validate"); validationRules != "" {
			label, _ := reflections.GetFieldTag(l.Config, fieldName, "label")
			if label == "" {
				label = cliName
			}
			if label == "" {
				label = fieldName
			}

			if err := l.validateField(fieldName, label, validationRules); err != nil {
				return warnings, err
			}
		}
	}

	if l.File != nil {
		for _, key := range l.File.Unused(l.cliNames(fields)) {
			warnings = append(warnings, fmt.Sprintf("Ignoring unknown setting %q in %s", key, l.File.Path))
		}
	}

	return warnings, nil
}

func (l Loader) cliNames(fields []string) map[string]bool {
	names := make(map[string]bool, len(fields))
	for _, fieldName := range fields {
		if cliName, _ := reflections.GetFieldTag(l.Config, fieldName, "cli"); cliName != "" {
			names[cliName] = true
		}
	}
	// Always consumed by the loader itself.
	names["config"] = true
	return names
}

func (l Loader) setFieldValueFromCLI(fieldName, cliName string) error {
	fieldKind, err := reflections.GetFieldKind(l.Config, fieldName)
	if err != nil {
		return fmt.Errorf("getting the kind of struct field %q: %w", fieldName, err)
	}
	fieldType, err := reflections.GetFieldType(l.Config, fieldName)
	if err != nil {
		return fmt.Errorf("getting the type of struct field %q: %w", fieldName, err)
	}

	var value any

	if argMatch := argCLINameRE.FindStringSubmatch(cliName); len(argMatch) > 0 {
		if argNum := argMatch[1]; argNum == "*" {
			value = []string(l.CLI.Args())
		} else {
			argIndex, err := strconv.Atoi(argNum)
			if err != nil {
				return fmt.Errorf("converting string to int: %w", err)
			}

			// Only set the value if the args are long enough for
			// the position to exist.
			if len(l.CLI.Args()) > argIndex {
				value = l.CLI.Args()[argIndex]
			}
		}

		// Otherwise see if we can pull it from an environment variable
		if value == nil {
			if envName, err := reflections.GetFieldTag(l.Config, fieldName, "env"); err == nil && envName != "" {
				if envValue, envSet := os.LookupEnv(envName); envSet {
					value = envValue
				}
			}
		}
	} else {
		// Start with whatever the config file provided.
		if l.File != nil {
			if configFileValue, ok := l.File.Config[cliName]; ok {
				value, err = parseFileValue(configFileValue, fieldKind, fieldType)
				if err != nil {
					return fmt.Errorf("%s in %s: %w", cliName, l.File.Path, err)
				}
			}
		}

		// Flags passed explicitly (or through their env var) beat the
		// file, and flag defaults apply when the file is silent.
		if value == nil || l.cliValueIsSet(cliName) {
			switch fieldKind {
			case reflect.String:
				value = l.CLI.String(cliName)
			case reflect.Slice:
				value = l.CLI.StringSlice(cliName)
			case reflect.Bool:
				value = l.CLI.Bool(cliName)
			case reflect.Int:
				value = l.CLI.Int(cliName)
			case reflect.Float64:
				value = l.CLI.Float64(cliName)
			case reflect.Int64:
				switch fieldType {
				case "int64":
					value = l.CLI.Int64(cliName)
				case "time.Duration":
					value = l.CLI.Duration(cliName)
				default:
					return fmt.Errorf("unsupported field type %s for kind int64", fieldType)
				}
			default:
				return fmt.Errorf("unable to handle type: %s", fieldKind)
			}
		}
	}

	if value != nil {
		if err := reflections.SetField(l.Config, fieldName, value); err != nil {
			return fmt.Errorf("setting value field %q to %q: %w", fieldName, value, err)
		}
	}

	return nil
}

func parseFileValue(s string, kind reflect.Kind, typ string) (any, error) {
	switch kind {
	case reflect.String:
		return s, nil
	case reflect.Slice:
		return strings.Split(s, ","), nil
	case reflect.Bool:
		return strconv.ParseBool(s)
	case reflect.Int:
		return strconv.Atoi(s)
	case reflect.Float64:
		return strconv.ParseFloat(s, 64)
	case reflect.Int64:
		switch typ {
		case "int64":
			return strconv.ParseInt(s, 10, 64)
		case "time.Duration":
			return time.ParseDuration(s)
		}
		return nil, fmt.Errorf("unsupported field type %s for kind int64", typ)
	}
	return nil, fmt.Errorf("unable to convert string to type %s", kind)
}

func (l Loader) Errorf(format string, v ...any) error {
	suffix := fmt.Sprintf(" See: `%s %s --help`", l.CLI.App.Name, l.CLI.Command.Name)

	return fmt.Errorf(format+suffix, v...)
}

func (l Loader) cliValueIsSet(cliName string) bool {
	if l.CLI.IsSet(cliName) {
		return true
	}

	// cli.Context#IsSet only checks to see if the command was set via the cli, not
	// via the environment. So here we do some hacks to find out the name of the
	// EnvVar, and return true if it was set.
	for _, flag := range l.CLI.Command.Flags {
		name, _ := reflections.GetField(flag, "Name")
		envVar, _ := reflections.GetField(flag, "EnvVar")
		if name != cliName {
			continue
		}
		if envVarStr, ok := envVar.(string); ok && envVarStr != "" {
			for env := range strings.SplitSeq(envVarStr, ",") {
				if os.Getenv(strings.TrimSpace(env)) != "" {
					return true
				}
			}
		}
	}

	return false
}

func (l Loader) fieldValueIsEmpty(fieldName string) bool {
	value, err := reflections.GetField(l.Config, fieldName)
	if err != nil || value == nil {
		return true
	}
	return reflect.ValueOf(value).IsZero()
}

func (l Loader) validateField(fieldName, label, validationRules string) error {
	for rule := range strings.SplitSeq(validationRules, ",") {
		switch rule {
		case "required":
			if l.fieldValueIsEmpty(fieldName) {
				return l.Errorf("Missing %s.", label)
			}

		case "file-exists":
			value, _ := reflections.GetField(l.Config, fieldName)
			if s, ok := value.(string); ok && s != "" {
				if _, err := os.Stat(s); err != nil {
					return fmt.Errorf("couldn't find %s located at %s: %w", label, s, err)
				}
			}

		default:
			return fmt.Errorf("unknown config validation rule %q", rule)
		}
	}

	return nil
}

func (l Loader) normalizeField(fieldName, normalization string) error {
	switch normalization {
	case "filepath":
		value, _ := reflections.GetField(l.Config, fieldName)
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("filepath normalization only works on string fields")
		}

		normalizedPath, err := osutil.NormalizeFilePath(s)
		if err != nil {
			return err
		}
		return reflections.SetField(l.Config, fieldName, normalizedPath)

	case "list":
		value, _ := reflections.GetField(l.Config, fieldName)
		list, ok := value.([]string)
		if !ok {
			return fmt.Errorf("list normalization only works on []string fields")
		}

		// Comma separated values in a single entry are split out.
		var normalized []string
		for _, v := range list {
			for item := range strings.SplitSeq(v, ",") {
				if item = strings.TrimSpace(item); item != "" {
					normalized = append(normalized, item)
				}
			}
		}
		return reflections.SetField(l.Config, fieldName, normalized)
	}

	return fmt.Errorf("unknown normalization %q", normalization)
}
