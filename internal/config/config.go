// Package config loads command options from a TOML file, SOUNDNODE_
// environment variables and command line flags, and watches the file for
// runtime changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/soundnode/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every env tag.
const EnvPrefix = "SOUNDNODE_"

var durationType = reflect.TypeFor[time.Duration]()

// LoadConfig fills opts with precedence CLI flag > env var > config file.
// opts must point to a struct; the file path is read from its Config field,
// TOML keys from `toml:"section.key"` tags and variables from `env:"KEY"`
// tags. If cmd is provided, flags the user set explicitly are left alone.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return errors.New("config: options must be a pointer to a struct")
	}
	v = v.Elem()

	changed := changedFlags(cmd)

	if path := configPath(v); path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var file map[string]any
			if err := toml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("failed to parse TOML config: %w", err)
			}
			eachField(v, changed, "toml", func(field reflect.Value, key string) {
				if value := getNestedValue(file, key); value != nil {
					setFieldValue(field, value)
				}
			})
		}
	}

	eachField(v, changed, "env", func(field reflect.Value, key string) {
		if value := os.Getenv(EnvPrefix + key); value != "" {
			setFieldValueFromString(field, value)
		}
	})

	return nil
}

// PinnedKeys returns the TOML keys of opts whose value came from a command
// line flag or an environment variable. A reloaded file must not override
// them.
func PinnedKeys(opts any, cmd *cobra.Command) map[string]bool {
	pinned := make(map[string]bool)
	v := reflect.ValueOf(opts)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return pinned
	}
	t := v.Elem().Type()

	changed := changedFlags(cmd)
	for i := range t.NumField() {
		sf := t.Field(i)
		key := sf.Tag.Get("toml")
		if key == "" {
			continue
		}
		env := sf.Tag.Get("env")
		if changed[fieldNameToFlag(sf.Name)] || (env != "" && os.Getenv(EnvPrefix+env) != "") {
			pinned[key] = true
		}
	}
	return pinned
}

func changedFlags(cmd *cobra.Command) map[string]bool {
	changed := make(map[string]bool)
	if cmd == nil {
		return changed
	}
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			changed[f.Name] = true
		}
	})
	return changed
}

func configPath(v reflect.Value) string {
	field := v.FieldByName("Config")
	if !field.IsValid() || field.Kind() != reflect.String {
		return ""
	}
	return field.String()
}

// eachField calls fn for every field carrying tag whose flag was not set
// on the command line.
func eachField(v reflect.Value, changed map[string]bool, tag string, fn func(reflect.Value, string)) {
	t := v.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		key := sf.Tag.Get(tag)
		if key == "" || changed[fieldNameToFlag(sf.Name)] {
			continue
		}
		fn(v.Field(i), key)
	}
}

// fieldNameToFlag converts a struct field name to a CLI flag name, keeping
// initialisms together the way humacli names its flags.
// Example: "AudioLatencyUs" -> "audio-latency-us", "LoggingAPI" -> "logging-api".
func fieldNameToFlag(fieldName string) string {
	runes := []rune(fieldName)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	current := data
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return current[parts[len(parts)-1]]
}

// setFieldValue sets a field from a decoded TOML value.
func setFieldValue(field reflect.Value, value any) {
	if !field.CanSet() {
		return
	}

	if field.Type() == durationType {
		if s, ok := value.(string); ok {
			if d, err := time.ParseDuration(s); err == nil {
				field.SetInt(int64(d))
			}
		}
		return
	}

	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int32, reflect.Int64:
		switch n := value.(type) {
		case int64:
			field.SetInt(n)
		case int:
			field.SetInt(int64(n))
		}
	case reflect.Float64:
		switch n := value.(type) {
		case float64:
			field.SetFloat(n)
		case int64:
			field.SetFloat(float64(n))
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return
		}
		if arr, ok := value.([]any); ok {
			slice := make([]string, 0, len(arr))
			for _, item := range arr {
				if s, isString := item.(string); isString {
					slice = append(slice, s)
				}
			}
			field.Set(reflect.ValueOf(slice))
		}
	}
}

// setFieldValueFromString sets a field from an environment variable.
// Slices are comma separated.
func setFieldValueFromString(field reflect.Value, value string) {
	if !field.CanSet() {
		return
	}

	if field.Type() == durationType {
		if d, err := time.ParseDuration(value); err == nil {
			field.SetInt(int64(d))
		}
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int32, reflect.Int64:
		if i, err := strconv.ParseInt(value, 10, field.Type().Bits()); err == nil {
			field.SetInt(i)
		}
	case reflect.Float64:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			field.SetFloat(f)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	}
}

// LoadLoggingConfig reads the [logging] section of a TOML file. Keys other
// than level and format are module levels. A missing or unreadable file
// yields the defaults.
func LoadLoggingConfig(configPath string) logging.Config {
	cfg := defaultLogging()
	if configPath == "" {
		return cfg
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg
	}
	var raw fileSections
	if err := toml.Unmarshal(data, &raw); err != nil {
		return cfg
	}
	raw.applyLogging(&cfg)
	return cfg
}

func defaultLogging() logging.Config {
	return logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}
}
