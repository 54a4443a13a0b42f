package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load builds a Config from tag defaults, then the optional defaults file,
// then overrides (keyed like the file, e.g. "OUTPUT_DECIMAL"). The file uses
// dotenv syntax and is parsed without touching the process environment.
// Returns an error if a value does not parse or validation fails.
func Load(file string, overrides map[string]string) (*Config, error) {
	values := make(map[string]string)

	if file != "" {
		fromFile, err := godotenv.Read(file)
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", file, err)
		}
		for k, v := range fromFile {
			values[strings.ToUpper(strings.TrimSpace(k))] = v
		}
	}
	for k, v := range overrides {
		values[k] = v
	}

	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(cfg).Elem(), values); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration with only tag defaults applied.
func Default() *Config {
	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(cfg).Elem(), nil); err != nil {
		panic(fmt.Sprintf("invalid config defaults: %v", err))
	}
	return cfg
}

// FlagKeys maps every flag name declared in struct tags to its key.
func FlagKeys() map[string]string {
	keys := make(map[string]string)
	collectFlags(reflect.TypeOf(Config{}), keys)
	return keys
}

func collectFlags(t reflect.Type, keys map[string]string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Type.Kind() == reflect.Struct {
			collectFlags(field.Type, keys)
			continue
		}
		if flag := field.Tag.Get("flag"); flag != "" {
			keys[flag] = field.Tag.Get("key")
		}
	}
}

// loadStruct recursively populates struct fields from values.
func loadStruct(v reflect.Value, values map[string]string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal, values); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("key")
		if key == "" {
			continue
		}

		value, set := values[key]
		if !set {
			value = field.Tag.Get("default")
		}

		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("%s is required", key)
			}
			fieldVal.Set(reflect.Zero(field.Type))
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", key, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		i, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Float64:
		// Accept a comma decimal as operators in comma locales type it.
		f, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(value), ",", ".", 1), 64)
		if err != nil {
			return fmt.Errorf("invalid number: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Input validation
	if strings.TrimSpace(c.Input.Path) == "" {
		errs = append(errs, "INPUT is required")
	}
	if c.Input.Delimiter != "" && c.Input.DelimiterRune() == 0 {
		errs = append(errs, fmt.Sprintf("DELIMITER (%q) must be one of: \",\", \";\", tab", c.Input.Delimiter))
	}
	if c.Input.Decimal != "" && c.Input.DecimalByte() == 0 {
		errs = append(errs, fmt.Sprintf("DECIMAL (%q) must be one of: \",\", \".\"", c.Input.Decimal))
	}

	// Output validation
	if strings.TrimSpace(c.Output.Path) == "" {
		errs = append(errs, "OUTPUT is required")
	}
	if c.Output.Delimiter != "" && c.Output.DelimiterRune() == 0 {
		errs = append(errs, fmt.Sprintf("OUTPUT_DELIMITER (%q) must be one of: \",\", \";\", tab", c.Output.Delimiter))
	}
	if c.Output.Decimal != "" && parseDecimal(c.Output.Decimal) == 0 {
		errs = append(errs, fmt.Sprintf("OUTPUT_DECIMAL (%q) must be one of: \",\", \".\"", c.Output.Decimal))
	}
	if c.Output.Preview < 0 {
		errs = append(errs, "PREVIEW must be non-negative")
	}
	validNames := map[string]bool{"en": true, "pt": true}
	if !validNames[c.Output.ColumnNames] {
		errs = append(errs, fmt.Sprintf("COLUMN_NAMES (%q) must be one of: en, pt", c.Output.ColumnNames))
	}
	if c.Input.Path != "" && samePath(c.Input.Path, c.Output.Path) {
		errs = append(errs, "OUTPUT must differ from INPUT")
	}

	// Row validation
	validPolicies := map[string]bool{"skip": true, "strict": true}
	if !validPolicies[c.Rows.Policy] {
		errs = append(errs, fmt.Sprintf("POLICY (%q) must be one of: skip, strict", c.Rows.Policy))
	}
	validUnits := map[string]bool{"auto": true, "m": true, "cm": true}
	if !validUnits[c.Rows.HeightUnit] {
		errs = append(errs, fmt.Sprintf("HEIGHT_UNIT (%q) must be one of: auto, m, cm", c.Rows.HeightUnit))
	}
	if c.Rows.HeightThreshold <= 0 {
		errs = append(errs, "HEIGHT_THRESHOLD must be positive")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a one-line representation of the config for logging.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Input: {Path: %q, Delimiter: %q, Decimal: %q, Encoding: %q}, ",
		c.Input.Path, c.Input.Delimiter, c.Input.Decimal, c.Input.Encoding))
	b.WriteString(fmt.Sprintf("Output: {Path: %q, Decimal: %q, Encoding: %q, ColumnNames: %q}, ",
		c.Output.Path, c.Output.Decimal, c.Output.Encoding, c.Output.ColumnNames))
	b.WriteString(fmt.Sprintf("Rows: {Policy: %q, HeightUnit: %q, HeightThreshold: %g}, ",
		c.Rows.Policy, c.Rows.HeightUnit, c.Rows.HeightThreshold))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

// samePath reports whether a and b name the same file once made absolute.
func samePath(a, b string) bool {
	return absPath(a) == absPath(b)
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
