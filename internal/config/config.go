// Package config provides centralized configuration for a BMI run.
// Values come from struct-tag defaults, an optional defaults file in
// KEY=VALUE form, and command-line flags, in increasing precedence. The
// result is validated up front to fail fast on misconfiguration.
package config

// Config holds all run configuration.
type Config struct {
	Input   InputConfig
	Output  OutputConfig
	Columns ColumnConfig
	Rows    RowConfig
	Logging LoggingConfig
}

// InputConfig describes the source table.
type InputConfig struct {
	// Path is the input table (default: dados_pacientes.csv)
	Path string `key:"INPUT" default:"dados_pacientes.csv" required:"true"`

	// Delimiter is ",", ";" or "tab"; empty auto-detects from the header
	Delimiter string `key:"DELIMITER" flag:"delimiter"`

	// Decimal is "," or "."; empty auto-detects from the measurements
	Decimal string `key:"DECIMAL" flag:"decimal"`

	// Encoding is the input text encoding (default: utf-8-sig)
	Encoding string `key:"ENCODING" flag:"encoding" default:"utf-8-sig"`

	// Sheet selects the worksheet of an .xlsx input (default: first sheet)
	Sheet string `key:"SHEET" flag:"sheet"`
}

// OutputConfig describes the generated table.
type OutputConfig struct {
	// Path is the output table (default: resultados_imc.csv)
	Path string `key:"OUTPUT" flag:"output" default:"resultados_imc.csv" required:"true"`

	// Delimiter for CSV output; empty reuses the input delimiter
	Delimiter string `key:"OUTPUT_DELIMITER" flag:"output-delimiter"`

	// Decimal separator of the BMI column (default: ".")
	Decimal string `key:"OUTPUT_DECIMAL" flag:"output-decimal" default:"."`

	// Encoding of CSV output (default: utf-8)
	Encoding string `key:"OUTPUT_ENCODING" flag:"output-encoding" default:"utf-8"`

	// ColumnNames is "en" (bmi, classification) or "pt" (imc, categoria_imc)
	ColumnNames string `key:"COLUMN_NAMES" flag:"column-names" default:"en"`

	// Preview is how many output rows to print after the run (default: 5)
	Preview int `key:"PREVIEW" flag:"preview" default:"5"`
}

// ColumnConfig overrides measurement column discovery.
type ColumnConfig struct {
	// Weight is the exact weight column name (kg)
	Weight string `key:"WEIGHT_COLUMN" flag:"weight-column"`

	// Height is the exact height column name (m or cm)
	Height string `key:"HEIGHT_COLUMN" flag:"height-column"`
}

// RowConfig holds per-row processing settings.
type RowConfig struct {
	// Policy is "skip" (count bad rows) or "strict" (abort on the first)
	Policy string `key:"POLICY" flag:"policy" default:"skip"`

	// HeightUnit is "auto", "m" or "cm" (default: auto)
	HeightUnit string `key:"HEIGHT_UNIT" flag:"height-unit" default:"auto"`

	// HeightThreshold is the auto height above which values are centimeters (default: 3)
	HeightThreshold float64 `key:"HEIGHT_THRESHOLD" flag:"height-threshold" default:"3"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `key:"LOG_LEVEL" flag:"log-level" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `key:"LOG_FORMAT" flag:"log-format" default:"text"`
}

// DelimiterRune returns the configured input delimiter, or 0 for auto.
func (c *InputConfig) DelimiterRune() rune {
	return parseDelimiter(c.Delimiter)
}

// DecimalByte returns the configured input decimal, or 0 for auto.
func (c *InputConfig) DecimalByte() byte {
	return parseDecimal(c.Decimal)
}

// DelimiterRune returns the configured output delimiter, or 0 to reuse
// the input's.
func (c *OutputConfig) DelimiterRune() rune {
	return parseDelimiter(c.Delimiter)
}

// DecimalByte returns the output decimal separator ('.' when unset).
func (c *OutputConfig) DecimalByte() byte {
	if d := parseDecimal(c.Decimal); d != 0 {
		return d
	}
	return '.'
}

// parseDelimiter accepts the delimiter spellings a shell user can type.
// Returns 0 for empty or unknown values; Validate rejects the latter.
func parseDelimiter(s string) rune {
	switch s {
	case ",", "comma":
		return ','
	case ";", "semicolon":
		return ';'
	case "\t", `\t`, "tab":
		return '\t'
	default:
		return 0
	}
}

func parseDecimal(s string) byte {
	switch s {
	case ",", "comma":
		return ','
	case ".", "dot", "period":
		return '.'
	default:
		return 0
	}
}
