package core

import (
	"time"
)

// TableKind identifies the container format of a table file.
type TableKind string

const (
	KindCSV  TableKind = "csv"
	KindXLSX TableKind = "xlsx"
)

// TableFormat describes how a table file is laid out on disk.
// For KindXLSX only Decimal is meaningful.
type TableFormat struct {
	Kind      TableKind
	Delimiter rune   // Field delimiter (',' ';' '\t')
	Decimal   byte   // Decimal separator ('.' or ',')
	Encoding  string // Text encoding name as accepted by LookupEncoding
}

// HeaderIndex maps column names to their position in a row.
type HeaderIndex map[string]int

// PatientRecord is one input row plus its derived BMI fields.
// Fields is aligned with Table.Header; BMI and Classification are
// either both set (Valid) or both empty.
type PatientRecord struct {
	Line           int      // 1-indexed line (or sheet row) in the source
	Fields         []string // Raw cell values in header order
	BMI            float64
	Classification Classification
	Valid          bool
}

// Get returns the raw value of the named column, or "" if absent.
func (r PatientRecord) Get(idx HeaderIndex, column string) string {
	pos, ok := idx[column]
	if !ok || pos >= len(r.Fields) {
		return ""
	}
	return r.Fields[pos]
}

// Table is a parsed input file.
type Table struct {
	Header  []string
	Records []PatientRecord
	Format  TableFormat
}

// Index builds a HeaderIndex for the table header.
func (t *Table) Index() HeaderIndex {
	return MakeHeaderIndex(t.Header)
}

// Role names the measurement a column carries.
type Role string

const (
	RoleWeight Role = "weight"
	RoleHeight Role = "height"
)

// HeightUnit controls how raw height values are converted to meters.
type HeightUnit string

const (
	HeightAuto        HeightUnit = "auto" // centimeters when above the threshold
	HeightMeters      HeightUnit = "m"
	HeightCentimeters HeightUnit = "cm"
)

// DefaultHeightThreshold is the value above which an auto height is
// read as centimeters.
const DefaultHeightThreshold = 3.0

// ErrorPolicy decides what happens to rows whose measurements are unusable.
type ErrorPolicy string

const (
	PolicySkip   ErrorPolicy = "skip"   // emit with empty derived fields and count
	PolicyStrict ErrorPolicy = "strict" // abort the run on the first bad row
)

// ColumnNaming selects the header names of the two derived columns.
type ColumnNaming string

const (
	NamingEnglish    ColumnNaming = "en"
	NamingPortuguese ColumnNaming = "pt"
)

// DerivedColumns returns the BMI and classification header names.
func (n ColumnNaming) DerivedColumns() (bmi, classification string) {
	if n == NamingPortuguese {
		return "imc", "categoria_imc"
	}
	return "bmi", "classification"
}

// RunResult summarizes a completed run.
type RunResult struct {
	RunID        string
	InputPath    string
	OutputPath   string
	InputFormat  TableFormat
	OutputFormat TableFormat
	WeightColumn string
	HeightColumn string
	TotalRows    int
	ValidRows    int
	InvalidRows  int
	PreviewRows  [][]string // Output header followed by the first rows
	Duration     time.Duration
}
