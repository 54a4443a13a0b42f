package core

// convert.go turns the messy text of user spreadsheets into values:
//   - Decimal numbers in either locale convention (1.234,5 or 1,234.5)
//   - Excel formula prefixes (="value") and stray quotes
//   - Header names compared without case, accents or punctuation
//
// Numbers are validated through pgtype.Numeric and kept as exact rationals
// so BMI arithmetic sees the decimals as typed.

import (
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// numericRegex validates a cleaned decimal. Exponents are not accepted.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// nameSeparators matches runs of anything that is not a lowercase letter or digit.
var nameSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// ToNumeric converts a cell to pgtype.Numeric honouring the decimal
// separator. The other separator is treated as a thousands separator and
// dropped. Returns invalid for empty or malformed input.
func ToNumeric(s string, decimal byte) pgtype.Numeric {
	s = CleanCell(s)
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return pgtype.Numeric{Valid: false}
	}

	if decimal == ',' {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{Valid: false}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// ParseDecimal parses a cell into an exact rational. ok is false when the
// cell is empty or not a plain decimal number.
func ParseDecimal(s string, decimal byte) (*big.Rat, bool) {
	n := ToNumeric(s, decimal)
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return nil, false
	}
	return numericToRat(n), true
}

// numericToRat returns Int × 10^Exp.
func numericToRat(n pgtype.Numeric) *big.Rat {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs32(n.Exp))), nil)
	if n.Exp >= 0 {
		return new(big.Rat).SetInt(new(big.Int).Mul(n.Int, scale))
	}
	return new(big.Rat).SetFrac(n.Int, scale)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// MakeHeaderIndex creates a HeaderIndex keyed by the exact header text.
// When a name repeats, the first position wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		if _, dup := idx[h]; dup {
			continue
		}
		idx[h] = i
	}
	return idx
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// NormalizeName folds a column name for matching: lowercase, accents
// stripped, and every run of other characters collapsed to '_'.
//
//	"Peso (kg)"  -> "peso_kg"
//	"Altura em m" -> "altura_em_m"
func NormalizeName(s string) string {
	s = strings.ToLower(CleanCell(s))

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	s = nameSeparators.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
