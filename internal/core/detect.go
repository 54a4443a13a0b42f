package core

import (
	"bytes"
	"regexp"
)

// delimiterCandidates in tie-break order.
var delimiterCandidates = []rune{',', ';', '\t'}

// DecimalSampleRows bounds how many records feed decimal detection.
const DecimalSampleRows = 200

var (
	commaDecimal = regexp.MustCompile(`\d+,\d+`)
	dotDecimal   = regexp.MustCompile(`\d+\.\d+`)
)

// DetectDelimiter picks the most frequent candidate delimiter on the header
// line, ignoring quoted text. Ties and a header without any candidate
// resolve to ','.
func DetectDelimiter(data []byte) rune {
	line := firstLine(data)

	counts := make(map[rune]int, len(delimiterCandidates))
	inQuotes := false
	for _, r := range string(line) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best := ','
	bestCount := 0
	for _, c := range delimiterCandidates {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}

// firstLine returns the first non-blank line of data.
func firstLine(data []byte) []byte {
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		var line []byte
		if i < 0 {
			line, data = data, nil
		} else {
			line, data = data[:i], data[i+1:]
		}
		line = bytes.TrimRight(line, "\r")
		if len(bytes.TrimSpace(line)) > 0 {
			return line
		}
	}
	return nil
}

// DetectDecimal inspects the given columns of the first records and returns
// ',' when comma decimals strictly outnumber dot decimals, '.' otherwise.
func DetectDecimal(records []PatientRecord, idx HeaderIndex, columns ...string) byte {
	commaHits, dotHits := 0, 0
	for i, rec := range records {
		if i >= DecimalSampleRows {
			break
		}
		for _, col := range columns {
			v := rec.Get(idx, col)
			if v == "" {
				continue
			}
			if commaDecimal.MatchString(v) {
				commaHits++
			}
			if dotDecimal.MatchString(v) {
				dotHits++
			}
		}
	}
	if commaHits > dotHits {
		return ','
	}
	return '.'
}
