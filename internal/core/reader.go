package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/imc/internal/logging"
)

// ContextCheckInterval is how often (in rows) long loops check for
// cancellation.
var ContextCheckInterval = 100

// ReadOptions are the explicit input format hints. Zero values request
// auto-detection (delimiter) or defaults (encoding, first sheet).
type ReadOptions struct {
	Delimiter rune
	Encoding  string
	Sheet     string
}

// KindForPath picks the table kind from a file extension.
func KindForPath(path string) TableKind {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return KindXLSX
	}
	return KindCSV
}

// ReadTable parses the input file into a header and ordered records. The
// returned format carries the resolved delimiter and encoding; the decimal
// separator is resolved later, once the measurement columns are known.
func ReadTable(ctx context.Context, path string, opts ReadOptions) (*Table, error) {
	if err := checkReadable(path); err != nil {
		return nil, err
	}

	if KindForPath(path) == KindXLSX {
		return readXLSX(ctx, path, opts)
	}
	return readCSV(ctx, path, opts)
}

// checkReadable classifies missing and unreadable inputs.
func checkReadable(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrInputNotFound, path)
	case err != nil:
		return fmt.Errorf("%w: %v", ErrInputAccess, err)
	case info.IsDir():
		return fmt.Errorf("%w: %s is a directory", ErrInputAccess, path)
	}
	return nil
}

func readCSV(ctx context.Context, path string, opts ReadOptions) (*Table, error) {
	logger := logging.FromContext(ctx)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputAccess, err)
	}
	defer f.Close()

	counter := NewCountingReader(f)
	decoded, err := NewDecodingReader(counter, opts.Encoding)
	if err != nil {
		return nil, err
	}
	data, err := readAllDecoded(decoded)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyInput, path)
	}

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = DetectDelimiter(data)
		logger.Debug("delimiter detected", "delimiter", string(delimiter))
	}

	encodingName := opts.Encoding
	if encodingName == "" {
		encodingName = DefaultInputEncoding
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %s", ErrEmptyInput, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	if isEmptyRow(header) {
		return nil, fmt.Errorf("%w: blank header in %s", ErrEmptyInput, path)
	}

	table := &Table{
		Header: header,
		Format: TableFormat{
			Kind:      KindCSV,
			Delimiter: delimiter,
			Encoding:  encodingName,
		},
	}

	for i := 0; ; i++ {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("read cancelled: %w", err)
			}
		}

		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		line, _ := r.FieldPos(0)
		table.Records = append(table.Records, newRecord(ctx, line, row, len(header)))
	}

	logger.Debug("input read",
		"path", path,
		"bytes", counter.BytesRead,
		"rows", len(table.Records),
		"columns", len(header),
	)
	return table, nil
}

func readXLSX(ctx context.Context, path string, opts ReadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputAccess, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets in %s", ErrEmptyInput, path)
	}
	sheet := sheets[0]
	if opts.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if s == opts.Sheet {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("%w: sheet %q not found (sheets: %q)", ErrInvalidOption, opts.Sheet, sheets)
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	headerAt := -1
	for i, row := range rows {
		if !isEmptyRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, fmt.Errorf("%w: sheet %q has no rows", ErrEmptyInput, sheet)
	}

	header := rows[headerAt]
	table := &Table{
		Header: header,
		Format: TableFormat{Kind: KindXLSX},
	}
	for i := headerAt + 1; i < len(rows); i++ {
		if (i-headerAt)%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("read cancelled: %w", err)
			}
		}
		if isEmptyRow(rows[i]) {
			continue
		}
		table.Records = append(table.Records, newRecord(ctx, i+1, rows[i], len(header)))
	}

	logging.FromContext(ctx).Debug("input read",
		"path", path,
		"sheet", sheet,
		"rows", len(table.Records),
		"columns", len(header),
	)
	return table, nil
}

// newRecord aligns a row to the header width. Missing cells become empty;
// cells past the header are dropped.
func newRecord(ctx context.Context, line int, row []string, width int) PatientRecord {
	fields := make([]string, width)
	copy(fields, row)
	if len(row) > width && !isEmptyRow(row[width:]) {
		logging.FromContext(ctx).Warn("extra cells ignored",
			"line", line,
			"cells", len(row),
			"columns", width,
		)
	}
	return PatientRecord{Line: line, Fields: fields}
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
