package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/imc/internal/logging"
)

// DefaultOutputPath is used when no output path is configured.
const DefaultOutputPath = "resultados_imc.csv"

// xlsxSheet names the worksheet of generated workbooks.
const xlsxSheet = "IMC"

// WriteOptions describe the output table.
type WriteOptions struct {
	Delimiter rune   // CSV delimiter; ',' when zero
	Decimal   byte   // BMI decimal separator; '.' when zero
	Encoding  string // CSV encoding; DefaultOutputEncoding when empty
	Naming    ColumnNaming
}

// Format returns the TableFormat the options produce for path.
func (o WriteOptions) Format(path string) TableFormat {
	f := TableFormat{Kind: KindForPath(path), Decimal: o.Decimal}
	if f.Decimal == 0 {
		f.Decimal = '.'
	}
	if f.Kind == KindCSV {
		f.Delimiter = o.Delimiter
		if f.Delimiter == 0 {
			f.Delimiter = ','
		}
		f.Encoding = o.Encoding
		if f.Encoding == "" {
			f.Encoding = DefaultOutputEncoding
		}
	}
	return f
}

// OutputHeader returns the input header followed by the two derived
// columns. A header already carrying either derived name is rejected so
// the original columns survive unchanged.
func OutputHeader(header []string, naming ColumnNaming) ([]string, error) {
	bmiCol, classCol := naming.DerivedColumns()
	for _, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), bmiCol) || strings.EqualFold(strings.TrimSpace(h), classCol) {
			return nil, fmt.Errorf("%w: %q (use a different column naming)", ErrColumnCollision, h)
		}
	}
	out := make([]string, 0, len(header)+2)
	out = append(out, header...)
	return append(out, bmiCol, classCol), nil
}

// FormatBMI renders a BMI with one decimal using the given separator.
func FormatBMI(v float64, decimal byte) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	if decimal == ',' {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

// OutputRow renders a record as output cells. Invalid records get empty
// derived cells.
func OutputRow(rec PatientRecord, decimal byte) []string {
	out := make([]string, 0, len(rec.Fields)+2)
	out = append(out, rec.Fields...)
	if !rec.Valid {
		return append(out, "", "")
	}
	return append(out, FormatBMI(rec.BMI, decimal), string(rec.Classification))
}

// WriteTable writes the augmented table to path. The file is written to a
// temporary sibling and renamed into place, so a failed write leaves no
// partial output.
func WriteTable(ctx context.Context, path string, table *Table, opts WriteOptions) error {
	header, err := OutputHeader(table.Header, opts.Naming)
	if err != nil {
		return err
	}
	format := opts.Format(path)

	var data []byte
	if format.Kind == KindXLSX {
		data, err = encodeXLSX(header, table.Records)
	} else {
		data, err = encodeCSV(header, table.Records, format)
	}
	if err != nil {
		return err
	}

	if err := writeFileAtomic(path, data); err != nil {
		return err
	}

	logging.FromContext(ctx).Debug("output written",
		"path", path,
		"kind", format.Kind,
		"bytes", len(data),
		"rows", len(table.Records),
	)
	return nil
}

func encodeCSV(header []string, records []PatientRecord, format TableFormat) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := NewEncodingWriter(&buf, format.Encoding)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(enc)
	w.Comma = format.Delimiter

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(OutputRow(rec, format.Decimal)); err != nil {
			return nil, fmt.Errorf("write line %d: %w", rec.Line, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return buf.Bytes(), nil
}

func encodeXLSX(header []string, records []PatientRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	headerCells := make([]interface{}, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &headerCells); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(xlsxSheet, 1, 1, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, rec := range records {
		cells := make([]interface{}, 0, len(rec.Fields)+2)
		for _, v := range rec.Fields {
			cells = append(cells, v)
		}
		if rec.Valid {
			cells = append(cells, rec.BMI, string(rec.Classification))
		} else {
			cells = append(cells, "", "")
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("cell name for row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &cells); err != nil {
			return nil, fmt.Errorf("write line %d: %w", rec.Line, err)
		}
	}

	if err := f.SetPanes(xlsxSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it over path.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputUnwritable, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputUnwritable, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputUnwritable, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputUnwritable, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputUnwritable, err)
	}
	return nil
}
