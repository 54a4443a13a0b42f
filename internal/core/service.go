package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/imc/internal/config"
	"github.com/JonMunkholm/imc/internal/logging"
)

// Service runs one BMI batch as configured.
type Service struct {
	cfg *config.Config
}

// NewService validates the configuration and returns a Service.
func NewService(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidOption)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	return &Service{cfg: cfg}, nil
}

// readOptions translates the input configuration.
func (s *Service) readOptions() ReadOptions {
	return ReadOptions{
		Delimiter: s.cfg.Input.DelimiterRune(),
		Encoding:  s.cfg.Input.Encoding,
		Sheet:     s.cfg.Input.Sheet,
	}
}

// Run reads the input, classifies every row and writes the output.
//
// The flow is strictly linear: read → resolve columns and decimal →
// normalize and compute per row → write. Configuration errors abort
// before any output exists; under PolicySkip bad rows are emitted with
// empty results and counted.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx)

	in, out := s.cfg.Input, s.cfg.Output
	logger.Info("run started", "input", in.Path, "output", out.Path)

	table, err := ReadTable(ctx, in.Path, s.readOptions())
	if err != nil {
		return nil, err
	}

	naming := ColumnNaming(out.ColumnNames)
	outHeader, err := OutputHeader(table.Header, naming)
	if err != nil {
		return nil, err
	}

	weightCol, heightCol, err := ResolveColumns(table.Header, s.cfg.Columns.Weight, s.cfg.Columns.Height)
	if err != nil {
		return nil, err
	}

	idx := table.Index()
	decimal := s.cfg.Input.DecimalByte()
	if decimal == 0 {
		decimal = DetectDecimal(table.Records, idx, weightCol, heightCol)
	}
	table.Format.Decimal = decimal

	logger.Info("input resolved",
		"rows", len(table.Records),
		"weight_column", weightCol,
		"height_column", heightCol,
		"delimiter", string(table.Format.Delimiter),
		"decimal", string(decimal),
	)

	normalizer := NewNormalizer(idx, weightCol, heightCol, decimal,
		HeightUnit(s.cfg.Rows.HeightUnit), s.cfg.Rows.HeightThreshold)
	invalid, err := s.classifyRecords(ctx, table.Records, normalizer)
	if err != nil {
		return nil, err
	}

	opts := WriteOptions{
		Delimiter: out.DelimiterRune(),
		Decimal:   out.DecimalByte(),
		Encoding:  out.Encoding,
		Naming:    naming,
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = table.Format.Delimiter
	}
	if err := WriteTable(ctx, out.Path, table, opts); err != nil {
		return nil, err
	}

	outFormat := opts.Format(out.Path)
	result := &RunResult{
		RunID:        runID,
		InputPath:    in.Path,
		OutputPath:   out.Path,
		InputFormat:  table.Format,
		OutputFormat: outFormat,
		WeightColumn: weightCol,
		HeightColumn: heightCol,
		TotalRows:    len(table.Records),
		ValidRows:    len(table.Records) - invalid,
		InvalidRows:  invalid,
		PreviewRows:  buildPreview(outHeader, table.Records, outFormat.Decimal, out.Preview),
		Duration:     time.Since(start),
	}

	logger.Info("run completed",
		"rows", result.TotalRows,
		"valid", result.ValidRows,
		"invalid", result.InvalidRows,
		"duration", result.Duration,
	)
	return result, nil
}

// classifyRecords fills the derived fields in place and returns how many
// rows could not be computed. Under PolicyStrict the first bad row is
// returned as a *RowError.
func (s *Service) classifyRecords(ctx context.Context, records []PatientRecord, n *Normalizer) (int, error) {
	logger := logging.FromContext(ctx)
	strict := ErrorPolicy(s.cfg.Rows.Policy) == PolicyStrict
	invalid := 0

	for i := range records {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, fmt.Errorf("run cancelled at line %d: %w", records[i].Line, err)
			}
		}

		rec := &records[i]
		m, err := n.Normalize(*rec)
		if err != nil {
			if strict {
				rowErr := &RowError{Line: rec.Line}
				if !errors.As(err, &rowErr.Cause) {
					rowErr.Cause = ValidationError{Message: err.Error()}
				}
				return 0, rowErr
			}
			invalid++
			logger.Debug("row skipped", "line", rec.Line, "reason", err.Error())
			continue
		}

		rec.BMI, rec.Classification, rec.Valid = m.BMI()
	}

	if invalid > 0 {
		logger.Warn("rows with invalid measurements", "count", invalid)
	}
	return invalid, nil
}
