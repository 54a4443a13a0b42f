package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/JonMunkholm/imc/internal/config"
	"github.com/JonMunkholm/imc/internal/core"
	"github.com/JonMunkholm/imc/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		return reportError(stderr, err)
	}
	return core.ExitOK
}

// reportError prints the operator message for err and returns its exit
// code. Errors without a dedicated message are logged as unexpected.
func reportError(stderr io.Writer, err error) int {
	ue := core.NewUserError(err)
	if core.IsUserFacing(err) {
		slog.Debug("run failed", "code", ue.User.Code, "error", ue.Technical)
	} else {
		slog.Error("unexpected error", "code", ue.User.Code, "error", ue.Technical)
	}
	fmt.Fprintln(stderr, core.FormatUserError(err))
	return core.ExitCode(err)
}

const longHelp = `imc reads a patient table (CSV or .xlsx), computes each patient's Body
Mass Index from the weight (kg) and height (m or cm) columns, and writes a
copy of the table with two extra columns: the BMI (one decimal) and its WHO
classification.

Delimiter, decimal separator and the weight/height columns are detected
automatically unless given. Rows whose weight or height cannot be read are
kept with empty results and counted.`

// classificationHelp lists the WHO bands applied to the rounded BMI.
func classificationHelp() string {
	var b strings.Builder
	b.WriteString("WHO classification of the rounded BMI:")
	lower := ""
	for _, bucket := range core.Classifications() {
		if math.IsInf(bucket.Upper, 1) {
			fmt.Fprintf(&b, "\n  above %-6s %s", lower, bucket.Label)
			continue
		}
		upper := core.FormatBMI(bucket.Upper, '.')
		fmt.Fprintf(&b, "\n  up to %-6s %s", upper, bucket.Label)
		lower = upper
	}
	return b.String()
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "imc [input]",
		Short: "Compute BMI and WHO classification for a patient table",
		Long:  longHelp + "\n\n" + classificationHelp(),
		Example: `  imc pacientes.csv -o resultado.csv
  imc pacientes.csv --delimiter ";" --decimal "," --output-decimal ","
  imc planilha.xlsx --weight-column "Peso (kg)" --height-column "Altura (cm)" --height-unit cm`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("%w: expected at most one input file, got %d", core.ErrInvalidOption, len(args))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format, stderr)
			slog.Debug("configuration loaded", "config", cfg.String())

			svc, err := core.NewService(cfg)
			if err != nil {
				return err
			}
			result, err := svc.Run(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(stdout, result)
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", core.ErrInvalidOption, err)
	})

	f := cmd.Flags()
	f.StringP("output", "o", def.Output.Path, "output file (.csv or .xlsx)")
	f.String("delimiter", def.Input.Delimiter, `input delimiter: ",", ";" or tab (default: detect)`)
	f.String("decimal", def.Input.Decimal, `input decimal separator: "," or "." (default: detect)`)
	f.String("encoding", def.Input.Encoding, "input text encoding")
	f.String("sheet", def.Input.Sheet, "worksheet of an .xlsx input (default: first)")
	f.String("output-delimiter", def.Output.Delimiter, "output delimiter (default: input delimiter)")
	f.String("output-decimal", def.Output.Decimal, "decimal separator of the BMI column")
	f.String("output-encoding", def.Output.Encoding, "output text encoding")
	f.String("column-names", def.Output.ColumnNames, "derived column names: en (bmi, classification) or pt (imc, categoria_imc)")
	f.Int("preview", def.Output.Preview, "output rows to print after the run (0 disables)")
	f.String("weight-column", def.Columns.Weight, "weight column name (default: detect)")
	f.String("height-column", def.Columns.Height, "height column name (default: detect)")
	f.String("height-unit", def.Rows.HeightUnit, "height unit: auto, m or cm")
	f.Float64("height-threshold", def.Rows.HeightThreshold, "auto heights above this are read as centimeters")
	f.String("policy", def.Rows.Policy, "invalid rows: skip (count and continue) or strict (abort)")
	f.String("log-level", def.Logging.Level, "log level: debug, info, warn, error")
	f.String("log-format", def.Logging.Format, "log format: text or json")
	f.String("config", "", "defaults file with KEY=VALUE lines (e.g. DECIMAL=,)")

	return cmd
}

// loadConfig merges the defaults file, changed flags and the positional
// input into a validated Config.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	keys := config.FlagKeys()
	overrides := make(map[string]string)
	cmd.Flags().Visit(func(fl *pflag.Flag) {
		if key, ok := keys[fl.Name]; ok {
			overrides[key] = fl.Value.String()
		}
	})
	if len(args) == 1 {
		overrides["INPUT"] = args[0]
	}

	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(file, overrides)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidOption, err)
	}
	return cfg, nil
}

// printSummary reports counts, resolved formats and the preview.
func printSummary(w io.Writer, r *core.RunResult) {
	fmt.Fprintf(w, "Processed %d rows. Valid: %d. Invalid data: %d.\n",
		r.TotalRows, r.ValidRows, r.InvalidRows)
	fmt.Fprintf(w, "Output written to %s (delimiter=%s, decimal_in=%q, decimal_out=%q).\n",
		r.OutputPath, displayDelimiter(r.InputFormat), string(r.InputFormat.Decimal), string(r.OutputFormat.Decimal))
	fmt.Fprintf(w, "Columns: weight=%q height=%q\n", r.WeightColumn, r.HeightColumn)

	if preview := core.RenderPreview(r.PreviewRows); preview != "" {
		fmt.Fprintf(w, "\nPreview (first %d rows):\n%s\n", len(r.PreviewRows)-1, preview)
	}
}

func displayDelimiter(f core.TableFormat) string {
	switch f.Delimiter {
	case 0:
		return "n/a"
	case '\t':
		return "tab"
	default:
		return fmt.Sprintf("%q", string(f.Delimiter))
	}
}
