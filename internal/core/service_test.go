package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/imc/internal/config"
)

const scenarioCSV = `nome,peso,altura
P1,60,1.81
P2,75,1.75
P3,85,1.78
P4,105,1.80
P5,115,1.70
P6,120,1.65
`

const scenarioOutput = `nome,peso,altura,bmi,classification
P1,60,1.81,18.3,Abaixo do peso
P2,75,1.75,24.5,Peso normal
P3,85,1.78,26.8,Sobrepeso
P4,105,1.80,32.4,Obesidade Grau I
P5,115,1.70,39.8,Obesidade Grau II
P6,120,1.65,44.1,Obesidade Grau III
`

// newRunConfig returns defaults pointing at input, with the output in a
// fresh temporary directory.
func newRunConfig(t *testing.T, input string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Input.Path = input
	cfg.Output.Path = filepath.Join(t.TempDir(), "resultados_imc.csv")
	return cfg
}

func runService(t *testing.T, cfg *config.Config) (*RunResult, error) {
	t.Helper()
	svc, err := NewService(cfg)
	require.NoError(t, err)
	return svc.Run(context.Background())
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRun_Scenarios(t *testing.T) {
	cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(scenarioCSV)))

	result, err := runService(t, cfg)
	require.NoError(t, err)

	assert.Equal(t, scenarioOutput, readOutput(t, cfg.Output.Path))
	assert.Equal(t, 6, result.TotalRows)
	assert.Equal(t, 6, result.ValidRows)
	assert.Equal(t, 0, result.InvalidRows)
	assert.Equal(t, "peso", result.WeightColumn)
	assert.Equal(t, "altura", result.HeightColumn)
	assert.Equal(t, ',', result.InputFormat.Delimiter)
	assert.Equal(t, byte('.'), result.InputFormat.Decimal)
	assert.NotEmpty(t, result.RunID)
}

func TestRun_Idempotent(t *testing.T) {
	cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(scenarioCSV)))

	_, err := runService(t, cfg)
	require.NoError(t, err)
	first := readOutput(t, cfg.Output.Path)

	_, err = runService(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, readOutput(t, cfg.Output.Path))
}

func TestRun_RoundTripsOriginalColumns(t *testing.T) {
	input := "id;Nome Completo;peso;altura;obs\n" +
		"1;\"Silva; Ana\";60,5;1,62;\n" +
		"2;Bruno;x;1,80;sem peso\n" +
		"3;Carla;70;165;  espaços  \n"
	inPath := writeTestFile(t, "pacientes.csv", []byte(input))
	cfg := newRunConfig(t, inPath)

	_, err := runService(t, cfg)
	require.NoError(t, err)

	in, err := ReadTable(context.Background(), inPath, ReadOptions{})
	require.NoError(t, err)
	out, err := ReadTable(context.Background(), cfg.Output.Path, ReadOptions{})
	require.NoError(t, err)

	require.Len(t, out.Records, len(in.Records))
	assert.Equal(t, in.Header, out.Header[:len(in.Header)])
	for i := range in.Records {
		assert.Equal(t, in.Records[i].Fields, out.Records[i].Fields[:len(in.Header)], "row %d", i)
	}
}

func TestRun_SemicolonCommaDecimal(t *testing.T) {
	input := "nome;peso;altura\nAna;60;1,81\nBia;72,5;1,68\n"
	cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(input)))
	cfg.Output.Decimal = ","

	result, err := runService(t, cfg)
	require.NoError(t, err)

	want := "nome;peso;altura;bmi;classification\n" +
		"Ana;60;1,81;18,3;Abaixo do peso\n" +
		"Bia;72,5;1,68;25,7;Sobrepeso\n"
	assert.Equal(t, want, readOutput(t, cfg.Output.Path))
	assert.Equal(t, byte(','), result.InputFormat.Decimal)
	assert.Equal(t, ';', result.OutputFormat.Delimiter)
}

func TestRun_OutputDecimalIndependentOfInput(t *testing.T) {
	input := "nome;peso;altura\nAna;60;1,81\n"
	cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(input)))
	cfg.Output.Delimiter = ","

	_, err := runService(t, cfg)
	require.NoError(t, err)

	want := "nome,peso,altura,bmi,classification\n" +
		"Ana,60,\"1,81\",18.3,Abaixo do peso\n"
	assert.Equal(t, want, readOutput(t, cfg.Output.Path))
}

func TestRun_RoundsHalfUpOnTypedDecimals(t *testing.T) {
	input := "nome;peso;altura\nAna;48;1,60\nBia;35,2;160\n"
	cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(input)))

	_, err := runService(t, cfg)
	require.NoError(t, err)

	want := "nome;peso;altura;bmi;classification\n" +
		"Ana;48;1,60;18.8;Peso normal\n" +
		"Bia;35,2;160;13.8;Abaixo do peso\n"
	assert.Equal(t, want, readOutput(t, cfg.Output.Path))
}

func TestRun_OutOfRangeBMI(t *testing.T) {
	tiny := "0." + strings.Repeat("0", 159) + "1"
	input := "nome,peso,altura\nAna,60,1.81\nBia,70," + tiny + "\n"

	t.Run("skip", func(t *testing.T) {
		cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(input)))

		result, err := runService(t, cfg)
		require.NoError(t, err)
		assert.Equal(t, 1, result.InvalidRows)

		out := readOutput(t, cfg.Output.Path)
		assert.Contains(t, out, "Bia,70,"+tiny+",,\n")
		assert.NotContains(t, out, "Inf")
	})

	t.Run("strict", func(t *testing.T) {
		cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(input)))
		cfg.Rows.Policy = "strict"

		_, err := runService(t, cfg)
		var rowErr *RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 3, rowErr.Line)
		assert.Equal(t, "altura", rowErr.Cause.Field)
		assert.Equal(t, "BMI out of range", rowErr.Cause.Message)
	})
}

func TestRun_HeightUnits(t *testing.T) {
	input := "nome,peso,altura_cm\nAna,75,175\nBia,60,181\n"

	t.Run("auto", func(t *testing.T) {
		cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(input)))
		_, err := runService(t, cfg)
		require.NoError(t, err)
		assert.Contains(t, readOutput(t, cfg.Output.Path), "Ana,75,175,24.5,Peso normal\n")
	})

	t.Run("forced meters", func(t *testing.T) {
		cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(input)))
		cfg.Rows.HeightUnit = "m"
		_, err := runService(t, cfg)
		require.NoError(t, err)
		// 75 / 175² rounds to 0.0.
		assert.Contains(t, readOutput(t, cfg.Output.Path), "Ana,75,175,0.0,Abaixo do peso\n")
	})
}

func TestRun_InvalidRowsKeptAndCounted(t *testing.T) {
	input := "nome,peso,altura\n" +
		"Ana,60,1.81\n" +
		"Bia,abc,1.70\n" +
		"Caio,70,0\n" +
		"Duda,,1.60\n" +
		"Eva,80\n"
	cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(input)))

	result, err := runService(t, cfg)
	require.NoError(t, err)

	want := "nome,peso,altura,bmi,classification\n" +
		"Ana,60,1.81,18.3,Abaixo do peso\n" +
		"Bia,abc,1.70,,\n" +
		"Caio,70,0,,\n" +
		"Duda,,1.60,,\n" +
		"Eva,80,,,\n"
	assert.Equal(t, want, readOutput(t, cfg.Output.Path))
	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 1, result.ValidRows)
	assert.Equal(t, 4, result.InvalidRows)
}

func TestRun_StrictPolicy(t *testing.T) {
	input := "nome,peso,altura\nAna,60,1.81\nBia,abc,1.70\n"
	cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(input)))
	cfg.Rows.Policy = "strict"

	_, err := runService(t, cfg)

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Line)
	assert.Equal(t, "peso", rowErr.Cause.Field)
	assert.ErrorIs(t, err, ErrInvalidRow)
	assert.NoFileExists(t, cfg.Output.Path)
}

func TestRun_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		setup   func(cfg *config.Config)
		wantErr error
	}{
		{
			name:    "weight column missing",
			input:   "nome,altura\nAna,1.81\n",
			wantErr: ErrColumnNotFound,
		},
		{
			name:    "height column ambiguous",
			input:   "nome,peso,altura,height_cm\nAna,60,1.81,181\n",
			wantErr: ErrAmbiguousColumn,
		},
		{
			name:    "explicit column missing",
			input:   scenarioCSV,
			setup:   func(cfg *config.Config) { cfg.Columns.Weight = "massa" },
			wantErr: ErrColumnNotFound,
		},
		{
			name:    "derived column collision",
			input:   "nome,peso,altura,bmi\nAna,60,1.81,18\n",
			wantErr: ErrColumnCollision,
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: ErrEmptyInput,
		},
		{
			name:    "unknown encoding",
			input:   scenarioCSV,
			setup:   func(cfg *config.Config) { cfg.Input.Encoding = "morse" },
			wantErr: ErrUnknownEncoding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(tt.input)))
			if tt.setup != nil {
				tt.setup(cfg)
			}

			_, err := runService(t, cfg)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, ExitConfigError, ExitCode(err))
			assert.NoFileExists(t, cfg.Output.Path)
		})
	}
}

func TestRun_HeaderOnly(t *testing.T) {
	cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte("nome;peso;altura\n")))

	result, err := runService(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalRows)
	assert.Equal(t, "nome;peso;altura;bmi;classification\n", readOutput(t, cfg.Output.Path))
}

func TestRun_ExplicitColumns(t *testing.T) {
	input := "nome,peso,altura,height_cm\nAna,60,1.81,181\n"
	cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(input)))
	cfg.Columns.Height = "height_cm"

	result, err := runService(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, "height_cm", result.HeightColumn)
	assert.Contains(t, readOutput(t, cfg.Output.Path), "Ana,60,1.81,181,18.3,Abaixo do peso\n")
}

func TestRun_PortugueseColumnNames(t *testing.T) {
	input := "nome,peso,altura,bmi\nAna,60,1.81,old\n"
	cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(input)))
	cfg.Output.ColumnNames = "pt"

	_, err := runService(t, cfg)
	require.NoError(t, err)
	assert.Equal(t,
		"nome,peso,altura,bmi,imc,categoria_imc\nAna,60,1.81,old,18.3,Abaixo do peso\n",
		readOutput(t, cfg.Output.Path))
}

func TestRun_MissingInput(t *testing.T) {
	cfg := newRunConfig(t, filepath.Join(t.TempDir(), "dados_pacientes.csv"))

	_, err := runService(t, cfg)
	assert.ErrorIs(t, err, ErrInputNotFound)
	assert.Equal(t, "FILE001", MapError(err).Code)
	assert.NoFileExists(t, cfg.Output.Path)
}

func TestRun_UnwritableOutput(t *testing.T) {
	cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(scenarioCSV)))
	cfg.Output.Path = filepath.Join(t.TempDir(), "missing", "out.csv")

	_, err := runService(t, cfg)
	assert.ErrorIs(t, err, ErrOutputUnwritable)
	assert.Equal(t, ExitConfigError, ExitCode(err))
}

func TestRun_Latin1InputUTF8Output(t *testing.T) {
	input := []byte("nome,peso,altura\nJo\xe3o,75,1.75\n")
	cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", input))
	cfg.Input.Encoding = "latin1"

	_, err := runService(t, cfg)
	require.NoError(t, err)
	assert.Equal(t,
		"nome,peso,altura,bmi,classification\nJoão,75,1.75,24.5,Peso normal\n",
		readOutput(t, cfg.Output.Path))
}

func TestRun_XLSXInputAndOutput(t *testing.T) {
	inPath := writeTestWorkbook(t, map[string][][]interface{}{
		"Pacientes": {
			{"Nome", "Peso (kg)", "Altura (m)"},
			{"Ana", 60, 1.81},
			{"Bia", 120, 1.65},
		},
	})
	cfg := newRunConfig(t, inPath)
	cfg.Output.Path = filepath.Join(t.TempDir(), "resultado.xlsx")

	result, err := runService(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, KindXLSX, result.InputFormat.Kind)
	assert.Equal(t, KindXLSX, result.OutputFormat.Kind)

	f, err := excelize.OpenFile(cfg.Output.Path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("IMC")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Nome", "Peso (kg)", "Altura (m)", "bmi", "classification"}, rows[0])
	assert.Equal(t, []string{"Ana", "60", "1.81", "18.3", "Abaixo do peso"}, rows[1])
	assert.Equal(t, "Obesidade Grau III", rows[2][4])

	cellType, err := f.GetCellType("IMC", "D2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, cellType, "BMI should be stored as a number")
}

func TestRun_Preview(t *testing.T) {
	cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(scenarioCSV)))
	cfg.Output.Preview = 2

	result, err := runService(t, cfg)
	require.NoError(t, err)
	require.Len(t, result.PreviewRows, 3)
	assert.Equal(t, []string{"nome", "peso", "altura", "bmi", "classification"}, result.PreviewRows[0])
	assert.Equal(t, "Abaixo do peso", result.PreviewRows[1][4])
}

func TestRun_Cancelled(t *testing.T) {
	cfg := newRunConfig(t, writeTestFile(t, "pacientes.csv", []byte(scenarioCSV)))
	svc, err := NewService(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.Equal(t, "RUN001", MapError(err).Code)
	assert.NoFileExists(t, cfg.Output.Path)
}

func TestNewService_InvalidConfig(t *testing.T) {
	_, err := NewService(nil)
	assert.ErrorIs(t, err, ErrInvalidOption)

	cfg := config.Default()
	cfg.Rows.Policy = "ignore"
	_, err = NewService(cfg)
	assert.ErrorIs(t, err, ErrInvalidOption)
}
