// Package core provides the BMI batch logic: reading a patient table,
// normalizing each row's weight and height, computing the BMI with its WHO
// classification, and writing the augmented table.
//
// The package has no UI or transport concerns. The command in cmd/imc
// builds a [config.Config], hands it to [NewService] and prints the
// returned [RunResult].
//
// # Pipeline
//
// A run is one sequential pass:
//
//  1. [ReadTable] opens the CSV or .xlsx input, decodes it to UTF-8 and
//     detects the delimiter unless one is configured.
//  2. [ResolveColumns] finds the weight and height columns by synonym
//     (peso, altura, weight_kg, height_cm, ...) or by explicit name.
//  3. [DetectDecimal] picks the decimal separator from those columns
//     unless one is configured.
//  4. [Normalizer] turns each row into exact kilograms and meters. Heights
//     above the threshold (3 by default) are read as centimeters.
//  5. [ComputeBMI] divides the exact decimals, rounds weight/height² half-up
//     to one decimal and classifies the rounded value.
//  6. [WriteTable] writes every input row, in order and unchanged,
//     followed by the BMI and classification columns.
//
// # Classification
//
// Each bucket's upper bound is inclusive:
//
//	BMI <= 18.5   Abaixo do peso
//	BMI <= 25.0   Peso normal
//	BMI <= 30.0   Sobrepeso
//	BMI <= 35.0   Obesidade Grau I
//	BMI <= 40.0   Obesidade Grau II
//	BMI >  40.0   Obesidade Grau III
//
// # Invalid Rows
//
// Rows whose weight or height is empty, not a number or not positive, and
// rows whose BMI would not be finite, are still written, with empty derived cells, and counted in
// [RunResult.InvalidRows]. With [PolicyStrict] the first such row aborts
// the run with a [*RowError] instead.
//
// # Error Handling
//
// Fatal errors wrap the sentinels in errors.go. [MapError] turns them into
// operator messages with a support code and [ExitCode] into the process
// status:
//
//   - FILE001-FILE007: input and output file errors
//   - COL001-COL003: column discovery errors
//   - ROW001: strict-mode row error
//   - CFG001: invalid option
//   - RUN001: cancelled run
package core
