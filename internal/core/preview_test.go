package core

import (
	"strings"
	"testing"
)

func TestBuildPreview(t *testing.T) {
	header := []string{"peso", "altura", "bmi", "classification"}
	records := []PatientRecord{
		{Fields: []string{"60", "1.81"}, BMI: 18.3, Classification: Underweight, Valid: true},
		{Fields: []string{"x", "1.70"}},
		{Fields: []string{"75", "1.75"}, BMI: 24.5, Classification: Normal, Valid: true},
	}

	rows := buildPreview(header, records, ',', 2)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[1][2] != "18,3" {
		t.Errorf("BMI cell = %q, want 18,3", rows[1][2])
	}
	if rows[2][2] != "" || rows[2][3] != "" {
		t.Errorf("invalid row should have empty derived cells, got %q", rows[2])
	}

	if got := buildPreview(header, records, '.', 10); len(got) != 4 {
		t.Errorf("preview larger than table: got %d rows, want 4", len(got))
	}
	if got := buildPreview(header, records, '.', 0); got != nil {
		t.Errorf("preview disabled: got %q", got)
	}
}

func TestRenderPreview(t *testing.T) {
	if got := RenderPreview(nil); got != "" {
		t.Errorf("RenderPreview(nil) = %q, want empty", got)
	}

	out := RenderPreview([][]string{
		{"nome", "bmi", "classification"},
		{"Ana", "18.3", "Abaixo do peso"},
	})
	for _, want := range []string{"nome", "classification", "Ana", "Abaixo do peso"} {
		if !strings.Contains(out, want) {
			t.Errorf("preview missing %q:\n%s", want, out)
		}
	}
}
