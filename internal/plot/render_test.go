package plot

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nvandessel/bayesplot/internal/posterior"
)

func testSnapshot() posterior.Snapshot {
	seeds := posterior.RegenerateObservations(posterior.SeededSource(11), posterior.MaxObservations)
	return posterior.Compute(posterior.Params{Mu0: 0, Sigma0: 1, Sigma: 1, N: 5}, seeds)
}

func TestRender_PNG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, testSnapshot(), FormatPNG); err != nil {
		t.Fatalf("Render PNG: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("output does not start with the PNG signature")
	}
}

func TestRender_SVG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, testSnapshot(), FormatSVG); err != nil {
		t.Fatalf("Render SVG: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<svg") {
		t.Error("expected <svg element")
	}
	if !strings.Contains(out, Title) {
		t.Errorf("expected title %q in SVG", Title)
	}
	for _, name := range []string{"prior", "posterior", "sampling"} {
		if !strings.Contains(out, name) {
			t.Errorf("expected legend entry %q", name)
		}
	}
}

func TestRender_NarrowPosteriorIsClipped(t *testing.T) {
	snap := posterior.Compute(posterior.Params{Mu0: 0, Sigma0: 0.01, Sigma: 0.01, N: 10}, make(posterior.Seeds, posterior.MaxObservations))
	var buf bytes.Buffer
	if err := Render(&buf, snap, FormatPNG); err != nil {
		t.Fatalf("Render PNG with peaked densities: %v", err)
	}
}

func TestRender_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, testSnapshot(), FormatCSV); err != nil {
		t.Fatalf("Render CSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	if len(records) != posterior.GridSize+1 {
		t.Fatalf("got %d records, want %d", len(records), posterior.GridSize+1)
	}
	if got := strings.Join(records[0], ","); got != "x,prior,posterior,sampling" {
		t.Errorf("header = %q", got)
	}
	if records[1][0] != "-5" || records[len(records)-1][0] != "5" {
		t.Errorf("x column spans %s..%s, want -5..5", records[1][0], records[len(records)-1][0])
	}
}

func TestRender_JSON(t *testing.T) {
	snap := testSnapshot()
	var buf bytes.Buffer
	if err := Render(&buf, snap, FormatJSON); err != nil {
		t.Fatalf("Render JSON: %v", err)
	}

	var got posterior.Snapshot
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if got.PosteriorMean != snap.PosteriorMean || got.Params != snap.Params {
		t.Errorf("decoded snapshot differs: %+v vs %+v", got.Params, snap.Params)
	}
}

func TestRender_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, testSnapshot(), Format("gif")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFormatContentType(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatPNG, "image/png"},
		{FormatSVG, "image/svg+xml"},
		{FormatCSV, "text/csv; charset=utf-8"},
		{FormatJSON, "application/json"},
		{Format("other"), "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := tt.format.ContentType(); got != tt.want {
			t.Errorf("%s.ContentType() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestClip(t *testing.T) {
	got := clip([]float64{-1, 0.5, 3}, posterior.Range{Min: 0, Max: 1.1})
	want := []float64{0, 0.5, 1.1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("clip[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
