package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/bayesplot/internal/posterior"
)

func TestRenderCmd_JSON(t *testing.T) {
	isolateHome(t)

	out, err := execute(t, newRenderCmd(), "render", "--mu0", "-1", "--sigma0", "0.5", "--n", "6", "--seed", "7")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var snap posterior.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := posterior.Params{Mu0: -1, Sigma0: 0.5, Sigma: 1, N: 6}
	if snap.Params != want {
		t.Errorf("params = %+v, want %+v", snap.Params, want)
	}
	visible := 0
	for _, m := range snap.Observations {
		if m.Visible {
			visible++
		}
	}
	if visible != 6 {
		t.Errorf("visible observations = %d, want 6", visible)
	}
}

func TestRenderCmd_SeedIsReproducible(t *testing.T) {
	isolateHome(t)

	args := []string{"render", "--format", "csv", "--n", "10", "--seed", "42"}
	first, err := execute(t, newRenderCmd(), args...)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := execute(t, newRenderCmd(), args...)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if first != second {
		t.Error("same seed produced different output")
	}
	if !strings.HasPrefix(first, "x,prior,posterior,sampling\n") {
		t.Errorf("csv header missing: %q", first[:min(len(first), 40)])
	}
}

func TestRenderCmd_PNGToFile(t *testing.T) {
	isolateHome(t)
	outPath := filepath.Join(t.TempDir(), "plot.png")

	if _, err := execute(t, newRenderCmd(), "render", "--format", "png", "-o", outPath, "--seed", "1"); err != nil {
		t.Fatalf("render: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "\x89PNG") {
		t.Error("output is not a PNG")
	}
}

func TestRenderCmd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad format", []string{"render", "--format", "gif"}, "unsupported format"},
		{"sigma0 zero", []string{"render", "--sigma0", "0"}, "sigma0"},
		{"n too large", []string{"render", "--n", "11"}, "n must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateHome(t)
			_, err := execute(t, newRenderCmd(), tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRenderCmd_InvalidParamsIsSentinel(t *testing.T) {
	isolateHome(t)
	_, err := execute(t, newRenderCmd(), "render", "--mu0", "7")
	if !errors.Is(err, posterior.ErrInvalidParams) {
		t.Errorf("error = %v, want ErrInvalidParams", err)
	}
}

func TestRenderCmd_UsesConfigDefaults(t *testing.T) {
	isolateHome(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfgYAML := "defaults:\n  mu0: 1.5\n  sigma0: 2\n  sigma: 0.5\n  n: 3\n"
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := execute(t, newRenderCmd(), "render", "--config", cfgPath, "--seed", "3")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var snap posterior.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := posterior.Params{Mu0: 1.5, Sigma0: 2, Sigma: 0.5, N: 3}
	if snap.Params != want {
		t.Errorf("params = %+v, want %+v", snap.Params, want)
	}
}

type closeRecorder struct {
	bytes.Buffer
	closeErr error
	closed   bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.closeErr
}

func TestWriteAndClose(t *testing.T) {
	errClose := errors.New("disk full")
	errWrite := errors.New("encode failed")

	tests := []struct {
		name     string
		closeErr error
		writeErr error
		want     error
	}{
		{"success", nil, nil, nil},
		{"close fails", errClose, nil, errClose},
		{"write fails", nil, errWrite, errWrite},
		{"write error wins over close error", errClose, errWrite, errWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wc := &closeRecorder{closeErr: tt.closeErr}
			err := writeAndClose(wc, func(w io.Writer) error {
				if _, err := io.WriteString(w, "plot"); err != nil {
					return err
				}
				return tt.writeErr
			})

			if tt.want == nil && err != nil {
				t.Errorf("writeAndClose() = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("writeAndClose() = %v, want %v", err, tt.want)
			}
			if !wc.closed {
				t.Error("output was not closed")
			}
			if wc.String() != "plot" {
				t.Errorf("written = %q, want %q", wc.String(), "plot")
			}
		})
	}
}
