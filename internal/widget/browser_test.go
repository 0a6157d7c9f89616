package widget

import (
	"path/filepath"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	const url = "http://localhost:5006"

	tests := []struct {
		goos    string
		program string
		wantErr bool
	}{
		{"linux", "xdg-open", false},
		{"darwin", "open", false},
		{"windows", "rundll32", false},
		{"plan9", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			cmd, err := browserCommand(tt.goos, url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("browserCommand(%q) error = %v, wantErr %v", tt.goos, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := filepath.Base(cmd.Args[0]); got != tt.program {
				t.Errorf("program = %q, want %q", got, tt.program)
			}
			if last := cmd.Args[len(cmd.Args)-1]; last != url {
				t.Errorf("last arg = %q, want %q", last, url)
			}
		})
	}
}
