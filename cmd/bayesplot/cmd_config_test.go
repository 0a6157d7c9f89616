package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigCmd_ShowsDefaults(t *testing.T) {
	isolateHome(t)

	out, err := execute(t, newConfigCmd(), "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, want := range []string{"localhost:5006", "30m0s", "sigma0: 1", "level: info"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCmd_EnvOverride(t *testing.T) {
	isolateHome(t)
	t.Setenv("BAYESPLOT_ADDR", "127.0.0.1:9000")

	out, err := execute(t, newConfigCmd(), "config", "--json")
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	var got struct {
		Server struct {
			Addr string `json:"addr"`
		} `json:"server"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("addr = %q, want 127.0.0.1:9000", got.Server.Addr)
	}
}

func TestConfigCmd_InvalidLevel(t *testing.T) {
	isolateHome(t)
	t.Setenv("BAYESPLOT_LOG_LEVEL", "verbose")

	if _, err := execute(t, newConfigCmd(), "config"); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestConfigPathCmd(t *testing.T) {
	home := isolateHome(t)

	out, err := execute(t, newConfigCmd(), "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	want := filepath.Join(home, ".bayesplot", "config.yaml")
	if strings.TrimSpace(out) != want {
		t.Errorf("path = %q, want %q", strings.TrimSpace(out), want)
	}
}
