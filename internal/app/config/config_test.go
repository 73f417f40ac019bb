package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsAndMapsSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
seedlink:
  host: seis.example.org
  port: 18000
  selectors:
    - network: UU
      station: MPU
      channel: HHZ
      location: "01"
datalink:
  - host: ring.example.org
    identifier: uuss-bridge
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.General.LogLevel != "info" {
		t.Fatalf("General.LogLevel = %q, want %q", cfg.General.LogLevel, "info")
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9100")
	}
	if len(cfg.DataLink) != 1 || cfg.DataLink[0].Identifier != "uuss-bridge" {
		t.Fatalf("DataLink = %+v, want one section with identifier uuss-bridge", cfg.DataLink)
	}

	seedlinkOpts := cfg.SEEDLink.ToOptions()
	if len(seedlinkOpts.Selectors) != 1 || seedlinkOpts.Selectors[0].Station != "MPU" {
		t.Fatalf("ToOptions selectors = %+v", seedlinkOpts.Selectors)
	}

	datalinkOpts := cfg.DataLink[0].ToOptions()
	if datalinkOpts.Identifier != "uuss-bridge" {
		t.Fatalf("ToOptions identifier = %q, want uuss-bridge", datalinkOpts.Identifier)
	}
}

func TestLoadRejectsMissingDataLinkSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("seedlink:\n  host: seis.example.org\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing datalink section")
	}
}
