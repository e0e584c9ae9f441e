package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadFromString("")
	if err != nil {
		t.Fatalf("LoadFromString failed: %v", err)
	}
	if cfg.Telescope != "MWA" {
		t.Errorf("Telescope = %q, want MWA", cfg.Telescope)
	}
	if cfg.Output.Path != "visibilities.mwav" {
		t.Errorf("Output.Path = %q, want visibilities.mwav", cfg.Output.Path)
	}
	if cfg.Catalog.Enabled {
		t.Error("Catalog.Enabled should default to false")
	}
	if cfg.Catalog.Path != "data/observations.db" {
		t.Errorf("Catalog.Path = %q, want data/observations.db", cfg.Catalog.Path)
	}
	if !cfg.Flagging.UseMetafitsFlags {
		t.Error("Flagging.UseMetafitsFlags should default to true")
	}
	if cfg.Log.Debug {
		t.Error("Log.Debug should default to false")
	}
}

func TestLoadFromString(t *testing.T) {
	data := `
telescope: MWA
output:
  path: /tmp/obs.mwav
catalog:
  enabled: true
  path: /tmp/catalog.db
flagging:
  use_metafits_flags: false
  extra_antennas: [31, 80]
log:
  debug: true
`
	cfg, err := LoadFromString(data)
	if err != nil {
		t.Fatalf("LoadFromString failed: %v", err)
	}
	if cfg.Output.Path != "/tmp/obs.mwav" {
		t.Errorf("Output.Path = %q", cfg.Output.Path)
	}
	if !cfg.Catalog.Enabled || cfg.Catalog.Path != "/tmp/catalog.db" {
		t.Errorf("Catalog = %+v", cfg.Catalog)
	}
	if cfg.Flagging.UseMetafitsFlags {
		t.Error("UseMetafitsFlags should be false")
	}
	if len(cfg.Flagging.ExtraAntennas) != 2 || cfg.Flagging.ExtraAntennas[0] != 31 || cfg.Flagging.ExtraAntennas[1] != 80 {
		t.Errorf("ExtraAntennas = %v", cfg.Flagging.ExtraAntennas)
	}
	if !cfg.Log.Debug {
		t.Error("Log.Debug should be true")
	}
}

func TestPartialOverride(t *testing.T) {
	cfg, err := LoadFromString("output:\n  path: out.mwav\n")
	if err != nil {
		t.Fatalf("LoadFromString failed: %v", err)
	}
	if cfg.Output.Path != "out.mwav" {
		t.Errorf("Output.Path = %q", cfg.Output.Path)
	}
	if cfg.Telescope != "MWA" {
		t.Errorf("Telescope = %q, want default MWA", cfg.Telescope)
	}
	if !cfg.Flagging.UseMetafitsFlags {
		t.Error("UseMetafitsFlags default lost on partial override")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("telescope: HERA\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Telescope != "HERA" {
		t.Errorf("Telescope = %q, want HERA", cfg.Telescope)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"empty telescope", "telescope: \"\"\n", "telescope"},
		{"empty output path", "output:\n  path: \"\"\n", "output.path"},
		{"catalog enabled without path", "catalog:\n  enabled: true\n  path: \"\"\n", "catalog.path"},
		{"bad yaml", "telescope: [unclosed\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromString(tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
