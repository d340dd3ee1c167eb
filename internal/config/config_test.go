package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	def := DefaultConfig()
	if cfg.General.Tier != def.General.Tier || cfg.Thresholds != def.Thresholds {
		t.Errorf("cfg = %+v, want defaults", cfg.General)
	}
	if len(cfg.Columns.Aliases) != len(def.Columns.Aliases) {
		t.Errorf("aliases = %d, want %d", len(cfg.Columns.Aliases), len(def.Columns.Aliases))
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[general]
tier = "plus"

[thresholds]
alert_pct = 0.12
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.General.Tier != "plus" {
		t.Errorf("tier = %q, want plus", cfg.General.Tier)
	}
	if cfg.Thresholds.AlertPct != 0.12 {
		t.Errorf("alert_pct = %v, want 0.12", cfg.Thresholds.AlertPct)
	}
	if cfg.Thresholds.TopN != DefaultThresholds().TopN {
		t.Errorf("top_n = %d, want default %d", cfg.Thresholds.TopN, DefaultThresholds().TopN)
	}
	if cfg.General.Scale != "raw" {
		t.Errorf("scale = %q, want raw", cfg.General.Scale)
	}
}

func TestLoadFrom_AliasesReplaceDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[[columns.alias]]
canonical = "Planned"
names = ["Budget"]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if len(cfg.Columns.Aliases) != 1 {
		t.Fatalf("aliases = %d, want 1", len(cfg.Columns.Aliases))
	}
	if a := cfg.Columns.Aliases[0]; a.Canonical != "Planned" || len(a.Names) != 1 || a.Names[0] != "Budget" {
		t.Errorf("alias = %+v, want Planned <- [Budget]", a)
	}
}

func TestLoadFrom_InvalidThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[thresholds]\ntop_n = 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom accepted top_n = 0")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.General.Tier = "standard"
	cfg.Appearance.Theme = "tokyo-night"
	cfg.Thresholds.ReallocationBand = 500

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.General.Tier != "standard" || got.Appearance.Theme != "tokyo-night" {
		t.Errorf("got %+v %+v", got.General, got.Appearance)
	}
	if got.Thresholds.ReallocationBand != 500 {
		t.Errorf("reallocation_band = %v, want 500", got.Thresholds.ReallocationBand)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("BUDGETLENS_ADDR", "0.0.0.0:9000")
	t.Setenv("BUDGETLENS_TIER", "plus")
	t.Setenv("BUDGETLENS_MAX_UPLOAD_MB", "bogus")
	t.Setenv("BUDGETLENS_ALERT_PCT", "0.2")

	cfg := DefaultConfig()
	ApplyEnv(&cfg)

	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("addr = %q, want 0.0.0.0:9000", cfg.Server.Addr)
	}
	if cfg.General.Tier != "plus" {
		t.Errorf("tier = %q, want plus", cfg.General.Tier)
	}
	if cfg.Server.MaxUploadMB != DefaultConfig().Server.MaxUploadMB {
		t.Errorf("max_upload_mb = %d, want default for unparsable value", cfg.Server.MaxUploadMB)
	}
	if cfg.Thresholds.AlertPct != 0.2 {
		t.Errorf("alert_pct = %v, want 0.2", cfg.Thresholds.AlertPct)
	}
}

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Thresholds)
		wantErr bool
	}{
		{"defaults", func(*Thresholds) {}, false},
		{"zero top n", func(th *Thresholds) { th.TopN = 0 }, true},
		{"negative alert", func(th *Thresholds) { th.AlertPct = -0.01 }, true},
		{"negative band", func(th *Thresholds) { th.ReallocationBand = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)
			if err := th.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
