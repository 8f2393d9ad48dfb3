package config

import (
	"os"
	"path/filepath"
	"testing"

	"openalgo-scalper/internal/models"
)

func TestLoadCreatesTemplate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("template not created: %v", err)
	}

	// Defaults apply when the file is fresh.
	if cfg.Server.HostURL != "http://127.0.0.1:5000" {
		t.Errorf("host url = %q", cfg.Server.HostURL)
	}
	if cfg.Panel.ExtendLevel != 5 {
		t.Errorf("extend level = %d, want 5", cfg.Panel.ExtendLevel)
	}
	if cfg.Refresh.Mode != RefreshAuto {
		t.Errorf("refresh mode = %q, want auto", cfg.Refresh.Mode)
	}
	if cfg.IsConfigured() {
		t.Error("fresh config reports configured without an API key")
	}

	// A default symbol is seeded so the panel has something to trade.
	sym, ok := cfg.ActiveSymbol()
	if !ok || sym.Symbol != "NIFTY" {
		t.Errorf("active symbol = %+v, want default NIFTY", sym)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENALGO_HOST", "http://10.0.0.5:5000")
	t.Setenv("OPENALGO_API_KEY", "env-key")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HostURL != "http://10.0.0.5:5000" {
		t.Errorf("host url = %q, env override ignored", cfg.Server.HostURL)
	}
	if cfg.Server.APIKey != "env-key" {
		t.Errorf("api key = %q, env override ignored", cfg.Server.APIKey)
	}
	if !cfg.IsConfigured() {
		t.Error("config with host and key not reported configured")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Panel:   PanelConfig{UIMode: "scalping", StrikeMode: "moneyness", ExtendLevel: 5},
			Refresh: RefreshConfig{Mode: RefreshAuto, IntervalSec: 5},
			Symbols: []SymbolConfig{{ID: "n", Symbol: "NIFTY"}},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad ui mode", func(c *Config) { c.Panel.UIMode = "fancy" }},
		{"bad strike mode", func(c *Config) { c.Panel.StrikeMode = "delta" }},
		{"bad refresh mode", func(c *Config) { c.Refresh.Mode = "sometimes" }},
		{"zero interval", func(c *Config) { c.Refresh.IntervalSec = 0 }},
		{"zero extend level", func(c *Config) { c.Panel.ExtendLevel = 0 }},
		{"symbol without id", func(c *Config) { c.Symbols[0].ID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("invalid config accepted")
			}
		})
	}
}

func TestSymbolConfigModel(t *testing.T) {
	s := SymbolConfig{ID: "n", Symbol: "NIFTY", Exchange: "NSE_INDEX"}
	m := s.Model()
	if m.OptionExchange != models.NFO {
		t.Errorf("option exchange = %s, want derived NFO", m.OptionExchange)
	}
	if m.Product != models.ProductMIS {
		t.Errorf("product = %s, want default MIS", m.Product)
	}

	b := SymbolConfig{ID: "s", Symbol: "SENSEX", Exchange: "BSE_INDEX"}
	if got := b.Model().OptionExchange; got != models.BFO {
		t.Errorf("option exchange = %s, want BFO", got)
	}
}
