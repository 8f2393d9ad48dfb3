// Package config provides configuration management for the scalping panel.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"openalgo-scalper/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Panel   PanelConfig    `mapstructure:"panel"`
	Refresh RefreshConfig  `mapstructure:"refresh"`
	Feed    FeedConfig     `mapstructure:"feed"`
	Symbols []SymbolConfig `mapstructure:"symbols"`
}

// ServerConfig holds the OpenAlgo API server configuration.
type ServerConfig struct {
	HostURL string `mapstructure:"host_url"`
	APIKey  string `mapstructure:"api_key"`
}

// PanelConfig holds panel behaviour configuration.
type PanelConfig struct {
	ActiveSymbolID string `mapstructure:"active_symbol_id"`
	UIMode         string `mapstructure:"ui_mode"`     // "scalping", "quick"
	Theme          string `mapstructure:"theme"`       // "dark", "light"
	StrikeMode     string `mapstructure:"strike_mode"` // "moneyness", "strike"
	ExtendLevel    int    `mapstructure:"extend_level"`
	LotSizeDefault int    `mapstructure:"lot_size_default"`
}

// Refresh modes.
const (
	RefreshAuto   = "auto"
	RefreshManual = "manual"
)

// RefreshConfig holds data refresh configuration.
type RefreshConfig struct {
	Mode        string       `mapstructure:"mode"` // "auto", "manual"
	IntervalSec int          `mapstructure:"interval_sec"`
	Areas       RefreshAreas `mapstructure:"areas"`
}

// RefreshAreas toggles which surfaces the periodic refresh touches.
type RefreshAreas struct {
	Funds          bool `mapstructure:"funds"`
	Underlying     bool `mapstructure:"underlying"`
	SelectedStrike bool `mapstructure:"selected_strike"`
}

// FeedConfig holds live tick feed configuration.
type FeedConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

// SymbolConfig describes one configured underlying.
type SymbolConfig struct {
	ID             string `mapstructure:"id"`
	Symbol         string `mapstructure:"symbol"`
	Exchange       string `mapstructure:"exchange"`
	OptionExchange string `mapstructure:"option_exchange"`
	Product        string `mapstructure:"product"`
}

// Model converts a SymbolConfig to its domain model, deriving the option
// exchange from the underlying exchange when not set explicitly.
func (s SymbolConfig) Model() models.SymbolConfig {
	optEx := models.Exchange(s.OptionExchange)
	if optEx == "" {
		optEx = models.DeriveOptionExchange(models.Exchange(s.Exchange))
	}
	product := models.ProductType(s.Product)
	if product == "" {
		product = models.ProductMIS
	}
	return models.SymbolConfig{
		ID:             s.ID,
		Symbol:         s.Symbol,
		Exchange:       models.Exchange(s.Exchange),
		OptionExchange: optEx,
		Product:        product,
	}
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/openalgo-scalper"
	}
	return filepath.Join(home, ".config", "openalgo-scalper")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("creating config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []SymbolConfig{{
			ID:             "default-nifty",
			Symbol:         "NIFTY",
			Exchange:       "NSE_INDEX",
			OptionExchange: "NFO",
			Product:        "MIS",
		}}
	}
	if cfg.Panel.ActiveSymbolID == "" {
		cfg.Panel.ActiveSymbolID = cfg.Symbols[0].ID
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host_url", "http://127.0.0.1:5000")
	v.SetDefault("panel.ui_mode", "scalping")
	v.SetDefault("panel.theme", "dark")
	v.SetDefault("panel.strike_mode", "moneyness")
	v.SetDefault("panel.extend_level", 5)
	v.SetDefault("panel.lot_size_default", 25)
	v.SetDefault("refresh.mode", "auto")
	v.SetDefault("refresh.interval_sec", 5)
	v.SetDefault("refresh.areas.funds", true)
	v.SetDefault("refresh.areas.underlying", true)
	v.SetDefault("refresh.areas.selected_strike", true)
	v.SetDefault("feed.url", "ws://127.0.0.1:8765")
	v.SetDefault("feed.enabled", false)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENALGO_HOST"); v != "" {
		cfg.Server.HostURL = v
	}
	if v := os.Getenv("OPENALGO_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("OPENALGO_WS_URL"); v != "" {
		cfg.Feed.URL = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Panel.UIMode != "scalping" && c.Panel.UIMode != "quick" {
		return fmt.Errorf("invalid ui_mode: %s (must be 'scalping' or 'quick')", c.Panel.UIMode)
	}
	if c.Panel.StrikeMode != "moneyness" && c.Panel.StrikeMode != "strike" {
		return fmt.Errorf("invalid strike_mode: %s (must be 'moneyness' or 'strike')", c.Panel.StrikeMode)
	}
	if c.Refresh.Mode != RefreshAuto && c.Refresh.Mode != RefreshManual {
		return fmt.Errorf("invalid refresh mode: %s (must be 'auto' or 'manual')", c.Refresh.Mode)
	}
	if c.Refresh.IntervalSec <= 0 {
		return fmt.Errorf("refresh interval_sec must be positive")
	}
	if c.Panel.ExtendLevel <= 0 {
		return fmt.Errorf("panel extend_level must be positive")
	}
	for i, s := range c.Symbols {
		if s.ID == "" || s.Symbol == "" {
			return fmt.Errorf("symbols[%d]: id and symbol are required", i)
		}
	}
	return nil
}

// IsConfigured reports whether the API host and key are both set.
// Without these the panel stays visibly unconfigured and no request is
// attempted.
func (c *Config) IsConfigured() bool {
	return c.Server.HostURL != "" && c.Server.APIKey != ""
}

// ActiveSymbol returns the configured symbol matching ActiveSymbolID,
// falling back to the first entry.
func (c *Config) ActiveSymbol() (models.SymbolConfig, bool) {
	if len(c.Symbols) == 0 {
		return models.SymbolConfig{}, false
	}
	for _, s := range c.Symbols {
		if s.ID == c.Panel.ActiveSymbolID {
			return s.Model(), true
		}
	}
	return c.Symbols[0].Model(), true
}
