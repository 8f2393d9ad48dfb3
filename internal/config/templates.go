package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# OpenAlgo Options Scalper Configuration

[server]
# OpenAlgo API host
host_url = "http://127.0.0.1:5000"
# OpenAlgo API key (or set OPENALGO_API_KEY)
api_key = ""

[panel]
# Active symbol id from the [[symbols]] list
active_symbol_id = "default-nifty"
# UI mode: "scalping" or "quick"
ui_mode = "scalping"
# Theme: "dark" or "light"
theme = "dark"
# Strike selection mode: "moneyness" or "strike"
strike_mode = "moneyness"
# Initial ITM/OTM depth of the strike chain
extend_level = 5
# Fallback lot size when the symbol resolution omits it
lot_size_default = 25

[refresh]
# Refresh mode: "auto" or "manual"
mode = "auto"
# Auto refresh interval in seconds
interval_sec = 5

[refresh.areas]
funds = true
underlying = true
selected_strike = true

[feed]
# WebSocket tick relay URL
url = "ws://127.0.0.1:8765"
# Enable live tick data
enabled = false

[[symbols]]
id = "default-nifty"
symbol = "NIFTY"
exchange = "NSE_INDEX"
option_exchange = "NFO"
product = "MIS"
`

// createTemplateConfig writes a starter config.toml so the user has
// something to edit on first run.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0600)
}
