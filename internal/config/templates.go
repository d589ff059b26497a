package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# gecko-watch Configuration

[api]
# Upstream price provider base URL
base_url = "https://api.coingecko.com/api/v3"
# Per-request timeout (e.g., "15s")
timeout = "15s"
# Attempts per request, with exponential backoff between them
max_attempts = 3

[store]
# Path to the local sqlite database (empty: <config dir>/gecko-watch.db)
path = ""

[monitor]
# How often the trigger monitor sweeps stored triggers
interval = "60s"

[display]
# Show the full coin catalog instead of favourites only
show_all_coins = false
# Show the full currency catalog instead of favourites only
show_all_currencies = false

[notifications]
enabled = true

[notifications.desktop]
enabled = true

[notifications.webhook]
enabled = false
url = ""

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""
`

// createTemplateConfig writes a commented config template into configDir.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}
