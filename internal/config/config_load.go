package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/titanous/json5"
)

// Load reads config from a JSON5 file, then overlays secrets from the
// environment. A missing file is not an error — it yields Default()
// plus env overrides, matching a zero-config first run.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays secret environment variables onto the config.
// Secrets are never read from the JSON file so a config.json can be
// committed or shared without leaking a bot token or data-API key.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("FORGEBOT_TELEGRAM_TOKEN", &c.Channels.Telegram.Token)
	envStr("FORGEBOT_DISCORD_TOKEN", &c.Channels.Discord.Token)
	envStr("FORGEBOT_DATA_API_BASE_URL", &c.DataAPI.BaseURL)
	envStr("FORGEBOT_DATA_API_KEY", &c.DataAPI.ServiceKey)

	if v := os.Getenv("FORGEBOT_WALLET_CHAIN_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Wallet.DefaultChainID = n
		}
	}
}

// Save writes the config back to disk, excluding any field tagged `json:"-"`
// (tokens, service keys) so secrets never land on disk via this path.
func Save(path string, cfg *Config) error {
	cfg.mu.RLock()
	data, err := json.MarshalIndent(cfg, "", "  ")
	cfg.mu.RUnlock()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0600)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}

// Watcher hot-reloads the config file on write, swapping in a freshly
// loaded Config whenever the on-disk hash changes. Only the fields that
// are safe to change at runtime (menu pagination, TTLs, reaper cadence,
// wallet chain defaults) should be read from the reloaded value by
// callers; transports are not restarted on reload.
type Watcher struct {
	path    string
	mu      sync.RWMutex
	current *Config
	onSwap  func(*Config)
}

// NewWatcher starts watching path for changes and invokes onSwap (if
// non-nil) after every successful reload.
func NewWatcher(path string, initial *Config, onSwap func(*Config)) (*Watcher, error) {
	w := &Watcher{path: path, current: initial, onSwap: onSwap}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := fsw.Add(dir); err != nil {
			slog.Warn("config watcher: failed to watch directory", "dir", dir, "error", err)
		}
	}

	go func() {
		defer fsw.Close()
		lastHash := initial.Hash()
		for {
			select {
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				reloaded, err := Load(path)
				if err != nil {
					slog.Warn("config reload failed, keeping previous config", "error", err)
					continue
				}
				if reloaded.Hash() == lastHash {
					continue
				}
				lastHash = reloaded.Hash()
				w.mu.Lock()
				w.current = reloaded
				w.mu.Unlock()
				slog.Info("config reloaded", "path", path)
				if w.onSwap != nil {
					w.onSwap(reloaded)
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "error", err)
			}
		}
	}()

	return w, nil
}

// Current returns the most recently loaded config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}
