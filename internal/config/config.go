// Package config holds the root configuration for the dispatch core:
// chat transports, the internal data-API client, interaction TTLs, and
// the local event outbox.
package config

import (
	"encoding/json"
	"fmt"
	"sync"
)

// FlexibleStringSlice accepts both ["str"] and [123] in JSON config.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// Config is the root configuration for the dispatch core.
type Config struct {
	Channels    ChannelsConfig    `json:"channels"`
	DataAPI     DataAPIConfig     `json:"data_api"`
	Interaction InteractionConfig `json:"interaction,omitempty"`
	EventLog    EventLogConfig    `json:"event_log,omitempty"`
	Notify      NotifyConfig      `json:"notify,omitempty"`
	Telemetry   TelemetryConfig   `json:"telemetry,omitempty"`
	Wallet      WalletConfig      `json:"wallet,omitempty"`

	mu sync.RWMutex
}

// ChannelsConfig contains per-platform transport configuration.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
}

// TelegramConfig configures the Telegram long-polling transport.
type TelegramConfig struct {
	Enabled   bool                `json:"enabled"`
	Token     string              `json:"-"` // from env FORGEBOT_TELEGRAM_TOKEN only
	Proxy     string              `json:"proxy,omitempty"`
	AllowFrom FlexibleStringSlice `json:"allow_from,omitempty"`
	// EditRateRPS bounds inline-menu edits per chat (Telegram's own edit
	// rate limit is stricter than the send rate limit).
	EditRateRPS float64 `json:"edit_rate_rps,omitempty"`
}

// DiscordConfig configures the Discord gateway transport (secondary platform).
type DiscordConfig struct {
	Enabled   bool                `json:"enabled"`
	Token     string              `json:"-"` // from env FORGEBOT_DISCORD_TOKEN only
	AllowFrom FlexibleStringSlice `json:"allow_from,omitempty"`
}

// DataAPIConfig configures the HTTP client to the internal data API (C8).
type DataAPIConfig struct {
	BaseURL        string `json:"base_url"`
	ServiceKey     string `json:"-"` // from env FORGEBOT_DATA_API_KEY only
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// InteractionConfig tunes the in-memory reply-context / tweak-session stores (C2, C3).
type InteractionConfig struct {
	ReplyContextTTLMinutes int    `json:"reply_context_ttl_minutes,omitempty"`
	TweakSessionTTLMinutes int    `json:"tweak_session_ttl_minutes,omitempty"`
	ReaperCron             string `json:"reaper_cron,omitempty"` // cron expression, default "*/5 * * * *"
}

// EventLogConfig configures the local best-effort event outbox.
type EventLogConfig struct {
	DBPath          string `json:"db_path,omitempty"`
	FlushIntervalMS int    `json:"flush_interval_ms,omitempty"`
}

// NotifyConfig configures the websocket listener that receives generation
// completion notifications from the external execution service.
type NotifyConfig struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Path       string `json:"path,omitempty"`
}

// TelemetryConfig configures OpenTelemetry tracing export.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled,omitempty"`
	OTLPEndpoint string `json:"otlp_endpoint,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
}

// WalletConfig configures the magic-amount wallet-link flow (§4.8).
type WalletConfig struct {
	DefaultChainID int64             `json:"default_chain_id,omitempty"`
	FoundationAddr map[string]string `json:"foundation_addr,omitempty"` // chainID (decimal string) → address
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Channels: ChannelsConfig{
			Telegram: TelegramConfig{EditRateRPS: 1},
		},
		DataAPI: DataAPIConfig{
			TimeoutSeconds: 5,
		},
		Interaction: InteractionConfig{
			ReplyContextTTLMinutes: 60,
			TweakSessionTTLMinutes: 60,
			ReaperCron:             "*/5 * * * *",
		},
		EventLog: EventLogConfig{
			DBPath:          "~/.forgebot/events.db",
			FlushIntervalMS: 3000,
		},
		Notify: NotifyConfig{
			ListenAddr: ":8790",
			Path:       "/notify",
		},
		Wallet: WalletConfig{
			DefaultChainID: 11155111,
			FoundationAddr: map[string]string{},
		},
	}
}

// Hash returns a short identifier for the current config, used to detect
// whether a hot-reloaded file actually changed before swapping it in.
func (c *Config) Hash() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, _ := json.Marshal(c)
	return fmt.Sprintf("%x", len(data))
}

// Snapshot returns a deep-enough copy of the config for safe concurrent reads.
func (c *Config) Snapshot() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp := *c
	cp.mu = sync.RWMutex{}
	return cp
}
