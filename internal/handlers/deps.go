// Package handlers implements C5: the per-domain feature handlers that
// register with the three dispatchers (settings, tweak, rerun, info,
// rate, global menu actions, lora browser, wallet-link, platform-link).
// Each handler family owns a callback-prefix namespace and, where
// relevant, a ReplyContext type.
package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nextlevelbuilder/forgebot/internal/config"
	"github.com/nextlevelbuilder/forgebot/internal/dataapi"
	"github.com/nextlevelbuilder/forgebot/internal/eventlog"
	"github.com/nextlevelbuilder/forgebot/internal/generation"
	"github.com/nextlevelbuilder/forgebot/internal/interaction"
	"github.com/nextlevelbuilder/forgebot/internal/safety"
	"github.com/nextlevelbuilder/forgebot/internal/toolregistry"
	"github.com/nextlevelbuilder/forgebot/internal/transport"
)

// EventLogger is the best-effort event sink every handler routes through
// rather than calling dataapi.PostEvent directly (§7).
type EventLogger interface {
	Enqueue(ctx context.Context, ev dataapi.Event)
}

// Deps bundles every collaborator a feature handler needs. One Deps is
// shared across all handler families and both platforms.
type Deps struct {
	DataAPI    *dataapi.Client
	Tools      toolregistry.Registry
	ReplyCtx   *interaction.ReplyContextStore
	Tweaks     *interaction.TweakSessionStore
	Tokens     *interaction.TokenBimap
	Events     EventLogger
	Wallet     config.WalletConfig
	Migrations generation.MigrationFlags
	Log        *slog.Logger

	// transports is keyed by platform name ("telegram", "discord").
	transports map[string]transport.Transport
}

// NewDeps builds a Deps. transports maps platform name to its Transport
// implementation.
func NewDeps(client *dataapi.Client, tools toolregistry.Registry, replyCtx *interaction.ReplyContextStore, tweaks *interaction.TweakSessionStore, tokens *interaction.TokenBimap, events EventLogger, wallet config.WalletConfig, transports map[string]transport.Transport, log *slog.Logger) *Deps {
	if log == nil {
		log = slog.Default()
	}
	return &Deps{
		DataAPI:    client,
		Tools:      tools,
		ReplyCtx:   replyCtx,
		Tweaks:     tweaks,
		Tokens:     tokens,
		Events:     events,
		Wallet:     wallet,
		Migrations: generation.DefaultMigrationFlags(),
		transports: transports,
		Log:        log,
	}
}

// Transport returns the Transport for platform, or an error if none is
// registered — every handler call is already scoped to one platform via
// the inbound event it is handling.
func (d *Deps) Transport(platform string) (transport.Transport, error) {
	t, ok := d.transports[platform]
	if !ok {
		return nil, fmt.Errorf("handlers: no transport registered for platform %q", platform)
	}
	return t, nil
}

// logEvent is a tiny convenience wrapper so handlers read as one line
// instead of constructing dataapi.Event inline every time.
func (d *Deps) logEvent(eventType, maid, generationID string, payload map[string]any) {
	if d.Events == nil {
		return
	}
	d.Events.Enqueue(context.Background(), dataapi.Event{
		Type:            eventType,
		MasterAccountID: maid,
		GenerationID:    generationID,
		Payload:         payload,
	})
}

// errAck sends an ephemeral alert acknowledging a callback query without
// changing any state, per §7's "always calling the button-acknowledge
// path to avoid client-side spinner leaks."
func errAck(ctx context.Context, t transport.Transport, callbackQueryID, text string) {
	_ = t.AnswerCallback(ctx, callbackQueryID, text, true)
}

// ack acknowledges a callback query with no alert (the common case after
// a successful state change).
func ack(ctx context.Context, t transport.Transport, callbackQueryID string) {
	_ = t.AnswerCallback(ctx, callbackQueryID, "", false)
}

// safeErrorText renders a generic apology, never echoing raw error text
// to the user (§7's outer-dispatcher apology path covers the truly
// unexpected case; handlers use this for expected-but-unhappy paths).
func safeErrorText(msg string) safety.SafeText {
	return safety.Escape(msg)
}
