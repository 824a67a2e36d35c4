package handlers

import (
	"context"

	"github.com/nextlevelbuilder/forgebot/internal/delivery"
	"github.com/nextlevelbuilder/forgebot/internal/notify"
)

// NewCompletionHandler builds the notify.Handler that turns an execution
// service completion push into a rendered delivery card (C6), sent on
// whichever transport originated the generation.
func NewCompletionHandler(deps *Deps) notify.Handler {
	return func(ctx context.Context, c notify.Completion) {
		gen, err := deps.DataAPI.GetGeneration(ctx, c.GenerationID)
		if err != nil {
			deps.Log.Warn("handlers: completion lookup failed", "generationId", c.GenerationID, "err", err)
			return
		}

		t, err := deps.Transport(gen.SourcePlatform)
		if err != nil {
			deps.Log.Warn("handlers: completion has no transport for source platform", "generationId", c.GenerationID, "platform", gen.SourcePlatform)
			return
		}

		card := delivery.Build(gen, gen.Metadata.TweakCount, gen.Metadata.RerunCount)
		if _, err := t.Send(ctx, card.Message); err != nil {
			deps.Log.Warn("handlers: completion delivery send failed", "generationId", c.GenerationID, "err", err)
		}
	}
}
