package handlers

import (
	"context"

	"github.com/nextlevelbuilder/forgebot/internal/dispatch"
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// RegisterRate wires rate_gen (§4.7): post the rating, then acknowledge
// with the emoji trio matching the kind clicked.
func RegisterRate(deps *Deps, callbacks *dispatch.CallbackQueryDispatcher) {
	callbacks.Register(protocol.PrefixRateGen, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}
		genID, kind, ok := protocol.ParseRateGen(cb.Data)
		if !ok {
			errAck(ctx, t, cb.CallbackQueryID, "Something went wrong, please try again.")
			return nil
		}
		if err := deps.DataAPI.RateGeneration(ctx, genID, kind, cb.MasterAccountID); err != nil {
			errAck(ctx, t, cb.CallbackQueryID, "Couldn't record your rating right now.")
			return err
		}
		_ = t.AnswerCallback(ctx, cb.CallbackQueryID, ratingEmoji(kind), false)
		return nil
	})
}

// ratingEmoji implements §4.7's kind→emoji table; sad and negative are
// unified to the same emoji only here, at render time (§9 open question):
// the rating itself is still stored under its own distinct kind.
func ratingEmoji(kind protocol.RatingKind) string {
	switch kind {
	case protocol.RatingBeautiful:
		return "😻😻😻"
	case protocol.RatingFunny:
		return "😹😹😹"
	case protocol.RatingSad, protocol.RatingNegative:
		return "😿😿😿"
	default:
		return "😶😶😶"
	}
}
