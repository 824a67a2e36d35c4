package handlers

import (
	"context"

	"github.com/nextlevelbuilder/forgebot/internal/delivery"
	"github.com/nextlevelbuilder/forgebot/internal/dispatch"
	"github.com/nextlevelbuilder/forgebot/internal/generation"
	"github.com/nextlevelbuilder/forgebot/internal/transport"
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// RegisterRerun wires rerun_gen (§4.5): resubmit the ancestor's payload
// with a mutated seed and the caller's current preferences layered
// underneath it, then bump the delivery card's rerun counter in place.
func RegisterRerun(deps *Deps, callbacks *dispatch.CallbackQueryDispatcher) {
	callbacks.Register(protocol.PrefixRerunGen, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}
		genID, pressCount, ok := protocol.ParseRerunGen(cb.Data)
		if !ok {
			errAck(ctx, t, cb.CallbackQueryID, "Something went wrong, please try again.")
			return nil
		}
		if err := rerunGeneration(ctx, deps, t, cb, genID, pressCount); err != nil {
			errAck(ctx, t, cb.CallbackQueryID, "Couldn't start a rerun right now.")
			return err
		}
		ack(ctx, t, cb.CallbackQueryID)
		return nil
	})
}

func rerunGeneration(ctx context.Context, deps *Deps, t transport.Transport, cb dispatch.InboundCallback, genID string, pressCount int) error {
	ancestor, err := deps.DataAPI.GetGeneration(ctx, genID)
	if err != nil {
		return err
	}
	tool, err := deps.Tools.ByDisplayName(ctx, ancestor.ToolDisplayName)
	if err != nil {
		return err
	}

	prefs, _ := deps.DataAPI.Preferences(ctx, cb.MasterAccountID, tool.DisplayName)
	prefMap := make(map[string]any, len(prefs))
	for _, p := range prefs {
		prefMap[p.ParamName] = p.Value
	}

	req := generation.BuildRerunRequest(generation.RerunInput{
		Ancestor:        ancestor,
		Tool:            tool,
		Preferences:     prefMap,
		MasterAccountID: cb.MasterAccountID,
	})
	resp, err := generation.Submit(ctx, deps.DataAPI, req)
	if err != nil {
		return err
	}

	deps.logEvent("rerun_clicked", cb.MasterAccountID, resp.GenerationID, map[string]any{
		"parentGenerationId": genID,
	})

	newCount := pressCount + 1
	kb := delivery.BuildKeyboard(genID, ancestor.Metadata.TweakCount, newCount)
	if err := t.EditKeyboard(ctx, cb.ChatID, cb.MessageID, kb); err != nil {
		// The generation was already submitted; a cosmetic counter-bump
		// failure (message too old, already edited elsewhere) shouldn't
		// surface as a user-facing error.
		deps.Log.Warn("handlers: rerun counter button update failed", "generationId", genID, "err", err)
	}
	return nil
}
