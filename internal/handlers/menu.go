package handlers

import (
	"context"
	"strings"

	"github.com/nextlevelbuilder/forgebot/internal/delivery"
	"github.com/nextlevelbuilder/forgebot/internal/dispatch"
	"github.com/nextlevelbuilder/forgebot/internal/transport"
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// RegisterMenu wires hide_menu and restore_delivery (§4.6, §4.7).
func RegisterMenu(deps *Deps, callbacks *dispatch.CallbackQueryDispatcher) {
	callbacks.Register(protocol.PrefixHideMenu, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}
		if err := t.EditKeyboard(ctx, cb.ChatID, cb.MessageID, nil); err != nil {
			errAck(ctx, t, cb.CallbackQueryID, "Couldn't hide the menu right now.")
			return err
		}
		ack(ctx, t, cb.CallbackQueryID)
		return nil
	})

	callbacks.Register(protocol.PrefixRestoreDelivery, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}
		genID := strings.TrimPrefix(cb.Data, protocol.PrefixRestoreDelivery)
		if err := restoreDelivery(ctx, deps, t, cb.ChatID, cb.MessageID, genID); err != nil {
			errAck(ctx, t, cb.CallbackQueryID, "Couldn't restore that message right now.")
			return err
		}
		ack(ctx, t, cb.CallbackQueryID)
		return nil
	})
}

// restoreDelivery reconstructs the delivery card from the stored record
// (§4.6, testable property #6), deleting the sub-menu that was open on
// top of it and sending a fresh message since a text↔media replacement is
// not a supported edit.
func restoreDelivery(ctx context.Context, deps *Deps, t transport.Transport, chatID string, msgID int, genID string) error {
	gen, err := deps.DataAPI.GetGeneration(ctx, genID)
	if err != nil {
		return err
	}
	card := delivery.RestoreDelivery(gen, gen.Metadata.TweakCount, gen.Metadata.RerunCount)

	if err := t.Delete(ctx, chatID, msgID); err != nil {
		return err
	}
	_, err = t.Send(ctx, card.Message)
	return err
}
