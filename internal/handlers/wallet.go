package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nextlevelbuilder/forgebot/internal/dispatch"
	"github.com/nextlevelbuilder/forgebot/internal/safety"
	"github.com/nextlevelbuilder/forgebot/internal/transport"
)

const walletCallbackPrefix = "wallet:"

func walletAddCallback() string          { return walletCallbackPrefix + "add" }
func walletMagicCallback(chainID int64) string {
	return fmt.Sprintf("%sadd_magic~%d", walletCallbackPrefix, chainID)
}

// RegisterWallet wires /wallet and its magic-amount deposit flow (§4.8).
func RegisterWallet(deps *Deps, commands *dispatch.CommandDispatcher, callbacks *dispatch.CallbackQueryDispatcher) {
	commands.Register(`^/wallet$`, func(cmd dispatch.InboundCommand) error {
		ctx := context.Background()
		t, err := deps.Transport(cmd.Platform)
		if err != nil {
			return err
		}
		text, kb, err := buildWalletList(ctx, deps, cmd.MasterAccountID)
		if err != nil {
			return err
		}
		_, err = t.Send(ctx, transport.OutgoingMessage{ChatID: cmd.ChatID, ReplyTo: cmd.MessageID, Text: text, Keyboard: kb})
		return err
	})

	callbacks.Register(walletCallbackPrefix, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}

		switch {
		case cb.Data == walletAddCallback():
			if err := startMagicAmount(ctx, deps, t, cb, deps.Wallet.DefaultChainID); err != nil {
				errAck(ctx, t, cb.CallbackQueryID, "Couldn't start the wallet-link flow right now.")
				return err
			}
		case strings.HasPrefix(cb.Data, walletCallbackPrefix+"add_magic~"):
			chainID, _ := strconv.ParseInt(strings.TrimPrefix(cb.Data, walletCallbackPrefix+"add_magic~"), 10, 64)
			if err := startMagicAmount(ctx, deps, t, cb, chainID); err != nil {
				errAck(ctx, t, cb.CallbackQueryID, "Couldn't start the wallet-link flow right now.")
				return err
			}
		default:
			ack(ctx, t, cb.CallbackQueryID)
			return nil
		}
		ack(ctx, t, cb.CallbackQueryID)
		return nil
	})
}

func buildWalletList(ctx context.Context, deps *Deps, maid string) (safety.SafeText, transport.InlineKeyboard, error) {
	wallets, err := deps.DataAPI.Wallets(ctx, maid)
	if err != nil {
		return safety.SafeText{}, nil, err
	}

	parts := []safety.SafeText{safety.Raw("*Linked wallets*\n")}
	if len(wallets) == 0 {
		parts = append(parts, safety.Raw("None yet\\.\n"))
	}
	for _, w := range wallets {
		parts = append(parts, safety.Raw("• "), safety.Escape(safety.AbbreviateWallet(w.Address)), safety.Raw("\n"))
	}

	kb := transport.InlineKeyboard{{{Text: "➕ Add wallet", CallbackData: walletAddCallback()}}}
	return safety.Join(parts...), kb, nil
}

// startMagicAmount drives §4.8's deposit-verification link flow: the
// data API returns the exact amount to send and the request expiry.
func startMagicAmount(ctx context.Context, deps *Deps, t transport.Transport, cb dispatch.InboundCallback, chainID int64) error {
	resp, err := deps.DataAPI.RequestMagicAmount(ctx, cb.MasterAccountID, chainID)
	if err != nil {
		return err
	}
	addr := deps.Wallet.FoundationAddr[fmt.Sprintf("%d", chainID)]

	text := safety.Join(
		safety.Raw("Send exactly *"), safety.Escape(resp.MagicAmountWei), safety.Raw(" wei*\n"),
		safety.Raw("to "), safety.EscapeCode(addr), safety.Raw("\n"),
		safety.Raw("Link request expires at "), safety.Escape(resp.ExpiresAt), safety.Raw("\\."),
	)
	_, err = t.Send(ctx, transport.OutgoingMessage{ChatID: cb.ChatID, Text: text})
	return err
}
