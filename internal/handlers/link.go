package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/forgebot/internal/dataapi"
	"github.com/nextlevelbuilder/forgebot/internal/dispatch"
	"github.com/nextlevelbuilder/forgebot/internal/safety"
	"github.com/nextlevelbuilder/forgebot/internal/transport"
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

func linkActionCallback(requestID string, action dataapi.LinkRequestAction) string {
	return fmt.Sprintf("%s%s:%s", protocol.PrefixLink, requestID, string(action))
}

// RegisterLink wires /link and the Approve/Reject/Report buttons on the
// resulting approval prompt (§4.8).
func RegisterLink(deps *Deps, commands *dispatch.CommandDispatcher, callbacks *dispatch.CallbackQueryDispatcher) {
	commands.Register(`^/link$`, func(cmd dispatch.InboundCommand) error {
		ctx := context.Background()
		t, err := deps.Transport(cmd.Platform)
		if err != nil {
			return err
		}
		addr := strings.TrimSpace(cmd.Args)
		if addr != "" {
			return startPlatformLink(ctx, deps, t, cmd.ChatID, cmd.MessageID, cmd.MasterAccountID, cmd.Platform, cmd.SenderPlatformID, addr)
		}
		sent, err := t.Send(ctx, transport.OutgoingMessage{
			ChatID:  cmd.ChatID,
			ReplyTo: cmd.MessageID,
			Text:    safety.Raw("Reply to this message with the wallet address you want to link."),
		})
		if err != nil {
			return err
		}
		deps.ReplyCtx.Put(sent.ChatID, sent.MessageID, protocol.ReplyContext{
			Type:               protocol.ReplyTypePlatformLinkWallet,
			PlatformLinkWallet: &protocol.PlatformLinkWalletPayload{RequestedChainID: deps.Wallet.DefaultChainID},
		})
		return nil
	})

	callbacks.Register(protocol.PrefixLink, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}
		requestID, action, ok := parseLinkAction(cb.Data)
		if !ok {
			errAck(ctx, t, cb.CallbackQueryID, "Something went wrong, please try again.")
			return nil
		}
		if err := resolveLinkRequest(ctx, deps, t, cb, requestID, action); err != nil {
			errAck(ctx, t, cb.CallbackQueryID, "Couldn't process that right now.")
			return err
		}
		ack(ctx, t, cb.CallbackQueryID)
		return nil
	})
}

func parseLinkAction(data string) (requestID string, action dataapi.LinkRequestAction, ok bool) {
	rest := strings.TrimPrefix(data, protocol.PrefixLink)
	if rest == data {
		return "", "", false
	}
	idx := strings.LastIndex(rest, ":")
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], dataapi.LinkRequestAction(rest[idx+1:]), true
}

// startPlatformLink requests a cross-platform account merge by wallet
// ownership. A 409 means a request is already pending and is surfaced as
// a friendly notice rather than an error (§4.8). Reachable either from
// the /link command's inline argument or from a reply to the wallet-
// address prompt it sends when no argument was given.
func startPlatformLink(ctx context.Context, deps *Deps, t transport.Transport, chatID string, replyTo int, maid, platform, senderPlatformID, walletAddress string) error {
	resp, err := deps.DataAPI.RequestPlatformLink(ctx, dataapi.PlatformLinkRequest{
		MasterAccountID: maid,
		WalletAddress:   walletAddress,
		Platform:        platform,
		PlatformID:      senderPlatformID,
	})
	if dataapi.IsConflict(err) {
		return sendEphemeralText(ctx, t, chatID, replyTo, "A link request for this wallet is already pending.")
	}
	if err != nil {
		return err
	}
	_, err = t.Send(ctx, transport.OutgoingMessage{
		ChatID:  chatID,
		ReplyTo: replyTo,
		Text:    safety.Join(safety.Raw("Link request sent, id "), safety.EscapeCode(resp.RequestID), safety.Raw(". The account holding that wallet must approve it.")),
	})
	return err
}

// PlatformLinkWalletReplyHandler is the MessageReplyDispatcher handler
// for ReplyTypePlatformLinkWallet: the text reply is the wallet address
// that didn't fit as a /link argument.
func PlatformLinkWalletReplyHandler(deps *Deps) dispatch.ReplyHandler {
	return func(reply dispatch.InboundReply) error {
		ctx := context.Background()
		t, err := deps.Transport(reply.Platform)
		if err != nil {
			return err
		}
		addr := strings.TrimSpace(reply.Text)
		if addr == "" {
			return sendEphemeralText(ctx, t, reply.ChatID, reply.MessageID, "That doesn't look like a wallet address.")
		}
		return startPlatformLink(ctx, deps, t, reply.ChatID, reply.MessageID, reply.MasterAccountID, reply.Platform, reply.SenderPlatformID, addr)
	}
}

// resolveLinkRequest handles an Approve/Reject/Report press on the
// approval prompt surfaced to the account currently holding the wallet.
func resolveLinkRequest(ctx context.Context, deps *Deps, t transport.Transport, cb dispatch.InboundCallback, requestID string, action dataapi.LinkRequestAction) error {
	result, err := deps.DataAPI.ResolveLinkRequest(ctx, requestID, action)
	if err != nil {
		return err
	}

	msg := "Request " + string(action) + "d."
	if action == dataapi.LinkActionReport && result.Banned {
		msg = "Reported. This account has been banned for repeated abuse."
	}
	return t.EditText(ctx, cb.ChatID, cb.MessageID, safety.Escape(msg), nil)
}
