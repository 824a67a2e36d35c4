package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nextlevelbuilder/forgebot/internal/delivery"
	"github.com/nextlevelbuilder/forgebot/internal/dispatch"
	"github.com/nextlevelbuilder/forgebot/internal/generation"
	"github.com/nextlevelbuilder/forgebot/internal/interaction"
	"github.com/nextlevelbuilder/forgebot/internal/safety"
	"github.com/nextlevelbuilder/forgebot/internal/transport"
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// RegisterTweak wires the tweak manager (§4.4), the central piece of the
// core: open the draft menu over a delivered generation, edit one
// parameter at a time via a reply prompt, then apply or cancel.
func RegisterTweak(deps *Deps, callbacks *dispatch.CallbackQueryDispatcher) {
	callbacks.Register(protocol.PrefixTweakGen, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}
		genID := strings.TrimPrefix(cb.Data, protocol.PrefixTweakGen)
		if err := openTweakMenu(ctx, deps, t, cb, genID); err != nil {
			errAck(ctx, t, cb.CallbackQueryID, "Couldn't open the tweak menu right now.")
			return err
		}
		ack(ctx, t, cb.CallbackQueryID)
		return nil
	})

	callbacks.Register(protocol.PrefixTweakParamEdit, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}
		token, param, ok := protocol.ParseTweakParamEdit(cb.Data)
		if !ok {
			errAck(ctx, t, cb.CallbackQueryID, "Something went wrong, please try again.")
			return nil
		}
		if err := promptTweakParamEdit(ctx, deps, t, cb, token, param); err != nil {
			errAck(ctx, t, cb.CallbackQueryID, "That tweak session has expired.")
			return err
		}
		ack(ctx, t, cb.CallbackQueryID)
		return nil
	})

	callbacks.Register(protocol.PrefixTweakApply, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}
		token := strings.TrimPrefix(cb.Data, protocol.PrefixTweakApply)
		if err := applyTweak(ctx, deps, t, cb, token); err != nil {
			errAck(ctx, t, cb.CallbackQueryID, "Couldn't submit your tweak right now.")
			return err
		}
		ack(ctx, t, cb.CallbackQueryID)
		return nil
	})

	callbacks.Register(protocol.PrefixTweakMenuRender, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}
		genID := strings.TrimPrefix(cb.Data, protocol.PrefixTweakMenuRender)
		if err := openTweakMenu(ctx, deps, t, cb, genID); err != nil {
			errAck(ctx, t, cb.CallbackQueryID, "Couldn't refresh the tweak menu right now.")
			return err
		}
		ack(ctx, t, cb.CallbackQueryID)
		return nil
	})

	callbacks.Register(protocol.PrefixTweakCancel, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}
		token := strings.TrimPrefix(cb.Data, protocol.PrefixTweakCancel)
		if err := cancelTweak(ctx, deps, t, cb, token); err != nil {
			return err
		}
		ack(ctx, t, cb.CallbackQueryID)
		return nil
	})
}

// openTweakMenu is §4.4 step 1: fetch the ancestor, seed a fresh session
// (re-initializing any stale one for this (generation, caller) pair), and
// overlay the tweak keyboard onto the delivery card in place.
func openTweakMenu(ctx context.Context, deps *Deps, t transport.Transport, cb dispatch.InboundCallback, genID string) error {
	ancestor, err := deps.DataAPI.GetGeneration(ctx, genID)
	if err != nil {
		return err
	}
	tool, err := deps.Tools.ByDisplayName(ctx, ancestor.ToolDisplayName)
	if err != nil {
		return err
	}

	payload := make(map[string]any, len(ancestor.RequestPayload))
	for k, v := range ancestor.RequestPayload {
		payload[k] = v
	}
	if ancestor.Metadata.UserInputPrompt != "" {
		payload["input_prompt"] = ancestor.Metadata.UserInputPrompt
	}

	session := &interaction.TweakSession{
		GenerationID:    genID,
		MasterAccountID: cb.MasterAccountID,
		CanonicalToolID: tool.ToolID,
		ToolDisplayName: tool.DisplayName,
		Payload:         payload,
		Dirty:           false,
		MenuChatID:      cb.ChatID,
		MenuMsgID:       cb.MessageID,
		OrigKeyboard:    delivery.BuildKeyboard(genID, ancestor.Metadata.TweakCount, ancestor.Metadata.RerunCount),
	}
	deps.Tweaks.Create(session)

	token, err := deps.Tokens.TokenFor(genID, cb.MasterAccountID)
	if err != nil {
		return err
	}
	kb := buildTweakKeyboard(tool, session.Dirty, token)

	if err := t.EditKeyboard(ctx, cb.ChatID, cb.MessageID, kb); err != nil {
		if isNotEditable(err) {
			sent, sendErr := t.Send(ctx, transport.OutgoingMessage{
				ChatID:  cb.ChatID,
				ReplyTo: cb.MessageID,
				Text:    safety.Join(safety.Raw("Tweaking *"), safety.Escape(tool.DisplayName), safety.Raw("*")),
				Keyboard: kb,
			})
			if sendErr != nil {
				return sendErr
			}
			session.IsNewMenu = true
			session.MenuChatID = sent.ChatID
			session.MenuMsgID = sent.MessageID
			return nil
		}
		return err
	}
	return nil
}

// promptTweakParamEdit is §4.4 step 2: send a reply-prompt for one
// parameter and record a TweakParamEdit reply context keyed on it.
func promptTweakParamEdit(ctx context.Context, deps *Deps, t transport.Transport, cb dispatch.InboundCallback, token, param string) error {
	genID, ok := deps.Tokens.ResolveGenerationID(token)
	if !ok {
		return fmt.Errorf("handlers: tweak token %q has expired", token)
	}
	session, ok := deps.Tweaks.Get(genID, cb.MasterAccountID)
	if !ok {
		return fmt.Errorf("handlers: tweak session for %q has expired", genID)
	}
	tool, err := deps.Tools.ByID(ctx, session.CanonicalToolID)
	if err != nil {
		return err
	}
	spec, ok := tool.InputSchema[param]
	if !ok {
		return fmt.Errorf("handlers: unknown tweak parameter %q", param)
	}

	text := safety.Join(safety.Raw("Reply with a new value for "), safety.EscapeCode(param), safety.Raw(" ("), safety.Escape(string(spec.Type)), safety.Raw(")."))
	sent, err := t.Send(ctx, transport.OutgoingMessage{ChatID: cb.ChatID, Text: text})
	if err != nil {
		return err
	}

	deps.ReplyCtx.Put(sent.ChatID, sent.MessageID, protocol.ReplyContext{
		Type: protocol.ReplyTypeTweakParamEdit,
		TweakParamEdit: &protocol.TweakParamEditPayload{
			Token:           token,
			ParamName:       param,
			GenerationID:    genID,
			MasterAccountID: cb.MasterAccountID,
			MenuChatID:      chatIDInt(session.MenuChatID),
			MenuMsgID:       session.MenuMsgID,
		},
	})
	return nil
}

// TweakParamEditReplyHandler is the MessageReplyDispatcher handler for
// ReplyTypeTweakParamEdit (§4.4 step 3): parse the reply, store it on the
// session, mark it dirty, and re-render the menu's keyboard.
func TweakParamEditReplyHandler(deps *Deps) dispatch.ReplyHandler {
	return func(reply dispatch.InboundReply) error {
		ctx := context.Background()
		t, err := deps.Transport(reply.Platform)
		if err != nil {
			return err
		}
		payload := reply.Context.TweakParamEdit
		if payload == nil {
			return nil
		}

		session, ok := deps.Tweaks.Get(payload.GenerationID, payload.MasterAccountID)
		if !ok {
			return sendEphemeralText(ctx, t, reply.ChatID, reply.MessageID, "That tweak session has expired.")
		}
		tool, err := deps.Tools.ByID(ctx, session.CanonicalToolID)
		if err != nil {
			return sendEphemeralText(ctx, t, reply.ChatID, reply.MessageID, "That tool is no longer available.")
		}
		spec, ok := tool.InputSchema[payload.ParamName]
		if !ok {
			return sendEphemeralText(ctx, t, reply.ChatID, reply.MessageID, "That parameter is no longer available.")
		}

		value, parseErr := protocol.ParseParamValue(spec, reply.Text)
		if parseErr != nil {
			return sendEphemeralText(ctx, t, reply.ChatID, reply.MessageID, parseErr.Error())
		}

		session.Payload[payload.ParamName] = value
		session.Dirty = true
		deps.Tweaks.Touch(payload.GenerationID, payload.MasterAccountID)

		_ = t.Delete(ctx, reply.ChatID, reply.MessageID)

		kb := buildTweakKeyboard(tool, session.Dirty, payload.Token)
		return t.EditKeyboard(ctx, session.MenuChatID, session.MenuMsgID, kb)
	}
}

// applyTweak is §4.4 step 4: submit the session's overlay payload as a
// derived generation, then collapse the menu back into the delivery
// card's tweak-counter button (or drop a standalone menu message).
func applyTweak(ctx context.Context, deps *Deps, t transport.Transport, cb dispatch.InboundCallback, token string) error {
	genID, ok := deps.Tokens.ResolveGenerationID(token)
	if !ok {
		return expireTweakMenu(ctx, t, cb.ChatID, cb.MessageID, "")
	}
	session, ok := deps.Tweaks.Get(genID, cb.MasterAccountID)
	if !ok {
		return expireTweakMenu(ctx, t, cb.ChatID, cb.MessageID, genID)
	}

	ancestor, err := deps.DataAPI.GetGeneration(ctx, genID)
	if err != nil {
		return err
	}
	tool, err := deps.Tools.ByID(ctx, session.CanonicalToolID)
	if err != nil {
		return err
	}

	req := generation.BuildTweakApplyRequest(generation.TweakApplyInput{
		Ancestor:        ancestor,
		Tool:            tool,
		Payload:         session.Payload,
		MasterAccountID: session.MasterAccountID,
		MenuChatID:      session.MenuChatID,
		MenuMsgID:       session.MenuMsgID,
	})
	resp, err := generation.Submit(ctx, deps.DataAPI, req)
	if err != nil {
		return err
	}

	deps.logEvent("tweak_submitted", session.MasterAccountID, resp.GenerationID, map[string]any{
		"parentGenerationId": genID,
	})
	deps.Tweaks.Delete(genID, cb.MasterAccountID)
	deps.Tokens.Release(genID, cb.MasterAccountID)

	if session.IsNewMenu {
		return t.Delete(ctx, session.MenuChatID, session.MenuMsgID)
	}
	restored := delivery.BuildKeyboard(genID, ancestor.Metadata.TweakCount+1, ancestor.Metadata.RerunCount)
	return t.EditKeyboard(ctx, session.MenuChatID, session.MenuMsgID, restored)
}

// cancelTweak is §4.4 step 5: drop the session and re-render the tweak
// menu from the ancestor's own defaults, discarding any pending edits
// rather than closing the menu back to the delivery card.
func cancelTweak(ctx context.Context, deps *Deps, t transport.Transport, cb dispatch.InboundCallback, token string) error {
	genID, ok := deps.Tokens.ResolveGenerationID(token)
	if !ok {
		return nil
	}
	session, ok := deps.Tweaks.Get(genID, cb.MasterAccountID)
	if !ok {
		return nil
	}
	deps.Tweaks.Delete(genID, cb.MasterAccountID)

	ancestor, err := deps.DataAPI.GetGeneration(ctx, genID)
	if err != nil {
		return err
	}
	tool, err := deps.Tools.ByID(ctx, session.CanonicalToolID)
	if err != nil {
		return err
	}

	payload := make(map[string]any, len(ancestor.RequestPayload))
	for k, v := range ancestor.RequestPayload {
		payload[k] = v
	}
	if ancestor.Metadata.UserInputPrompt != "" {
		payload["input_prompt"] = ancestor.Metadata.UserInputPrompt
	}

	fresh := &interaction.TweakSession{
		GenerationID:    genID,
		MasterAccountID: cb.MasterAccountID,
		CanonicalToolID: session.CanonicalToolID,
		ToolDisplayName: session.ToolDisplayName,
		Payload:         payload,
		Dirty:           false,
		MenuChatID:      session.MenuChatID,
		MenuMsgID:       session.MenuMsgID,
		IsNewMenu:       session.IsNewMenu,
		OrigKeyboard:    session.OrigKeyboard,
	}
	deps.Tweaks.Create(fresh)

	kb := buildTweakKeyboard(tool, fresh.Dirty, token)
	return t.EditKeyboard(ctx, session.MenuChatID, session.MenuMsgID, kb)
}

// expireTweakMenu replaces a tweak menu whose session or token has
// already expired with a notice (§4.4 step 4). When the generation id
// is still known (only the session/token expired, not the token-bimap
// entry that names it), a refresh button lets the user start a fresh
// tweak session instead of a dead end.
func expireTweakMenu(ctx context.Context, t transport.Transport, chatID string, msgID int, genID string) error {
	if genID == "" {
		return t.EditText(ctx, chatID, msgID, safety.Raw("Your tweak session has expired."), nil)
	}
	kb := transport.InlineKeyboard{{{Text: "🔄 Refresh", CallbackData: protocol.TweakMenuRenderCallback(genID)}}}
	return t.EditText(ctx, chatID, msgID, safety.Raw("Your tweak session has expired."), kb)
}

// buildTweakKeyboard renders one button per tool parameter, plus a Send
// button once the session has an unapplied edit, plus Cancel.
func buildTweakKeyboard(tool *protocol.ToolDefinition, dirty bool, token string) transport.InlineKeyboard {
	names := make([]string, 0, len(tool.InputSchema))
	for name := range tool.InputSchema {
		names = append(names, name)
	}
	sort.Strings(names)

	var kb transport.InlineKeyboard
	for i := 0; i < len(names); i += 2 {
		row := []transport.InlineButton{{Text: names[i], CallbackData: protocol.TweakParamEditCallback(token, names[i])}}
		if i+1 < len(names) {
			row = append(row, transport.InlineButton{Text: names[i+1], CallbackData: protocol.TweakParamEditCallback(token, names[i+1])})
		}
		kb = append(kb, row)
	}

	lastRow := []transport.InlineButton{}
	if dirty {
		lastRow = append(lastRow, transport.InlineButton{Text: "✅ Send", CallbackData: protocol.TweakApplyCallback(token)})
	}
	lastRow = append(lastRow, transport.InlineButton{Text: "✖ Cancel", CallbackData: protocol.TweakCancelCallback(token)})
	kb = append(kb, lastRow)
	return kb
}

func isNotEditable(err error) bool {
	var editErr *transport.EditError
	return errors.As(err, &editErr) && editErr.NotEditable
}

func chatIDInt(chatID string) int64 {
	n, _ := strconv.ParseInt(chatID, 10, 64)
	return n
}
