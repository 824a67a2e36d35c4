package handlers

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nextlevelbuilder/forgebot/internal/dispatch"
	"github.com/nextlevelbuilder/forgebot/internal/safety"
	"github.com/nextlevelbuilder/forgebot/internal/transport"
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// settingsMostFrequentLimit is how many shortcut tools the main menu
// shows; §4.3 fetches 3x this to survive tool ids that no longer resolve.
const settingsMostFrequentLimit = 4

const allToolsPageSize = 6

func encodeToolName(displayName string) string { return strings.ReplaceAll(displayName, " ", "_") }
func decodeToolName(encoded string) string     { return strings.ReplaceAll(encoded, "_", " ") }

// Settings-menu callback data uses "~" as the field separator after the
// action word, distinct from the "_"-for-space encoding of the tool's
// display name, so a display name that itself contains underscores (from
// the space encoding) never gets mis-split into tool/param.
func settingsMainCallback() string                  { return "set_main" }
func settingsCloseCallback() string                 { return "set_close" }
func settingsAllCallback(page int) string           { return fmt.Sprintf("set_all~%d", page) }
func settingsToolCallback(toolDisplay string) string { return fmt.Sprintf("set_tool~%s", encodeToolName(toolDisplay)) }
func settingsEditCallback(toolDisplay, param string) string {
	return fmt.Sprintf("set_edit~%s~%s", encodeToolName(toolDisplay), param)
}

// RegisterSettings wires the settings menu state machine (§4.3) into the
// command and callback dispatchers.
func RegisterSettings(deps *Deps, commands *dispatch.CommandDispatcher, callbacks *dispatch.CallbackQueryDispatcher) {
	commands.Register(`^/settings$`, func(cmd dispatch.InboundCommand) error {
		ctx := context.Background()
		t, err := deps.Transport(cmd.Platform)
		if err != nil {
			return err
		}
		text, kb, err := buildSettingsMain(ctx, deps, cmd.MasterAccountID)
		if err != nil {
			return err
		}
		_, err = t.Send(ctx, transport.OutgoingMessage{ChatID: cmd.ChatID, ReplyTo: cmd.MessageID, Text: text, Keyboard: kb})
		return err
	})

	callbacks.Register(protocol.PrefixSettings, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}

		switch {
		case cb.Data == settingsMainCallback():
			if err := renderSettingsMain(ctx, deps, t, cb.ChatID, cb.MessageID, cb.MasterAccountID); err != nil {
				errAck(ctx, t, cb.CallbackQueryID, "Couldn't load your tools right now.")
				return err
			}
		case cb.Data == settingsCloseCallback():
			if err := t.Delete(ctx, cb.ChatID, cb.MessageID); err != nil {
				return err
			}
		case strings.HasPrefix(cb.Data, "set_all~"):
			page, _ := strconv.Atoi(strings.TrimPrefix(cb.Data, "set_all~"))
			if err := renderAllTools(ctx, deps, t, cb.ChatID, cb.MessageID, page); err != nil {
				errAck(ctx, t, cb.CallbackQueryID, "Couldn't load the tool list.")
				return err
			}
		case strings.HasPrefix(cb.Data, "set_tool~"):
			toolDisplay := decodeToolName(strings.TrimPrefix(cb.Data, "set_tool~"))
			if err := renderToolParams(ctx, deps, t, cb.ChatID, cb.MessageID, cb.MasterAccountID, toolDisplay); err != nil {
				errAck(ctx, t, cb.CallbackQueryID, "Couldn't load that tool.")
				return err
			}
		case strings.HasPrefix(cb.Data, "set_edit~"):
			rest := strings.TrimPrefix(cb.Data, "set_edit~")
			parts := strings.SplitN(rest, "~", 2)
			if len(parts) != 2 {
				errAck(ctx, t, cb.CallbackQueryID, "Something went wrong, please try again.")
				return nil
			}
			toolDisplay, param := decodeToolName(parts[0]), parts[1]
			if err := promptSettingsParamEdit(ctx, deps, t, cb.ChatID, cb.MessageID, toolDisplay, param); err != nil {
				errAck(ctx, t, cb.CallbackQueryID, "Couldn't start that edit.")
				return err
			}
		default:
			ack(ctx, t, cb.CallbackQueryID)
			return nil
		}
		ack(ctx, t, cb.CallbackQueryID)
		return nil
	})

	// MessageReplyDispatcher registration happens in Register (register.go)
	// because it needs the ReplyHandler func type from this file.
}

// SettingsParamEditReplyHandler returns the MessageReplyDispatcher
// handler for ReplyTypeSettingsParamEdit (§4.3 edit_param step).
func SettingsParamEditReplyHandler(deps *Deps) dispatch.ReplyHandler {
	return func(reply dispatch.InboundReply) error {
		ctx := context.Background()
		t, err := deps.Transport(reply.Platform)
		if err != nil {
			return err
		}
		payload := reply.Context.SettingsParamEdit
		if payload == nil {
			return nil
		}

		tool, err := deps.Tools.ByID(ctx, payload.ToolID)
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

		if err := deps.DataAPI.SetPreference(ctx, reply.MasterAccountID, tool.DisplayName, payload.ParamName, value); err != nil {
			return sendEphemeralText(ctx, t, reply.ChatID, reply.MessageID, "Couldn't save that preference right now.")
		}

		_ = t.Delete(ctx, reply.ChatID, reply.MessageID)
		return renderToolParams(ctx, deps, t, fmt.Sprint(payload.MenuChatID), payload.MenuMsgID, reply.MasterAccountID, tool.DisplayName)
	}
}

func renderSettingsMain(ctx context.Context, deps *Deps, t transport.Transport, chatID string, msgID int, maid string) error {
	text, kb, err := buildSettingsMain(ctx, deps, maid)
	if err != nil {
		return err
	}
	return t.EditText(ctx, chatID, msgID, text, kb)
}

// buildSettingsMain renders the "main" state: up to four most-frequent
// tools plus "All Tools" (§4.3). Fetches 3x the display limit so stale
// tool ids (deleted or renamed since the ranking was computed) can be
// filtered out without the menu silently shrinking below four. maid is
// threaded through for the future per-user ranking call; empty is
// accepted for the command path where it is resolved by the caller
// already.
func buildSettingsMain(ctx context.Context, deps *Deps, maid string) (safety.SafeText, transport.InlineKeyboard, error) {
	var kb transport.InlineKeyboard
	var frequent []string
	if maid != "" {
		ranked, err := deps.DataAPI.MostFrequentTools(ctx, maid, 3*settingsMostFrequentLimit)
		if err == nil {
			for _, r := range ranked {
				if _, err := deps.Tools.ByID(ctx, r.ToolID); err == nil {
					frequent = append(frequent, r.DisplayName)
				}
				if len(frequent) >= settingsMostFrequentLimit {
					break
				}
			}
		}
	}
	for _, name := range frequent {
		kb = append(kb, []transport.InlineButton{{Text: name, CallbackData: settingsToolCallback(name)}})
	}
	kb = append(kb, []transport.InlineButton{{Text: "All Tools", CallbackData: settingsAllCallback(0)}})
	kb = append(kb, []transport.InlineButton{{Text: "Close", CallbackData: settingsCloseCallback()}})

	return safety.Raw("*Settings*\nPick a tool to edit its defaults."), kb, nil
}

func renderAllTools(ctx context.Context, deps *Deps, t transport.Transport, chatID string, msgID int, page int) error {
	tools, err := deps.Tools.List(ctx)
	if err != nil {
		return err
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].DisplayName < tools[j].DisplayName })

	start := page * allToolsPageSize
	if start > len(tools) {
		start = len(tools)
	}
	end := start + allToolsPageSize
	if end > len(tools) {
		end = len(tools)
	}
	pageTools := tools[start:end]

	var kb transport.InlineKeyboard
	for i := 0; i < len(pageTools); i += 2 {
		row := []transport.InlineButton{{Text: pageTools[i].DisplayName, CallbackData: settingsToolCallback(pageTools[i].DisplayName)}}
		if i+1 < len(pageTools) {
			row = append(row, transport.InlineButton{Text: pageTools[i+1].DisplayName, CallbackData: settingsToolCallback(pageTools[i+1].DisplayName)})
		}
		kb = append(kb, row)
	}

	var navRow []transport.InlineButton
	if page > 0 {
		navRow = append(navRow, transport.InlineButton{Text: "◀ Prev", CallbackData: settingsAllCallback(page - 1)})
	}
	if end < len(tools) {
		navRow = append(navRow, transport.InlineButton{Text: "Next ▶", CallbackData: settingsAllCallback(page + 1)})
	}
	if len(navRow) > 0 {
		kb = append(kb, navRow)
	}
	kb = append(kb, []transport.InlineButton{{Text: "◀ Back", CallbackData: settingsMainCallback()}, {Text: "Close", CallbackData: settingsCloseCallback()}})

	return t.EditText(ctx, chatID, msgID, safety.Raw("*All Tools*"), kb)
}

func renderToolParams(ctx context.Context, deps *Deps, t transport.Transport, chatID string, msgID int, maid, toolDisplay string) error {
	tool, err := deps.Tools.ByDisplayName(ctx, toolDisplay)
	if err != nil {
		return err
	}

	prefs, _ := deps.DataAPI.Preferences(ctx, maid, toolDisplay)
	prefByName := make(map[string]any, len(prefs))
	for _, p := range prefs {
		prefByName[p.ParamName] = p.Value
	}

	names := make([]string, 0, len(tool.InputSchema))
	for name := range tool.InputSchema {
		names = append(names, name)
	}
	sort.Strings(names)

	var kb transport.InlineKeyboard
	for _, name := range names {
		spec := tool.InputSchema[name]
		value, ok := prefByName[name]
		if !ok {
			value = spec.Default
		}
		label := fmt.Sprintf("%s: %s", name, safety.TruncateLabel(protocol.FormatParamValue(value), 12))
		kb = append(kb, []transport.InlineButton{{Text: label, CallbackData: settingsEditCallback(toolDisplay, name)}})
	}
	kb = append(kb, []transport.InlineButton{{Text: "◀ Back", CallbackData: settingsMainCallback()}, {Text: "Close", CallbackData: settingsCloseCallback()}})

	text := safety.Join(safety.Raw("*"), safety.Escape(tool.DisplayName), safety.Raw("*"))
	return t.EditText(ctx, chatID, msgID, text, kb)
}

func promptSettingsParamEdit(ctx context.Context, deps *Deps, t transport.Transport, chatID string, menuMsgID int, toolDisplay, param string) error {
	tool, err := deps.Tools.ByDisplayName(ctx, toolDisplay)
	if err != nil {
		return err
	}
	text := safety.Join(safety.Raw("Reply with a new value for "), safety.EscapeCode(param), safety.Raw(" ("), safety.Escape(string(tool.InputSchema[param].Type)), safety.Raw(")."))

	sent, err := t.Send(ctx, transport.OutgoingMessage{ChatID: chatID, Text: text})
	if err != nil {
		return err
	}

	chatIDInt, _ := strconv.ParseInt(chatID, 10, 64)
	deps.ReplyCtx.Put(chatID, sent.MessageID, protocol.ReplyContext{
		Type: protocol.ReplyTypeSettingsParamEdit,
		SettingsParamEdit: &protocol.SettingsParamEditPayload{
			ToolID:     tool.ToolID,
			ParamName:  param,
			MenuChatID: chatIDInt,
			MenuMsgID:  menuMsgID,
		},
	})
	return nil
}

func sendEphemeralText(ctx context.Context, t transport.Transport, chatID string, replyTo int, msg string) error {
	_, err := t.Send(ctx, transport.OutgoingMessage{ChatID: chatID, ReplyTo: replyTo, Text: safeErrorText(msg)})
	return err
}
