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

// RegisterInfo wires view_gen_info and, for composite generations, the
// per-step drill-down view (§4.6 spell rendering, §4.7).
func RegisterInfo(deps *Deps, callbacks *dispatch.CallbackQueryDispatcher) {
	callbacks.Register(protocol.PrefixViewGenInfo, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}
		genID := strings.TrimPrefix(cb.Data, protocol.PrefixViewGenInfo)
		if err := renderGenInfo(ctx, deps, t, cb.ChatID, cb.MessageID, genID); err != nil {
			errAck(ctx, t, cb.CallbackQueryID, "Couldn't load that generation's info.")
			return err
		}
		ack(ctx, t, cb.CallbackQueryID)
		return nil
	})

	callbacks.Register(protocol.PrefixViewSpellStep, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}
		genID, idx, ok := parseViewSpellStep(cb.Data)
		if !ok {
			errAck(ctx, t, cb.CallbackQueryID, "Something went wrong, please try again.")
			return nil
		}
		if err := renderSpellStep(ctx, deps, t, cb.ChatID, cb.MessageID, genID, idx); err != nil {
			errAck(ctx, t, cb.CallbackQueryID, "Couldn't load that step.")
			return err
		}
		ack(ctx, t, cb.CallbackQueryID)
		return nil
	})
}

func parseViewSpellStep(data string) (generationID string, idx int, ok bool) {
	rest := strings.TrimPrefix(data, protocol.PrefixViewSpellStep)
	if rest == data {
		return "", 0, false
	}
	i := strings.LastIndex(rest, ":")
	if i < 0 {
		return "", 0, false
	}
	generationID = rest[:i]
	n, err := strconv.Atoi(rest[i+1:])
	if err != nil {
		return "", 0, false
	}
	return generationID, n, true
}

// renderGenInfo prints the tool's display name and every requestPayload
// entry, substituting userInputPrompt for the configured prompt input
// key when present (§4.7). Spell generations additionally get one
// button per step.
func renderGenInfo(ctx context.Context, deps *Deps, t transport.Transport, chatID string, msgID int, genID string) error {
	gen, err := deps.DataAPI.GetGeneration(ctx, genID)
	if err != nil {
		return err
	}
	tool, err := deps.Tools.ByDisplayName(ctx, gen.ToolDisplayName)
	if err != nil {
		return err
	}

	text := genInfoText(gen, tool)

	var kb transport.InlineKeyboard
	if gen.Metadata.IsSpell {
		for i := range gen.Metadata.StepGenerationIDs {
			kb = append(kb, []transport.InlineButton{{
				Text:         fmt.Sprintf("Step %d", i+1),
				CallbackData: protocol.ViewSpellStepCallback(genID, i),
			}})
		}
	}
	kb = append(kb, []transport.InlineButton{{Text: "◀ Back", CallbackData: protocol.RestoreDeliveryCallback(genID)}})

	return t.EditText(ctx, chatID, msgID, text, kb)
}

func renderSpellStep(ctx context.Context, deps *Deps, t transport.Transport, chatID string, msgID int, genID string, idx int) error {
	gen, err := deps.DataAPI.GetGeneration(ctx, genID)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(gen.Metadata.StepGenerationIDs) {
		return fmt.Errorf("handlers: spell step index %d out of range for %q", idx, genID)
	}
	step, err := deps.DataAPI.GetGeneration(ctx, gen.Metadata.StepGenerationIDs[idx])
	if err != nil {
		return err
	}
	tool, err := deps.Tools.ByDisplayName(ctx, step.ToolDisplayName)
	if err != nil {
		return err
	}

	text := genInfoText(step, tool)
	kb := transport.InlineKeyboard{{{Text: "◀ Back", CallbackData: protocol.ViewGenInfoCallback(genID)}}}
	return t.EditText(ctx, chatID, msgID, text, kb)
}

// genInfoText renders tool display name plus every input, with URL-valued
// fields omitted (spell step detail) and the prompt key substituted with
// the recorded human prompt when present.
func genInfoText(gen *protocol.GenerationRecord, tool *protocol.ToolDefinition) safety.SafeText {
	promptKey := tool.Metadata.TelegramPromptInputKey
	if promptKey == "" {
		promptKey = "input_prompt"
	}

	parts := []safety.SafeText{safety.Raw("*"), safety.Escape(gen.ToolDisplayName), safety.Raw("*\n")}

	names := make([]string, 0, len(gen.RequestPayload))
	for k := range gen.RequestPayload {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		value := gen.RequestPayload[name]
		if name == promptKey && gen.Metadata.UserInputPrompt != "" {
			value = gen.Metadata.UserInputPrompt
		}
		if s, ok := value.(string); ok && looksLikeURL(s) {
			continue
		}
		parts = append(parts, safety.EscapeCode(name), safety.Raw(": "), safety.Escape(protocol.FormatParamValue(value)), safety.Raw("\n"))
	}

	return safety.Join(parts...)
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
