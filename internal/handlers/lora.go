package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nextlevelbuilder/forgebot/internal/dataapi"
	"github.com/nextlevelbuilder/forgebot/internal/dispatch"
	"github.com/nextlevelbuilder/forgebot/internal/safety"
	"github.com/nextlevelbuilder/forgebot/internal/transport"
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

var loraCategories = []string{"memes", "character", "style", "popular", "recent", "favorites"}
var loraCheckpoints = []string{"All", "SDXL", "SD1.5", "FLUX"}

const loraPageSize = 6

// RegisterLora wires the paginated categorical LoRA browser (§4.9).
// Every navigation step deletes the prior browser message and sends a
// fresh one rather than editing in place: detail views render as a
// photo when a thumbnail is available, and a photo↔text swap is not a
// supported edit on either transport.
func RegisterLora(deps *Deps, commands *dispatch.CommandDispatcher, callbacks *dispatch.CallbackQueryDispatcher) {
	commands.Register(`^/loras$`, func(cmd dispatch.InboundCommand) error {
		ctx := context.Background()
		t, err := deps.Transport(cmd.Platform)
		if err != nil {
			return err
		}
		return sendLoraList(ctx, deps, t, cmd.ChatID, cmd.MessageID, "popular", "All", 0)
	})

	callbacks.Register(protocol.PrefixLora, func(cb dispatch.InboundCallback) error {
		ctx := context.Background()
		t, err := deps.Transport(cb.Platform)
		if err != nil {
			return err
		}
		if err := dispatchLoraCallback(ctx, deps, t, cb); err != nil {
			errAck(ctx, t, cb.CallbackQueryID, "Couldn't load that right now.")
			return err
		}
		ack(ctx, t, cb.CallbackQueryID)
		return nil
	})
}

func dispatchLoraCallback(ctx context.Context, deps *Deps, t transport.Transport, cb dispatch.InboundCallback) error {
	rest := strings.TrimPrefix(cb.Data, protocol.PrefixLora)
	fields := strings.Split(rest, "~")
	if len(fields) == 0 {
		return fmt.Errorf("handlers: malformed lora callback %q", cb.Data)
	}

	switch fields[0] {
	case "list":
		if len(fields) != 4 {
			return fmt.Errorf("handlers: malformed lora list callback %q", cb.Data)
		}
		page, _ := strconv.Atoi(fields[3])
		if err := t.Delete(ctx, cb.ChatID, cb.MessageID); err != nil {
			return err
		}
		return sendLoraList(ctx, deps, t, cb.ChatID, 0, fields[1], fields[2], page)
	case "view":
		if len(fields) != 5 {
			return fmt.Errorf("handlers: malformed lora view callback %q", cb.Data)
		}
		page, _ := strconv.Atoi(fields[4])
		if err := t.Delete(ctx, cb.ChatID, cb.MessageID); err != nil {
			return err
		}
		return sendLoraDetail(ctx, deps, t, cb.ChatID, fields[1], fields[2], fields[3], page)
	case "fav":
		if len(fields) != 5 {
			return fmt.Errorf("handlers: malformed lora favorite callback %q", cb.Data)
		}
		page, _ := strconv.Atoi(fields[4])
		if err := toggleLoraFavorite(ctx, deps, cb.MasterAccountID, fields[1], fields[2]); err != nil {
			return err
		}
		if err := t.Delete(ctx, cb.ChatID, cb.MessageID); err != nil {
			return err
		}
		return sendLoraDetail(ctx, deps, t, cb.ChatID, fields[1], fields[2], fields[3], page)
	default:
		return fmt.Errorf("handlers: unknown lora action %q", fields[0])
	}
}

func loraListCallback(category, checkpoint string, page int) string {
	return fmt.Sprintf("%slist~%s~%s~%d", protocol.PrefixLora, category, checkpoint, page)
}

func loraViewCallback(slug, category, checkpoint string, page int) string {
	return fmt.Sprintf("%sview~%s~%s~%s~%d", protocol.PrefixLora, slug, category, checkpoint, page)
}

func loraFavCallback(slug, category, checkpoint string, page int) string {
	return fmt.Sprintf("%sfav~%s~%s~%s~%d", protocol.PrefixLora, slug, category, checkpoint, page)
}

func sendLoraList(ctx context.Context, deps *Deps, t transport.Transport, chatID string, replyTo int, category, checkpoint string, page int) error {
	items, err := deps.DataAPI.ListLoras(ctx, dataapi.ListLorasParams{
		Category: category, Checkpoint: checkpoint, Page: page, PageSize: loraPageSize,
	})
	if err != nil {
		return err
	}

	var kb transport.InlineKeyboard
	var catRow []transport.InlineButton
	for _, c := range loraCategories {
		label := c
		if c == category {
			label = "• " + c
		}
		catRow = append(catRow, transport.InlineButton{Text: label, CallbackData: loraListCallback(c, checkpoint, 0)})
		if len(catRow) == 3 {
			kb = append(kb, catRow)
			catRow = nil
		}
	}
	if len(catRow) > 0 {
		kb = append(kb, catRow)
	}

	var cpRow []transport.InlineButton
	for _, cp := range loraCheckpoints {
		label := cp
		if cp == checkpoint {
			label = "• " + cp
		}
		cpRow = append(cpRow, transport.InlineButton{Text: label, CallbackData: loraListCallback(category, cp, 0)})
	}
	kb = append(kb, cpRow)

	for i := 0; i < len(items); i += 2 {
		row := []transport.InlineButton{{Text: items[i].Name, CallbackData: loraViewCallback(items[i].Slug, category, checkpoint, page)}}
		if i+1 < len(items) {
			row = append(row, transport.InlineButton{Text: items[i+1].Name, CallbackData: loraViewCallback(items[i+1].Slug, category, checkpoint, page)})
		}
		kb = append(kb, row)
	}

	var navRow []transport.InlineButton
	if page > 0 {
		navRow = append(navRow, transport.InlineButton{Text: "◀ Prev", CallbackData: loraListCallback(category, checkpoint, page-1)})
	}
	if len(items) == loraPageSize {
		navRow = append(navRow, transport.InlineButton{Text: "Next ▶", CallbackData: loraListCallback(category, checkpoint, page+1)})
	}
	if len(navRow) > 0 {
		kb = append(kb, navRow)
	}

	text := safety.Join(safety.Raw("*LoRAs — "), safety.Escape(category), safety.Raw(" / "), safety.Escape(checkpoint), safety.Raw("*"))
	_, err = t.Send(ctx, transport.OutgoingMessage{ChatID: chatID, ReplyTo: replyTo, Text: text, Keyboard: kb})
	return err
}

func sendLoraDetail(ctx context.Context, deps *Deps, t transport.Transport, chatID, slug, category, checkpoint string, page int) error {
	detail, err := deps.DataAPI.GetLora(ctx, slug)
	if err != nil {
		return err
	}

	favLabel := "⭐ Add Favorite"
	if category == "favorites" {
		favLabel = "➖ Remove Favorite"
	}
	kb := transport.InlineKeyboard{
		{{Text: favLabel, CallbackData: loraFavCallback(slug, category, checkpoint, page)}},
		{{Text: "◀ Back", CallbackData: loraListCallback(category, checkpoint, page)}},
	}

	text := safety.Join(
		safety.Raw("*"), safety.Escape(detail.Name), safety.Raw("*\n"),
		safety.Escape(detail.Category), safety.Raw(" / "), safety.Escape(detail.CheckpointTag), safety.Raw("\n"),
		safety.Escape(detail.Description),
	)

	msg := transport.OutgoingMessage{ChatID: chatID, Text: text, Keyboard: kb}
	if detail.ThumbnailURL != "" {
		msg.Media = transport.MediaPhoto
		msg.MediaURL = detail.ThumbnailURL
	}
	_, err = t.Send(ctx, msg)
	return err
}

// toggleLoraFavorite is the two-round-trip favorite toggle (§4.9):
// resolve slug to the lora's canonical id, then add or remove it from
// the caller's favorites depending on which list they're browsing from.
func toggleLoraFavorite(ctx context.Context, deps *Deps, maid, slug, category string) error {
	detail, err := deps.DataAPI.GetLora(ctx, slug)
	if err != nil {
		return err
	}
	return deps.DataAPI.LoraFavoriteAction(ctx, maid, detail.ID, category != "favorites")
}
