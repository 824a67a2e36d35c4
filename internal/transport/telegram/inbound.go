package telegram

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/mymmrac/telego"

	"github.com/nextlevelbuilder/forgebot/internal/dispatch"
	"github.com/nextlevelbuilder/forgebot/internal/identity"
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// InboundPump converts telego updates into dispatch events and routes
// them, resolving the sender's masterAccountId first (C1 ahead of C4).
type InboundPump struct {
	adapter  *Adapter
	resolver *identity.Resolver
	router   *dispatch.Router
	log      *slog.Logger
}

// NewInboundPump wires an Adapter to a Router through identity resolution.
func NewInboundPump(adapter *Adapter, resolver *identity.Resolver, router *dispatch.Router, log *slog.Logger) *InboundPump {
	if log == nil {
		log = slog.Default()
	}
	return &InboundPump{adapter: adapter, resolver: resolver, router: router, log: log}
}

// Handle is the Adapter.Start UpdateHandler.
func (p *InboundPump) Handle(ctx context.Context, update telego.Update) {
	switch {
	case update.Message != nil:
		p.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		p.handleCallback(ctx, update.CallbackQuery)
	}
}

func (p *InboundPump) handleMessage(ctx context.Context, msg *telego.Message) {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	isGroup := msg.Chat.Type == telego.ChatTypeGroup || msg.Chat.Type == telego.ChatTypeSupergroup
	senderID := strconv.FormatInt(msg.From.ID, 10)

	maid, err := p.resolver.Resolve(ctx, "telegram", senderID, &protocol.PlatformContext{
		ChatID:    chatID,
		MessageID: msg.MessageID,
		UserID:    senderID,
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
	})
	if err != nil {
		p.log.Warn("telegram: identity resolution failed", "err", err)
		return
	}

	replyToID := 0
	if msg.ReplyToMessage != nil {
		replyToID = msg.ReplyToMessage.MessageID
	}

	buildCommand := func(command, args string) dispatch.InboundCommand {
		return dispatch.InboundCommand{
			Platform:         "telegram",
			ChatID:           chatID,
			MessageID:        msg.MessageID,
			IsGroup:          isGroup,
			SenderPlatformID: senderID,
			SenderUsername:   msg.From.Username,
			MasterAccountID:  maid,
			Command:          command,
			Args:             args,
		}
	}
	buildReply := func(storedCtx protocol.ReplyContext) dispatch.InboundReply {
		return dispatch.InboundReply{
			Platform:         "telegram",
			ChatID:           chatID,
			MessageID:        msg.MessageID,
			ReplyToMessageID: replyToID,
			SenderPlatformID: senderID,
			MasterAccountID:  maid,
			Text:             msg.Text,
			Context:          storedCtx,
		}
	}

	if err := p.router.RouteText(ctx, msg.Text, chatID, replyToID, buildCommand, buildReply); err != nil {
		p.log.Warn("telegram: dispatch error", "err", err, "chat_id", chatID)
	}
}

func (p *InboundPump) handleCallback(ctx context.Context, cq *telego.CallbackQuery) {
	if cq.Message == nil {
		return
	}
	chatID := strconv.FormatInt(cq.Message.GetChat().ID, 10)
	senderID := strconv.FormatInt(cq.From.ID, 10)
	isGroup := cq.Message.GetChat().Type == telego.ChatTypeGroup || cq.Message.GetChat().Type == telego.ChatTypeSupergroup

	maid, err := p.resolver.Resolve(ctx, "telegram", senderID, &protocol.PlatformContext{
		ChatID:   chatID,
		UserID:   senderID,
		Username: cq.From.Username,
	})
	if err != nil {
		p.log.Warn("telegram: identity resolution failed", "err", err)
		return
	}

	repliedFrom := ""
	if accessible, ok := cq.Message.(*telego.Message); ok && accessible.ReplyToMessage != nil && accessible.ReplyToMessage.From != nil {
		repliedFrom = strconv.FormatInt(accessible.ReplyToMessage.From.ID, 10)
	}

	cb := dispatch.InboundCallback{
		Platform:          "telegram",
		ChatID:            chatID,
		MessageID:         cq.Message.GetMessageID(),
		CallbackQueryID:   cq.ID,
		Data:              cq.Data,
		SenderPlatformID:  senderID,
		SenderUsername:    cq.From.Username,
		MasterAccountID:   maid,
		IsGroup:           isGroup,
		RepliedFromUserID: repliedFrom,
	}

	matched, err := p.router.RouteCallback(ctx, cb)
	if !matched {
		p.adapter.AnswerCallback(ctx, cq.ID, "", false)
		return
	}
	if dispatch.IsAuthDenied(err) {
		p.adapter.AnswerCallback(ctx, cq.ID, "This menu isn't for you.", true)
		return
	}
	if err != nil {
		p.log.Warn("telegram: callback handler error", "err", err, "data", cq.Data)
		p.adapter.AnswerCallback(ctx, cq.ID, "Something went wrong, please try again.", true)
		return
	}
	p.adapter.AnswerCallback(ctx, cq.ID, "", false)
}
