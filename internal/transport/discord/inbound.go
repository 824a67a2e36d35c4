package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/nextlevelbuilder/forgebot/internal/dispatch"
	"github.com/nextlevelbuilder/forgebot/internal/identity"
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// InboundPump converts discordgo gateway events into dispatch events and
// routes them, resolving the sender's masterAccountId first (C1 ahead of
// C4), mirroring internal/transport/telegram.InboundPump.
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

// OnMessage is the discordgo MessageCreate handler.
func (p *InboundPump) OnMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	ctx := context.Background()
	isGroup := m.GuildID != ""

	maid, err := p.resolver.Resolve(ctx, "discord", m.Author.ID, &protocol.PlatformContext{
		ChatID:    m.ChannelID,
		MessageID: discordMessageIDToInt(m.ID),
		UserID:    m.Author.ID,
		Username:  m.Author.Username,
	})
	if err != nil {
		p.log.Warn("discord: identity resolution failed", "err", err)
		return
	}

	replyToID := 0
	if m.MessageReference != nil && m.MessageReference.MessageID != "" {
		replyToID = discordMessageIDToInt(m.MessageReference.MessageID)
	}

	buildCommand := func(command, args string) dispatch.InboundCommand {
		return dispatch.InboundCommand{
			Platform:         "discord",
			ChatID:           m.ChannelID,
			MessageID:        discordMessageIDToInt(m.ID),
			IsGroup:          isGroup,
			SenderPlatformID: m.Author.ID,
			SenderUsername:   m.Author.Username,
			MasterAccountID:  maid,
			Command:          command,
			Args:             args,
		}
	}
	buildReply := func(storedCtx protocol.ReplyContext) dispatch.InboundReply {
		return dispatch.InboundReply{
			Platform:         "discord",
			ChatID:           m.ChannelID,
			MessageID:        discordMessageIDToInt(m.ID),
			ReplyToMessageID: replyToID,
			SenderPlatformID: m.Author.ID,
			MasterAccountID:  maid,
			Text:             m.Content,
			Context:          storedCtx,
		}
	}

	if err := p.router.RouteText(ctx, m.Content, m.ChannelID, replyToID, buildCommand, buildReply); err != nil {
		p.log.Warn("discord: dispatch error", "err", err, "channel_id", m.ChannelID)
	}
}

// OnComponent is the discordgo MessageComponent InteractionCreate
// handler. Discord has no standalone callback-query id the way Telegram
// does, so the pump mints one, stashes the live *discordgo.Interaction
// under it, and hands that token to the dispatch core as
// InboundCallback.CallbackQueryID; Adapter.AnswerCallback resolves it
// back when the handler finishes.
func (p *InboundPump) OnComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	member := i.Member
	user := i.User
	if user == nil && member != nil {
		user = member.User
	}
	if user == nil {
		return
	}
	isGroup := i.GuildID != ""

	maid, err := p.resolver.Resolve(ctx, "discord", user.ID, &protocol.PlatformContext{
		ChatID:   i.ChannelID,
		UserID:   user.ID,
		Username: user.Username,
	})
	if err != nil {
		p.log.Warn("discord: identity resolution failed", "err", err)
		return
	}

	token := uuid.NewString()
	p.adapter.trackInteraction(token, i.Interaction)

	var repliedFrom string
	if i.Message != nil && i.Message.ReferencedMessage != nil && i.Message.ReferencedMessage.Author != nil {
		repliedFrom = i.Message.ReferencedMessage.Author.ID
	}

	cb := dispatch.InboundCallback{
		Platform:          "discord",
		ChatID:            i.ChannelID,
		MessageID:         discordMessageIDToInt(i.Message.ID),
		CallbackQueryID:   token,
		Data:              i.MessageComponentData().CustomID,
		SenderPlatformID:  user.ID,
		SenderUsername:    user.Username,
		MasterAccountID:   maid,
		IsGroup:           isGroup,
		RepliedFromUserID: repliedFrom,
	}

	matched, err := p.router.RouteCallback(ctx, cb)
	if !matched {
		p.adapter.AnswerCallback(ctx, token, "", false)
		return
	}
	if dispatch.IsAuthDenied(err) {
		p.adapter.AnswerCallback(ctx, token, "This menu isn't for you.", true)
		return
	}
	if err != nil {
		p.log.Warn("discord: callback handler error", "err", err, "data", cb.Data)
		p.adapter.AnswerCallback(ctx, token, "Something went wrong, please try again.", true)
		return
	}
	p.adapter.AnswerCallback(ctx, token, "", false)
}
