// Package discord adapts discordgo's gateway session to the generic
// internal/transport.Transport interface used by the dispatch core.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/forgebot/internal/config"
	"github.com/nextlevelbuilder/forgebot/internal/safety"
	"github.com/nextlevelbuilder/forgebot/internal/transport"
)

// maxPendingInteractions bounds the interaction-token lookup table the
// same way identity.Resolver bounds its cache: point delete on use,
// arbitrary eviction if a client never resolves its interaction.
const maxPendingInteractions = 4096

// Adapter implements transport.Transport over discordgo. Discord has no
// concept of a freestanding "callback query id" the way Telegram does;
// AnswerCallback's callbackQueryID argument is a token the InboundPump
// mints per MessageComponentInteractionCreate and stores here so the
// eventual handler response can be matched back to the live interaction.
type Adapter struct {
	session *discordgo.Session
	log     *slog.Logger

	mu           sync.Mutex
	interactions map[string]*discordgo.Interaction
}

// New constructs an Adapter from Discord channel config.
func New(cfg config.DiscordConfig, log *slog.Logger) (*Adapter, error) {
	if log == nil {
		log = slog.Default()
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Adapter{
		session:      session,
		log:          log,
		interactions: make(map[string]*discordgo.Interaction),
	}, nil
}

// Name identifies the platform.
func (a *Adapter) Name() string { return "discord" }

// MessageHandler is invoked for every inbound chat message.
type MessageHandler func(s *discordgo.Session, m *discordgo.MessageCreate)

// ComponentHandler is invoked for every inbound button press.
type ComponentHandler func(s *discordgo.Session, i *discordgo.InteractionCreate)

// Start opens the gateway connection and begins dispatching events to the
// given handlers.
func (a *Adapter) Start(_ context.Context, onMessage MessageHandler, onComponent ComponentHandler) error {
	a.session.AddHandler(onMessage)
	a.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type == discordgo.InteractionMessageComponent {
			onComponent(s, i)
		}
	})

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}
	user, err := a.session.User("@me")
	if err != nil {
		a.session.Close()
		return fmt.Errorf("discord: fetch bot identity: %w", err)
	}
	a.log.Info("discord: connected", "username", user.Username, "id", user.ID)
	return nil
}

// Stop closes the gateway connection.
func (a *Adapter) Stop(_ context.Context) error {
	return a.session.Close()
}

// trackInteraction remembers an interaction under token so a later
// AnswerCallback call can resolve it.
func (a *Adapter) trackInteraction(token string, i *discordgo.Interaction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.interactions) >= maxPendingInteractions {
		for k := range a.interactions {
			delete(a.interactions, k)
			break
		}
	}
	a.interactions[token] = i
}

func (a *Adapter) takeInteraction(token string) (*discordgo.Interaction, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i, ok := a.interactions[token]
	if ok {
		delete(a.interactions, token)
	}
	return i, ok
}

// Send delivers msg as a new message, embedding media as an image/video
// link since Discord has no first-class "send by URL" media message type
// the way Telegram does.
func (a *Adapter) Send(_ context.Context, msg transport.OutgoingMessage) (transport.SentMessage, error) {
	send := &discordgo.MessageSend{
		Content:    msg.Text.String(),
		Components: buildComponents(msg.Keyboard),
	}
	if msg.ReplyTo != 0 {
		send.Reference = &discordgo.MessageReference{MessageID: fmt.Sprintf("%d", msg.ReplyTo), ChannelID: msg.ChatID}
	}
	switch msg.Media {
	case transport.MediaPhoto, transport.MediaAnimation:
		send.Embeds = []*discordgo.MessageEmbed{{Image: &discordgo.MessageEmbedImage{URL: msg.MediaURL}}}
	case transport.MediaVideo:
		send.Content = msg.Text.String() + "\n" + msg.MediaURL
	}

	sent, err := a.session.ChannelMessageSendComplex(msg.ChatID, send)
	if err != nil {
		return transport.SentMessage{}, fmt.Errorf("discord: send: %w", err)
	}
	return transport.SentMessage{ChatID: msg.ChatID, MessageID: discordMessageIDToInt(sent.ID)}, nil
}

// EditText replaces the text and components of an existing message.
func (a *Adapter) EditText(_ context.Context, chatID string, messageID int, text safety.SafeText, keyboard transport.InlineKeyboard) error {
	content := text.String()
	components := buildComponents(keyboard)
	_, err := a.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    chatID,
		ID:         intMessageIDToDiscord(messageID),
		Content:    &content,
		Components: &components,
	})
	if err != nil && isUnknownMessage(err) {
		return &transport.EditError{Err: err, NotEditable: true}
	}
	return err
}

// EditKeyboard replaces only the message components.
func (a *Adapter) EditKeyboard(_ context.Context, chatID string, messageID int, keyboard transport.InlineKeyboard) error {
	components := buildComponents(keyboard)
	_, err := a.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    chatID,
		ID:         intMessageIDToDiscord(messageID),
		Components: &components,
	})
	if err != nil && isUnknownMessage(err) {
		return &transport.EditError{Err: err, NotEditable: true}
	}
	return err
}

// Delete removes a message.
func (a *Adapter) Delete(_ context.Context, chatID string, messageID int) error {
	err := a.session.ChannelMessageDelete(chatID, intMessageIDToDiscord(messageID))
	if err != nil && isUnknownMessage(err) {
		return nil
	}
	return err
}

// AnswerCallback acknowledges a button press. callbackQueryID is the
// token minted by the InboundPump for the originating interaction.
func (a *Adapter) AnswerCallback(_ context.Context, callbackQueryID string, alertText string, showAlert bool) error {
	interaction, ok := a.takeInteraction(callbackQueryID)
	if !ok {
		return nil
	}
	if alertText == "" {
		return a.session.InteractionRespond(interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		})
	}
	flags := discordgo.MessageFlags(0)
	if showAlert {
		flags = discordgo.MessageFlagsEphemeral
	}
	return a.session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: alertText, Flags: flags},
	})
}

func isUnknownMessage(err error) bool {
	rest, ok := err.(*discordgo.RESTError)
	return ok && rest.Message != nil && rest.Message.Code == discordgo.ErrCodeUnknownMessage
}

func discordMessageIDToInt(id string) int {
	var n int
	fmt.Sscanf(id, "%d", &n)
	return n
}

func intMessageIDToDiscord(id int) string {
	return fmt.Sprintf("%d", id)
}
