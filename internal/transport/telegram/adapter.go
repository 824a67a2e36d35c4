// Package telegram adapts telego's long-polling bot API to the generic
// internal/transport.Transport interface used by the dispatch core.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/forgebot/internal/config"
	"github.com/nextlevelbuilder/forgebot/internal/safety"
	"github.com/nextlevelbuilder/forgebot/internal/transport"
)

// updateWorkerPoolSize is the number of independent worker tasks
// consuming the long-polling update stream (§5 "a pool of independent
// worker tasks consumes platform events; each incoming update ... is
// handled to completion by one worker"). Sized generously since every
// handler suspends on network I/O (data-API calls, message sends)
// rather than burning CPU.
const updateWorkerPoolSize = 8

// Adapter implements transport.Transport over telego.
type Adapter struct {
	bot *telego.Bot
	log *slog.Logger

	editRPS      rate.Limit
	editLimiters sync.Map // chatID string -> *rate.Limiter

	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// editLimiterFor returns the per-chat edit-rate limiter for chatID,
// creating one on first use (§4.4 step 3 re-renders the same message
// repeatedly; a single shared limiter would throttle unrelated chats).
func (a *Adapter) editLimiterFor(chatID string) *rate.Limiter {
	if l, ok := a.editLimiters.Load(chatID); ok {
		return l.(*rate.Limiter)
	}
	l, _ := a.editLimiters.LoadOrStore(chatID, rate.NewLimiter(a.editRPS, 1))
	return l.(*rate.Limiter)
}

// New constructs an Adapter from Telegram channel config. cfg.EditRateRPS
// throttles message edits (tweak keyboard refresh, counter buttons) so a
// burst of presses can't trip Telegram's per-chat edit rate limit.
func New(cfg config.TelegramConfig, log *slog.Logger) (*Adapter, error) {
	if log == nil {
		log = slog.Default()
	}

	var opts []telego.BotOption
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("telegram: invalid proxy url %q: %w", cfg.Proxy, err)
		}
		opts = append(opts, telego.WithHTTPClient(&http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}))
	}

	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}

	rps := cfg.EditRateRPS
	if rps <= 0 {
		rps = 1
	}

	return &Adapter{
		bot:     bot,
		editRPS: rate.Limit(rps),
		log:     log,
	}, nil
}

// Name identifies the platform.
func (a *Adapter) Name() string { return "telegram" }

// UpdateHandler is invoked for every inbound telego update; the caller
// (cmd/serve wiring) is responsible for converting updates into
// dispatch events and routing them.
type UpdateHandler func(ctx context.Context, update telego.Update)

// Start begins long polling and feeds every update to handle.
func (a *Adapter) Start(ctx context.Context, handle UpdateHandler) error {
	pollCtx, cancel := context.WithCancel(ctx)
	a.pollCancel = cancel
	a.pollDone = make(chan struct{})

	updates, err := a.bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{
		Timeout:        30,
		AllowedUpdates: []string{"message", "callback_query"},
	})
	if err != nil {
		cancel()
		return fmt.Errorf("telegram: start long polling: %w", err)
	}

	a.log.Info("telegram: connected", "username", a.bot.Username())

	go func() {
		defer close(a.pollDone)

		jobs := make(chan telego.Update, updateWorkerPoolSize)
		g, gctx := errgroup.WithContext(pollCtx)
		for i := 0; i < updateWorkerPoolSize; i++ {
			g.Go(func() error {
				for {
					select {
					case <-gctx.Done():
						return nil
					case update, ok := <-jobs:
						if !ok {
							return nil
						}
						handle(pollCtx, update)
					}
				}
			})
		}

	drain:
		for {
			select {
			case <-pollCtx.Done():
				break drain
			case update, ok := <-updates:
				if !ok {
					break drain
				}
				select {
				case jobs <- update:
				case <-pollCtx.Done():
					break drain
				}
			}
		}
		close(jobs)
		if err := g.Wait(); err != nil {
			a.log.Warn("telegram: update worker returned error", "err", err)
		}
	}()

	return nil
}

// Stop cancels long polling and waits for the pump goroutine to exit.
func (a *Adapter) Stop(ctx context.Context) error {
	if a.pollCancel != nil {
		a.pollCancel()
	}
	if a.pollDone != nil {
		select {
		case <-a.pollDone:
		case <-time.After(10 * time.Second):
			a.log.Warn("telegram: polling goroutine did not exit within timeout")
		}
	}
	return nil
}

func parseChatID(chatID string) (int64, error) {
	return strconv.ParseInt(chatID, 10, 64)
}

// Send delivers msg as a new message.
func (a *Adapter) Send(ctx context.Context, msg transport.OutgoingMessage) (transport.SentMessage, error) {
	chatID, err := parseChatID(msg.ChatID)
	if err != nil {
		return transport.SentMessage{}, fmt.Errorf("telegram: invalid chat id %q: %w", msg.ChatID, err)
	}
	chatIDObj := tu.ID(chatID)
	kb := buildKeyboard(msg.Keyboard)

	var sent *telego.Message
	switch msg.Media {
	case transport.MediaPhoto:
		params := tu.Photo(chatIDObj, telego.InputFile{URL: msg.MediaURL}).WithCaption(msg.Text.String()).WithParseMode(telego.ModeMarkdownV2)
		if kb != nil {
			params = params.WithReplyMarkup(kb)
		}
		if msg.ReplyTo != 0 {
			params = params.WithReplyParameters(&telego.ReplyParameters{MessageID: msg.ReplyTo})
		}
		sent, err = a.bot.SendPhoto(ctx, params)
	case transport.MediaAnimation:
		params := tu.Animation(chatIDObj, telego.InputFile{URL: msg.MediaURL}).WithCaption(msg.Text.String()).WithParseMode(telego.ModeMarkdownV2)
		if kb != nil {
			params = params.WithReplyMarkup(kb)
		}
		if msg.ReplyTo != 0 {
			params = params.WithReplyParameters(&telego.ReplyParameters{MessageID: msg.ReplyTo})
		}
		sent, err = a.bot.SendAnimation(ctx, params)
	case transport.MediaVideo:
		params := tu.Video(chatIDObj, telego.InputFile{URL: msg.MediaURL}).WithCaption(msg.Text.String()).WithParseMode(telego.ModeMarkdownV2)
		if kb != nil {
			params = params.WithReplyMarkup(kb)
		}
		if msg.ReplyTo != 0 {
			params = params.WithReplyParameters(&telego.ReplyParameters{MessageID: msg.ReplyTo})
		}
		sent, err = a.bot.SendVideo(ctx, params)
	default:
		params := tu.Message(chatIDObj, msg.Text.String()).WithParseMode(telego.ModeMarkdownV2)
		if kb != nil {
			params = params.WithReplyMarkup(kb)
		}
		if msg.ReplyTo != 0 {
			params = params.WithReplyParameters(&telego.ReplyParameters{MessageID: msg.ReplyTo})
		}
		sent, err = a.bot.SendMessage(ctx, params)
	}
	if err != nil {
		return transport.SentMessage{}, fmt.Errorf("telegram: send: %w", err)
	}
	return transport.SentMessage{ChatID: msg.ChatID, MessageID: sent.MessageID}, nil
}

// EditText replaces the text and keyboard of an existing message.
func (a *Adapter) EditText(ctx context.Context, chatID string, messageID int, text safety.SafeText, keyboard transport.InlineKeyboard) error {
	if err := a.editLimiterFor(chatID).Wait(ctx); err != nil {
		return err
	}
	id, err := parseChatID(chatID)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q: %w", chatID, err)
	}
	params := &telego.EditMessageTextParams{
		ChatID:      tu.ID(id),
		MessageID:   messageID,
		Text:        text.String(),
		ParseMode:   telego.ModeMarkdownV2,
		ReplyMarkup: buildKeyboard(keyboard),
	}
	_, err = a.bot.EditMessageText(ctx, params)
	if err != nil && isNotEditable(err) {
		return &transport.EditError{Err: err, NotEditable: true}
	}
	return err
}

// EditKeyboard replaces only the inline keyboard of an existing message.
func (a *Adapter) EditKeyboard(ctx context.Context, chatID string, messageID int, keyboard transport.InlineKeyboard) error {
	if err := a.editLimiterFor(chatID).Wait(ctx); err != nil {
		return err
	}
	id, err := parseChatID(chatID)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q: %w", chatID, err)
	}
	_, err = a.bot.EditMessageReplyMarkup(ctx, &telego.EditMessageReplyMarkupParams{
		ChatID:      tu.ID(id),
		MessageID:   messageID,
		ReplyMarkup: buildKeyboard(keyboard),
	})
	if err != nil && isNotEditable(err) {
		return &transport.EditError{Err: err, NotEditable: true}
	}
	return err
}

// Delete removes a message.
func (a *Adapter) Delete(ctx context.Context, chatID string, messageID int) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q: %w", chatID, err)
	}
	err = a.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{ChatID: tu.ID(id), MessageID: messageID})
	if err != nil && strings.Contains(err.Error(), "message to delete not found") {
		return nil
	}
	return err
}

// AnswerCallback acknowledges an inline-button press.
func (a *Adapter) AnswerCallback(ctx context.Context, callbackQueryID string, alertText string, showAlert bool) error {
	return a.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: callbackQueryID,
		Text:            alertText,
		ShowAlert:       showAlert,
	})
}

func isNotEditable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "message to edit not found") ||
		strings.Contains(msg, "message can't be edited") ||
		strings.Contains(msg, "MESSAGE_ID_INVALID")
}
