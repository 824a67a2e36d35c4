package dispatch

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/forgebot/internal/interaction"
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

var tracer = otel.Tracer("forgebot/dispatch")

// Router implements the inbound text-message ordering from §4.1:
// "/command" prefix → CommandDispatcher; else if the message replies to
// a message with a stored ReplyContext → MessageReplyDispatcher (context
// consumed on success); else → DynamicCommandDispatcher.
type Router struct {
	Commands  *CommandDispatcher
	Callbacks *CallbackQueryDispatcher
	Replies   *MessageReplyDispatcher
	Dynamic   *DynamicCommandDispatcher

	ReplyContexts *interaction.ReplyContextStore
	log           *slog.Logger
}

// NewRouter wires the four dispatchers together.
func NewRouter(commands *CommandDispatcher, callbacks *CallbackQueryDispatcher, replies *MessageReplyDispatcher, dynamic *DynamicCommandDispatcher, replyContexts *interaction.ReplyContextStore, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{Commands: commands, Callbacks: callbacks, Replies: replies, Dynamic: dynamic, ReplyContexts: replyContexts, log: log}
}

// RouteText handles an inbound text message per the §4.1 ordering. Raw
// is the full message text; replyToMessageID is 0 if the message is not
// a reply.
func (r *Router) RouteText(ctx context.Context, raw, chatID string, replyToMessageID int, buildCommand func(command, args string) InboundCommand, buildReply func(storedCtx protocol.ReplyContext) InboundReply) error {
	ctx, span := tracer.Start(ctx, "dispatch.RouteText", trace.WithAttributes(
		attribute.String("chat.id", chatID),
	))
	defer span.End()

	if err := r.routeText(ctx, raw, chatID, replyToMessageID, buildCommand, buildReply); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "route text failed")
		return err
	}
	return nil
}

func (r *Router) routeText(ctx context.Context, raw, chatID string, replyToMessageID int, buildCommand func(command, args string) InboundCommand, buildReply func(storedCtx protocol.ReplyContext) InboundReply) error {
	if strings.HasPrefix(raw, "/") {
		parts := strings.SplitN(raw, " ", 2)
		cmd := strings.ToLower(strings.SplitN(parts[0], "@", 2)[0])
		args := ""
		if len(parts) == 2 {
			args = parts[1]
		}
		matched, err := r.Commands.Dispatch(buildCommand(cmd, args))
		if matched {
			return err
		}
	}

	if replyToMessageID != 0 {
		if storedCtx, ok := r.ReplyContexts.Take(chatID, replyToMessageID); ok {
			reply := buildReply(storedCtx)
			matched, err := r.Replies.Dispatch(reply)
			if matched {
				return err
			}
		}
	}

	_, err := r.Dynamic.Dispatch(ctx, buildCommand("", raw))
	return err
}

// RouteCallback dispatches an inline-button press.
func (r *Router) RouteCallback(ctx context.Context, cb InboundCallback) (matched bool, err error) {
	_, span := tracer.Start(ctx, "dispatch.RouteCallback", trace.WithAttributes(
		attribute.String("chat.id", cb.ChatID),
	))
	defer span.End()

	matched, err = r.Callbacks.Dispatch(cb)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "route callback failed")
	}
	return matched, err
}
