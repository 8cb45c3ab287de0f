package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/faxinabot/internal/moderation"
)

// NewModerationHandler returns the default handler, applied to every update
// no command matched. Each group message is pinned, tracked or ignored.
func NewModerationHandler(deps HandlerDeps) bot.HandlerFunc {
	return moderationHandler{deps}.Handle
}

type moderationHandler struct {
	deps HandlerDeps
}

func (h moderationHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || !isGroupChat(msg.Chat) {
		return
	}
	log := h.deps.Logger.With("handler", "moderation", "chat_id", msg.Chat.ID, "message_id", msg.ID)

	role := moderation.RoleUnknown
	if !msg.From.IsBot {
		if r, outcome := h.deps.Client.GetMemberRole(ctx, msg.Chat.ID, msg.From.ID); outcome.OK() {
			role = r
		}
	}

	action, err := h.deps.Policy.Decide(ctx, msg.Chat.ID, role, msg.From.IsBot)
	if err != nil {
		h.deps.Metrics.ObserveDecision("error")
		log.ErrorContext(ctx, "Failed to decide on message", "error", err)
		return
	}
	h.deps.Metrics.ObserveDecision(action.String())

	switch action {
	case moderation.ActionPin:
		h.deps.Client.PinMessage(ctx, msg.Chat.ID, msg.ID, true)
	case moderation.ActionTrack:
		if err := h.deps.Store.CaptureMessage(ctx, msg.Chat.ID, msg.ID, h.deps.now()); err != nil {
			h.deps.Metrics.ObserveCaptureFailure()
			log.ErrorContext(ctx, "Failed to track message", "error", err)
			return
		}
		log.DebugContext(ctx, "Message tracked")
	case moderation.ActionIgnore:
	}
}
