package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/faxinabot/internal/moderation"
)

// NewCleanupToggleHandler returns the handler for /enable_cleanup (enable
// true) or /disable_cleanup (enable false).
func NewCleanupToggleHandler(deps HandlerDeps, enable bool) bot.HandlerFunc {
	return cleanupToggleHandler{deps: deps, enable: enable}.Handle
}

type cleanupToggleHandler struct {
	deps   HandlerDeps
	enable bool
}

func (h cleanupToggleHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	command := "disable_cleanup"
	if h.enable {
		command = "enable_cleanup"
	}
	log := h.deps.Logger.With("handler", command)

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Cleanup handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	log = log.With("chat_id", chatID, "user_id", userID)

	role, outcome := h.deps.Client.GetMemberRole(ctx, chatID, userID)
	if !outcome.OK() {
		role = moderation.RoleUnknown
	}

	result, err := h.deps.Gate.Toggle(ctx, chatID, role, h.enable)
	h.deps.Metrics.ObserveToggle(h.enable, result.String())
	if err != nil {
		log.ErrorContext(ctx, "Failed to update cleanup state", "error", err)
		return
	}
	if result == moderation.ToggleDenied {
		log.WarnContext(ctx, "Cleanup toggle denied", "role", role.String())
		return
	}

	reply := h.deps.Config.Messages.CleanupDisabled
	if h.enable {
		reply = h.deps.Config.Messages.CleanupEnabled
	}
	log.InfoContext(ctx, "Cleanup state updated", "enabled", h.enable)
	h.deps.Client.SendMessage(ctx, chatID, reply)
}
