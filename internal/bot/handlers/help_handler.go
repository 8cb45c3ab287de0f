package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

// helpHandler processes the /help command. In a group the reply also carries
// the group's cleanup status.
type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Help handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /help command", "chat_id", chatID, "user_id", update.Message.From.ID)

	helpMsg := withBotName(h.deps, h.deps.Config.Messages.Help)
	if isGroupChat(update.Message.Chat) {
		status, err := h.status(ctx, chatID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to read cleanup status", "error", err, "chat_id", chatID)
		} else {
			helpMsg += "\n\n" + status
		}
	}

	if h.deps.Client.SendMessage(ctx, chatID, helpMsg).OK() {
		log.DebugContext(ctx, "Sent help message", "chat_id", chatID)
	}
}

func (h helpHandler) status(ctx context.Context, chatID int64) (string, error) {
	enabled, err := h.deps.Store.IsGroupEnabled(ctx, chatID)
	if err != nil {
		return "", err
	}
	pending, err := h.deps.Store.CountPendingMessages(ctx, chatID)
	if err != nil {
		return "", err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return fmt.Sprintf("Cleanup: %s. Messages waiting for deletion: %d. Next sweep at %s (%s).",
		state, pending, h.deps.Config.Retention.SweepTime, h.deps.Config.Retention.Timezone), nil
}
