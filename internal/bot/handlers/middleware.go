// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// GroupOnly drops updates that do not come from a group or supergroup.
func GroupOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || !isGroupChat(update.Message.Chat) {
				if update.Message != nil {
					deps.Logger.DebugContext(ctx, "Ignoring group command outside a group",
						"middleware", "GroupOnly", "chat_id", update.Message.Chat.ID)
				}
				return
			}
			next(ctx, bot, update)
		}
	}
}

func isGroupChat(chat models.Chat) bool {
	return chat.Type == models.ChatTypeGroup || chat.Type == models.ChatTypeSupergroup
}

// withBotName replaces the @botname placeholder with the bot's username.
func withBotName(deps HandlerDeps, text string) string {
	if info := deps.Config.Telegram.BotInfo; info != nil && info.Username != "" {
		return strings.ReplaceAll(text, "@botname", "@"+info.Username)
	}
	return text
}
