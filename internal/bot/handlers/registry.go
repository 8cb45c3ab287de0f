package handlers

import (
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/faxinabot/internal/telegram"
)

// RegisterAllCommands returns every bot command keyed by its slash name.
func RegisterAllCommands(deps HandlerDeps) map[string]telegram.RegisteredHandler {
	handlers := make(map[string]telegram.RegisteredHandler)

	handlers["/start"] = command(deps, "start", NewStartHandler(deps))
	handlers["/help"] = command(deps, "help", NewHelpHandler(deps))

	groupMiddleware := []tgbot.Middleware{GroupOnly(deps)}

	handlers["/enable_cleanup"] = command(deps, "enable_cleanup", NewCleanupToggleHandler(deps, true), groupMiddleware...)
	handlers["/disable_cleanup"] = command(deps, "disable_cleanup", NewCleanupToggleHandler(deps, false), groupMiddleware...)

	return handlers
}

func command(deps HandlerDeps, name string, handler tgbot.HandlerFunc, mw ...tgbot.Middleware) telegram.RegisteredHandler {
	return telegram.RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     name,
		Handler:     handler,
		Middleware:  mw,
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		MatchFunc:   matchCommand(deps, name),
	}
}

// matchCommand matches "/name" and "/name@bot" at the start of a message,
// where bot is this bot's username. Commands addressed to other bots do not match.
func matchCommand(deps HandlerDeps, name string) tgbot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil {
			return false
		}
		cmd, target, ok := parseCommand(update.Message.Text)
		if !ok || cmd != name {
			return false
		}
		if target == "" {
			return true
		}
		info := deps.Config.Telegram.BotInfo
		return info != nil && strings.EqualFold(target, info.Username)
	}
}

// parseCommand splits "/cmd@target args" into cmd and target.
func parseCommand(text string) (cmd, target string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	token := strings.Fields(text)[0][1:]
	cmd, target, _ = strings.Cut(token, "@")
	return cmd, target, cmd != ""
}
