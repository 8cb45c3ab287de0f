// Package telegram wraps go-telegram/bot: bot construction, handler
// registration and the best-effort Client used by the rest of the bot.
package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/faxinabot/internal/metrics"
	"github.com/edgard/faxinabot/internal/moderation"
)

// Client is the subset of the Bot API the bot acts through. Every call is
// best-effort: failures are logged and reported as an Outcome, never as an error.
type Client interface {
	GetMemberRole(ctx context.Context, chatID, userID int64) (moderation.Role, Outcome)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) Outcome
	PinMessage(ctx context.Context, chatID int64, messageID int, silent bool) Outcome
	SendMessage(ctx context.Context, chatID int64, text string) Outcome
}

// BotClient implements Client over a go-telegram/bot instance.
type BotClient struct {
	bot     *bot.Bot
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// NewBotClient wraps b. Each call is bounded by timeout.
func NewBotClient(b *bot.Bot, logger *slog.Logger, m *metrics.Metrics, timeout time.Duration) *BotClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &BotClient{
		bot:     b,
		logger:  logger.With("component", "telegram_client"),
		metrics: m,
		timeout: timeout,
	}
}

// GetMemberRole looks up the member status of userID in chatID.
// Any failure yields RoleUnknown.
func (c *BotClient) GetMemberRole(ctx context.Context, chatID, userID int64) (moderation.Role, Outcome) {
	role := moderation.RoleUnknown
	outcome := c.call(ctx, "get_chat_member", chatID, func(ctx context.Context) error {
		member, err := c.bot.GetChatMember(ctx, &bot.GetChatMemberParams{ChatID: chatID, UserID: userID})
		if err != nil {
			return err
		}
		role = roleFromMember(member)
		return nil
	}, "user_id", userID)
	if !outcome.OK() {
		return moderation.RoleUnknown, outcome
	}
	return role, outcome
}

// DeleteMessage removes a message from a chat.
func (c *BotClient) DeleteMessage(ctx context.Context, chatID int64, messageID int) Outcome {
	return c.call(ctx, "delete_message", chatID, func(ctx context.Context) error {
		_, err := c.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID})
		return err
	}, "message_id", messageID)
}

// PinMessage pins a message; silent suppresses the member notification.
func (c *BotClient) PinMessage(ctx context.Context, chatID int64, messageID int, silent bool) Outcome {
	return c.call(ctx, "pin_message", chatID, func(ctx context.Context) error {
		_, err := c.bot.PinChatMessage(ctx, &bot.PinChatMessageParams{
			ChatID:              chatID,
			MessageID:           messageID,
			DisableNotification: silent,
		})
		return err
	}, "message_id", messageID)
}

// SendMessage posts plain text to a chat.
func (c *BotClient) SendMessage(ctx context.Context, chatID int64, text string) Outcome {
	return c.call(ctx, "send_message", chatID, func(ctx context.Context) error {
		_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
		return err
	})
}

// call is the single place where Bot API failures are swallowed: it bounds
// fn by the client timeout, classifies the error, logs and counts it.
// No retries are attempted.
func (c *BotClient) call(ctx context.Context, op string, chatID int64, fn func(ctx context.Context) error, attrs ...any) Outcome {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	err := fn(callCtx)
	outcome := Classify(err)
	c.metrics.ObservePlatformCall(op, outcome.String())

	if err != nil {
		args := append([]any{"operation", op, "chat_id", chatID, "outcome", outcome.String(), "error", err}, attrs...)
		c.logger.WarnContext(ctx, "Bot API call failed", args...)
	}
	return outcome
}

func roleFromMember(member *models.ChatMember) moderation.Role {
	if member == nil {
		return moderation.RoleUnknown
	}
	switch member.Type {
	case models.ChatMemberTypeOwner:
		return moderation.RoleCreator
	case models.ChatMemberTypeAdministrator:
		return moderation.RoleAdministrator
	case models.ChatMemberTypeMember:
		return moderation.RoleMember
	case models.ChatMemberTypeRestricted:
		return moderation.RoleRestricted
	case models.ChatMemberTypeLeft:
		return moderation.RoleLeft
	case models.ChatMemberTypeBanned:
		return moderation.RoleKicked
	default:
		return moderation.RoleUnknown
	}
}
