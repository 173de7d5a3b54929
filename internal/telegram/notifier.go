package telegram

import (
	"context"
	"fmt"
	"strings"

	"studiodesk/internal/domain"
	"studiodesk/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier forwards dashboard notifications to one Telegram chat.
type Notifier struct {
	bot    Sender
	chatID int64
}

var _ domain.NotificationForwarder = (*Notifier)(nil)

func NewNotifier(bot Sender, chatID int64) *Notifier {
	return &Notifier{bot: bot, chatID: chatID}
}

// NewBotAPI connects to Telegram with token.
func NewBotAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

func (n *Notifier) Forward(ctx context.Context, notification models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, FormatNotification(notification))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

var typeIcons = map[string]string{
	models.NotificationAlert:   "⚠️",
	models.NotificationPayment: "💰",
	models.NotificationBooking: "📅",
	models.NotificationUpdate:  "✅",
	models.NotificationSystem:  "ℹ️",
}

// FormatNotification renders the message text in legacy Markdown.
func FormatNotification(n models.Notification) string {
	icon, ok := typeIcons[n.Type]
	if !ok {
		icon = typeIcons[models.NotificationSystem]
	}
	return fmt.Sprintf("%s *%s*\n%s", icon, escapeMarkdown(n.Title), escapeMarkdown(n.Message))
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
