package telegram

import (
	"context"
	"errors"
	"testing"

	"studiodesk/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func TestNotifierForward(t *testing.T) {
	sender := new(mockSender)
	n := NewNotifier(sender, 42)
	notification := models.Notification{
		Title:   "Booking Cancelled",
		Message: "Booking #BK-1 for A_B has been cancelled",
		Type:    models.NotificationAlert,
	}

	t.Run("Success", func(t *testing.T) {
		sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			return ok && msg.ChatID == 42 && msg.ParseMode == tgbotapi.ModeMarkdown &&
				msg.Text == "⚠️ *Booking Cancelled*\nBooking #BK-1 for A\\_B has been cancelled"
		})).Return(tgbotapi.Message{}, nil).Once()

		assert.NoError(t, n.Forward(context.Background(), notification))
		sender.AssertExpectations(t)
	})

	t.Run("SendError", func(t *testing.T) {
		sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("blocked")).Once()

		assert.Error(t, n.Forward(context.Background(), notification))
		sender.AssertExpectations(t)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, n.Forward(ctx, notification), context.Canceled)
	})
}

func TestFormatNotificationUnknownType(t *testing.T) {
	text := FormatNotification(models.Notification{Title: "Hi", Message: "there", Type: "other"})
	assert.Equal(t, "ℹ️ *Hi*\nthere", text)
}
