package mailer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// LogSender writes messages to the structured log instead of delivering them.
// It is the default transport for local development.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (SendResult, error) {
	if err := validate(msg); err != nil {
		return SendResult{}, err
	}
	result := SendResult{MessageID: "log-" + uuid.NewString(), SentAt: time.Now().UTC()}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"mail_to":         msg.To,
		"mail_subject":    msg.Subject,
		"mail_message_id": result.MessageID,
		"mail_bytes":      len(msg.HTML),
	})
	s.logg.Info(ctx, "mail.logged")
	return result, nil
}
