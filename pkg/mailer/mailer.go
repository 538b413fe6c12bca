// Package mailer delivers rendered HTML emails through the configured transport.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Message is a single rendered HTML email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// SendResult identifies an accepted message.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender hands a message to a mail transport.
type Sender interface {
	Send(ctx context.Context, msg Message) (SendResult, error)
}

// From describes who outgoing mail is from.
type From struct {
	Address string
	Name    string
}

var errRecipientRequired = errors.New("mail recipient is required")

// New builds the transport selected by cfg.Transport.
func New(cfg config.MailConfig, logg *logger.Logger) (Sender, error) {
	from := From{Address: cfg.FromAddress, Name: cfg.FromName}
	switch strings.ToLower(strings.TrimSpace(cfg.Transport)) {
	case config.MailTransportSMTP:
		return NewSMTPSender(SMTPOptions{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     from,
		})
	case config.MailTransportSendgrid:
		return NewSendgridSender(cfg.SendgridAPIKey, from)
	case config.MailTransportLog, "":
		return NewLogSender(logg), nil
	default:
		return nil, fmt.Errorf("unsupported mail transport %q", cfg.Transport)
	}
}

func validate(msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errRecipientRequired
	}
	return nil
}
