package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendgridSender delivers mail through the SendGrid v3 API.
type SendgridSender struct {
	client sendgridClient
	from   *sgmail.Email
}

func NewSendgridSender(apiKey string, from From) (*SendgridSender, error) {
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if from.Address == "" {
		return nil, errors.New("sendgrid from address is required")
	}
	return &SendgridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(from.Name, from.Address),
	}, nil
}

func (s *SendgridSender) Send(ctx context.Context, msg Message) (SendResult, error) {
	if err := validate(msg); err != nil {
		return SendResult{}, err
	}

	to := sgmail.NewEmail(msg.ToName, msg.To)
	email := sgmail.NewV3MailInit(s.from, msg.Subject, to, sgmail.NewContent("text/html", msg.HTML))

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return SendResult{}, fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp == nil {
		return SendResult{}, errors.New("sendgrid send failed: empty response")
	}
	if resp.StatusCode >= 300 {
		return SendResult{}, fmt.Errorf("sendgrid send failed: status %d: %s", resp.StatusCode, resp.Body)
	}

	var messageID string
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	return SendResult{MessageID: messageID, SentAt: time.Now().UTC()}, nil
}
