package mailer

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     From
}

type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender relays mail through an authenticated SMTP server.
type SMTPSender struct {
	addr     string
	auth     smtp.Auth
	from     mail.Address
	sendMail sendMailFunc
}

func NewSMTPSender(opts SMTPOptions) (*SMTPSender, error) {
	if opts.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if opts.From.Address == "" {
		return nil, errors.New("smtp from address is required")
	}
	port := opts.Port
	if port == 0 {
		port = 587
	}

	var auth smtp.Auth
	if opts.Username != "" {
		auth = smtp.PlainAuth("", opts.Username, opts.Password, opts.Host)
	}

	return &SMTPSender{
		addr:     net.JoinHostPort(opts.Host, strconv.Itoa(port)),
		auth:     auth,
		from:     mail.Address{Name: opts.From.Name, Address: opts.From.Address},
		sendMail: smtp.SendMail,
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (SendResult, error) {
	if err := validate(msg); err != nil {
		return SendResult{}, err
	}
	// net/smtp has no context support; honour cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(s.from.Address))
	to := mail.Address{Name: msg.ToName, Address: msg.To}
	body := buildMIME(s.from, to, msg.Subject, messageID, msg.HTML)

	if err := s.sendMail(s.addr, s.auth, s.from.Address, []string{msg.To}, body); err != nil {
		return SendResult{}, fmt.Errorf("smtp send failed: %w", err)
	}
	return SendResult{MessageID: messageID, SentAt: time.Now().UTC()}, nil
}

func buildMIME(from, to mail.Address, subject, messageID, html string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from.String() + "\r\n")
	b.WriteString("To: " + to.String() + "\r\n")
	b.WriteString("Subject: " + mimeSubject(subject) + "\r\n")
	b.WriteString("Message-ID: " + messageID + "\r\n")
	b.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}

func mimeSubject(subject string) string {
	subject = strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)
	return mime.QEncoding.Encode("utf-8", subject)
}

func domainOf(address string) string {
	if at := strings.LastIndex(address, "@"); at >= 0 && at < len(address)-1 {
		return address[at+1:]
	}
	return "localhost"
}
