package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/domodwyer/mailyak/v3"

	"github.com/noah-isme/webquote/internal/common"
	"github.com/noah-isme/webquote/internal/resilience"
)

// SMTPSender delivers email through an SMTP relay. Each send runs through the
// breaker; recipient rejections (5xx replies) are reported as permanent so they
// neither trip the breaker nor get retried.
type SMTPSender struct {
	Addr     string
	Auth     smtp.Auth
	From     string
	FromName string
	Bcc      []string
	Breaker  *resilience.Breaker
}

// NewSMTPSender builds a sender with PLAIN auth when a username is provided.
func NewSMTPSender(host string, port int, username, password, from string, breaker *resilience.Breaker) *SMTPSender {
	var auth smtp.Auth
	if strings.TrimSpace(username) != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Auth:     auth,
		From:     from,
		FromName: "Webquote",
		Breaker:  breaker,
	}
}

// Send implements common.EmailSender.
func (s *SMTPSender) Send(ctx context.Context, msg common.Email) error {
	mail, err := s.message(msg)
	if err != nil {
		return resilience.Permanent(err)
	}
	send := func(context.Context) error {
		if err := mail.Send(); err != nil {
			var reply *textproto.Error
			if errors.As(err, &reply) && reply.Code >= 500 {
				return resilience.Permanent(fmt.Errorf("smtp rejected: %w", err))
			}
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if s.Breaker == nil {
		return send(ctx)
	}
	return s.Breaker.Do(ctx, send)
}

func (s *SMTPSender) message(msg common.Email) (*mailyak.MailYak, error) {
	if strings.TrimSpace(msg.To) == "" {
		return nil, errors.New("smtp: recipient is required")
	}
	mail := mailyak.New(s.Addr, s.Auth)
	mail.To(msg.To)
	if len(s.Bcc) > 0 {
		mail.Bcc(s.Bcc...)
	}
	mail.From(s.From)
	if s.FromName != "" {
		mail.FromName(s.FromName)
	}
	mail.Subject(msg.Subject)
	if msg.HTML != "" {
		mail.HTML().Set(msg.HTML)
	}
	if msg.Text != "" {
		mail.Plain().Set(msg.Text)
	}
	for _, a := range msg.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		mail.AttachWithMimeType(a.Filename, bytes.NewReader(a.Data), ct)
	}
	return mail, nil
}
