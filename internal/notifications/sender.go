package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/pins-charity/orderforms-backend/pkg/config"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
)

// Sender delivers a composed message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender picks the sender configured by the mail driver.
func NewSender(cfg config.MailConfig, logg *logger.Logger) (Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case config.MailDriverSMTP:
		sender, err := NewSMTPSender(cfg)
		if err != nil {
			return nil, err
		}
		return sender, nil
	case config.MailDriverLog, "":
		return NewLogSender(logg), nil
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.Driver)
	}
}

// SMTPSender sends plain text mail through an SMTP relay.
type SMTPSender struct {
	from    string
	now     func() time.Time
	deliver func(ctx context.Context, msgs ...*mail.Msg) error
}

func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client for %s: %w", cfg.SMTPHost, err)
	}
	return &SMTPSender{
		from:    cfg.FromAddress,
		now:     time.Now,
		deliver: client.DialAndSendWithContext,
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message %q has no recipients", msg.Subject)
	}
	m, err := s.build(msg)
	if err != nil {
		return err
	}
	if err := s.deliver(ctx, m); err != nil {
		return fmt.Errorf("smtp send %q: %w", msg.Subject, err)
	}
	return nil
}

// build only uses the first Reply-To address; composed messages carry at
// most one.
func (s *SMTPSender) build(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("from address %q: %w", s.from, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("to addresses %v: %w", msg.To, err)
	}
	if len(msg.ReplyTo) > 0 {
		if err := m.ReplyTo(msg.ReplyTo[0]); err != nil {
			return nil, fmt.Errorf("reply-to address %q: %w", msg.ReplyTo[0], err)
		}
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(s.now())
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"to":       msg.To,
		"reply_to": msg.ReplyTo,
		"subject":  msg.Subject,
		"body":     msg.Body,
	})
	s.logg.Info(ctx, "mail.logged")
	return nil
}
