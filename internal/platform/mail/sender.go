// Package mail delivers plain-text messages over SMTP.
package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// TLS is one of "none", "opportunistic" or "mandatory".
	TLS     string
	Timeout time.Duration
}

// SendError wraps every failure to build or deliver a message.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return "mail send failed: " + e.Err.Error()
}

func (e *SendError) Unwrap() error {
	return e.Err
}

type Sender struct {
	cfg       Config
	tlsPolicy gomail.TLSPolicy
}

func NewSender(cfg Config) (*Sender, error) {
	policy, err := parseTLSPolicy(cfg.TLS)
	if err != nil {
		return nil, err
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("mail: host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Sender{cfg: cfg, tlsPolicy: policy}, nil
}

func parseTLSPolicy(s string) (gomail.TLSPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "opportunistic":
		return gomail.TLSOpportunistic, nil
	case "none":
		return gomail.NoTLS, nil
	case "mandatory":
		return gomail.TLSMandatory, nil
	default:
		return gomail.NoTLS, fmt.Errorf("mail: unknown tls policy %q", s)
	}
}

func (s *Sender) buildMessage(to []string, subject, body string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if s.cfg.From != "" {
		if err := msg.From(s.cfg.From); err != nil {
			return nil, fmt.Errorf("set from: %w", err)
		}
	}
	if len(to) == 0 {
		return nil, fmt.Errorf("no recipients")
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	return msg, nil
}

func (s *Sender) options() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(s.tlsPolicy),
		gomail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

// Send delivers one plain-text message to all recipients.
func (s *Sender) Send(ctx context.Context, to []string, subject, body string) error {
	msg, err := s.buildMessage(to, subject, body)
	if err != nil {
		return &SendError{Err: err}
	}
	client, err := gomail.NewClient(s.cfg.Host, s.options()...)
	if err != nil {
		return &SendError{Err: err}
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &SendError{Err: err}
	}
	return nil
}
