package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"storefront/pkg/config"
	"storefront/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(New)

var ErrDisabled = errors.New("email sending is not configured")

type (
	Params struct {
		fx.In
		Config config.IConfig
		Logger logger.Logger
	}

	// Sender delivers plain text mail over SMTP with implicit TLS.
	Sender interface {
		Enabled() bool
		Send(ctx context.Context, m Mail) error
	}

	// Mail is one message; To can hold several recipients.
	Mail struct {
		To      []string
		Subject string
		Body    string
	}

	SMTPServer struct {
		Host string
		Port string
	}

	sender struct {
		server   SMTPServer
		login    string
		password string
		timeout  time.Duration
		logger   logger.Logger
		dial     func(ctx context.Context, addr string) (net.Conn, error)
	}
)

func New(p Params) Sender {
	server := SMTPServer{
		Host: p.Config.GetString("email.host"),
		Port: p.Config.GetString("email.port"),
	}
	s := NewSender(server, p.Config.GetString("email.login"), p.Config.GetString("email.password"), p.Logger)
	if timeout := p.Config.GetDuration("email.timeout"); timeout > 0 {
		s.(*sender).timeout = timeout
	}
	if !s.Enabled() {
		p.Logger.Info(context.Background(), "customer receipts disabled, smtp host is not set")
	}
	return s
}

func NewSender(server SMTPServer, login, password string, log logger.Logger) Sender {
	return &sender{
		server:   server,
		login:    login,
		password: password,
		timeout:  15 * time.Second,
		logger:   log,
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			d := &tls.Dialer{Config: &tls.Config{ServerName: server.Host}}
			return d.DialContext(ctx, "tcp", addr)
		},
	}
}

// ServerName returns concatenated host and port
func (s SMTPServer) ServerName() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// BuildMessage renders the headers and body of m as sent after DATA.
func BuildMessage(from string, m Mail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	if len(m.To) > 0 {
		fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.To, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n" + m.Body)
	return b.String()
}

func (s *sender) Enabled() bool {
	return s.server.Host != "" && s.login != ""
}

func (s *sender) Send(ctx context.Context, m Mail) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	if len(m.To) == 0 {
		return errors.New("email has no recipients")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.dial(ctx, s.server.ServerName())
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.server.ServerName(), err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.server.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp.NewClient: %w", err)
	}
	defer client.Close()

	if s.password != "" {
		if err = client.Auth(smtp.PlainAuth("", s.login, s.password, s.server.Host)); err != nil {
			return fmt.Errorf("client.Auth: %w", err)
		}
	}

	if err = client.Mail(s.login); err != nil {
		return fmt.Errorf("client.Mail: %w", err)
	}
	for _, rcpt := range m.To {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("client.Rcpt %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("client.Data: %w", err)
	}
	if _, err = w.Write([]byte(BuildMessage(s.login, m))); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("w.Close: %w", err)
	}

	if err = client.Quit(); err != nil {
		return fmt.Errorf("client.Quit: %w", err)
	}

	s.logger.Debug(ctx, "mail sent", zap.Strings("to", m.To))
	return nil
}
