package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTP holds the outgoing mail server settings.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (c SMTP) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// DefaultSendTimeout bounds one delivery, dial included.
const DefaultSendTimeout = 30 * time.Second

type Mailer struct {
	cfg SMTP
	// Timeout caps Send when ctx carries no earlier deadline.
	Timeout time.Duration
}

func NewMailer(cfg SMTP) *Mailer {
	return &Mailer{cfg: cfg, Timeout: DefaultSendTimeout}
}

// Send delivers one HTML message. Port 465 uses implicit TLS, any other
// port upgrades with STARTTLS when the server offers it. The whole SMTP
// session runs under the context deadline.
func (m *Mailer) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	cfg := m.cfg
	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	raw := buildMessage(cfg.From, to, subject, html)

	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail: dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := nc.SetDeadline(deadline); err != nil {
			nc.Close()
			return fmt.Errorf("mail: set deadline: %w", err)
		}
	}
	stop := context.AfterFunc(ctx, func() { nc.Close() })
	defer stop()

	tlsCfg := &tls.Config{ServerName: cfg.Host}
	implicitTLS := cfg.Port == "465"
	conn := nc
	if implicitTLS {
		conn = tls.Client(nc, tlsCfg)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mail: greeting: %w", err)
	}
	defer client.Close()

	if !implicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsCfg); err != nil {
				return fmt.Errorf("mail: starttls: %w", err)
			}
		}
	}
	if cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
				return fmt.Errorf("mail: auth: %w", err)
			}
		}
	}
	if err := deliver(client, cfg.From, to, raw); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return client.Quit()
}

func deliver(client *smtp.Client, from, to string, raw []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	return w.Close()
}

var headerValue = strings.NewReplacer("\r", "", "\n", "")

func buildMessage(from, to, subject, html string) []byte {
	from, to, subject = headerValue.Replace(from), headerValue.Replace(to), headerValue.Replace(subject)

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}
