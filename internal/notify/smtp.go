package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

const mailTimeout = 10 * time.Second

// SMTPMailer sends plain-text mail through an SMTP relay, upgrading with STARTTLS when offered.
type SMTPMailer struct {
	host string
	port int
	user string
	pass string
	from string
	// InsecureSkipVerify skips TLS certificate checks (local relays such as MailHog).
	InsecureSkipVerify bool
}

// NewSMTPMailer returns a mailer for host:port, or nil when host is empty.
func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	if host == "" {
		return nil
	}
	return &SMTPMailer{host: host, port: port, user: user, pass: pass, from: from}
}

// Send delivers the mail in the background. Failures are logged without the body.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) {
	if m == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := m.send(ctx, to, subject, body); err != nil {
			log.Printf("notify: mail %q failed: %v", subject, err)
		}
	}()
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(m.host, strconv.Itoa(m.port)))
	if err != nil {
		return err
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer func() { _ = c.Quit() }()

	if err := c.Hello("localhost"); err != nil {
		return err
	}
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host, InsecureSkipVerify: m.InsecureSkipVerify}); err != nil {
			return err
		}
	}
	if m.user != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", m.user, m.pass, m.host)); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(m.from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMessage(m.from, to, subject, body)); err != nil {
		return err
	}
	return w.Close()
}

// buildMessage renders headers and body with CRLF line endings.
func buildMessage(from, to, subject, body string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(sb.String())
}
