package mail

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/lumastore/auth/internal/auth/domain"
)

// SMTPMailer sends OTP emails over plain SMTP with opportunistic STARTTLS.
// Works against local catchers (MailHog) and real servers alike.
type SMTPMailer struct {
	Host string
	Port int
	User string
	Pass string
	From string

	// OTPTTLMinutes is shown in the email body.
	OTPTTLMinutes int
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string, purpose domain.CodePurpose) error {
	var sb strings.Builder
	sb.WriteString("From: " + m.From + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subjectFor(purpose) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(bodyFor(code, purpose, m.OTPTTLMinutes))

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(m.Host, strconv.Itoa(m.Port)))
	if err != nil {
		return err
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		return err
	}
	defer func() { _ = c.Quit() }()

	if err := c.Hello("localhost"); err != nil {
		return err
	}

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.Host}); err != nil {
			return err
		}
		if err := c.Hello("localhost"); err != nil {
			return err
		}
	}

	if m.User != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", m.User, m.Pass, m.Host)); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(m.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(sb.String())); err != nil {
		return err
	}
	return w.Close()
}
