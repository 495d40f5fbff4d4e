// Package mailer composes and sends confirmation email. The Transport
// interface is the seam tests use to script failures without an SMTP
// server.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"listkeeper/internal/apperr"
)

// Transport delivers a single message. Implementations classify their
// failures: apperr.ErrTransient for conditions worth retrying (timeouts,
// connection loss), apperr.ErrPermanent for everything that retrying
// cannot fix (rejected recipient, bad credentials).
type Transport interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPTransport sends mail over a plain SMTP relay.
type SMTPTransport struct {
	addr     string
	from     string
	username string
	password string
}

func NewSMTPTransport(addr, from, username, password string) *SMTPTransport {
	return &SMTPTransport{
		addr:     addr,
		from:     from,
		username: username,
		password: password,
	}
}

func (t *SMTPTransport) Send(ctx context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + t.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if t.username != "" {
		host, _, err := net.SplitHostPort(t.addr)
		if err != nil {
			return apperr.Permanent(fmt.Errorf("bad smtp addr %q: %w", t.addr, err))
		}
		auth = smtp.PlainAuth("", t.username, t.password, host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(t.addr, auth, t.from, []string{to}, []byte(msg))
	}()

	select {
	case <-ctx.Done():
		return apperr.Transient(ctx.Err())
	case err := <-done:
		if err != nil {
			return classify(err)
		}
		return nil
	}
}

func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperr.Transient(err)
	}
	errStr := err.Error()
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "timeout") {
		return apperr.Transient(err)
	}
	// 4xx SMTP replies are "try again later" by definition.
	if len(errStr) > 0 && errStr[0] == '4' {
		return apperr.Transient(err)
	}
	return apperr.Permanent(err)
}
