// Package mailer отправляет письма через SMTP с помощью gomail.
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Sender отправляет готовое сообщение.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer формирует и отправляет текстовые письма.
type Mailer struct {
	from   string
	sender Sender
}

// New создаёт Mailer поверх SMTP-диалера gomail.
func New(host string, port int, username, password, from string) *Mailer {
	if from == "" {
		from = username
	}
	return &Mailer{
		from:   from,
		sender: gomail.NewDialer(host, port, username, password),
	}
}

// NewWithSender создаёт Mailer с произвольным отправителем.
func NewWithSender(from string, sender Sender) *Mailer {
	return &Mailer{from: from, sender: sender}
}

// Send отправляет письмо с текстовым телом.
func (m *Mailer) Send(to, subject, body string) error {
	const op = "mailer.Send"
	if to == "" {
		return fmt.Errorf("%s: empty recipient", op)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
