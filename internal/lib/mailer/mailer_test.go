package mailer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureSender struct {
	sent []*gomail.Message
	err  error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, m...)
	return nil
}

func TestMailer_Send(t *testing.T) {
	sender := &captureSender{}
	m := NewWithSender("noreply@example.com", sender)

	err := m.Send("player@example.com", "Welcome", "hello")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"noreply@example.com"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"player@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Welcome"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "hello")
}

func TestMailer_SendErrors(t *testing.T) {
	m := NewWithSender("noreply@example.com", &captureSender{err: errors.New("smtp down")})

	err := m.Send("player@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")

	err = m.Send("", "s", "b")
	assert.Error(t, err)
}
