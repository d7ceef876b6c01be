package mailer

import (
	"context"
	"testing"

	"facility-booking/config"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessageStripsHeaderInjection(t *testing.T) {
	msg := string(buildMessage("noreply@campus.ac.id", "a@campus.ac.id", "Approved\r\nBcc: evil@x.io", "<p>ok</p>"))

	assert.Contains(t, msg, "Subject: Approved  Bcc: evil@x.io\r\n")
	assert.NotContains(t, msg, "\r\nBcc:")
	assert.Contains(t, msg, "Content-Type: text/html")
	assert.True(t, len(msg) > 0 && msg[len(msg)-len("<p>ok</p>"):] == "<p>ok</p>")
}

func TestNewFallsBackToLogMailer(t *testing.T) {
	m := New(config.SMTPConfig{})
	_, ok := m.(LogMailer)
	assert.True(t, ok)
	assert.NoError(t, m.Send(context.Background(), "a@campus.ac.id", "hi", "<p>hi</p>"))
}

func TestSMTPMailerRejectsEmptyRecipient(t *testing.T) {
	m := New(config.SMTPConfig{Host: "localhost", Port: 2525})
	assert.Error(t, m.Send(context.Background(), "", "hi", "body"))
}
