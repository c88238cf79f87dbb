package email

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SelectsBackend(t *testing.T) {
	log := zerolog.Nop()

	m, err := New(Config{Backend: "console"}, log)
	require.NoError(t, err)
	assert.IsType(t, &ConsoleMailer{}, m)

	m, err = New(Config{Backend: "SMTP", FromEmail: "a@b.test", SMTP: SMTPConfig{Host: "localhost", Port: 25}}, log)
	require.NoError(t, err)
	require.IsType(t, &SMTPMailer{}, m)
	assert.Equal(t, "a@b.test", m.(*SMTPMailer).config.FromEmail)

	m, err = New(Config{Backend: "sendgrid", SendgridAPIKey: "k"}, log)
	require.NoError(t, err)
	assert.IsType(t, &SendgridMailer{}, m)

	_, err = New(Config{Backend: "pigeon"}, log)
	assert.Error(t, err)
}

func TestSMTPMailer_Compose(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{FromName: "Gradebook", FromEmail: "noreply@uni.test"}, zerolog.Nop())
	raw := string(m.compose(Message{To: "sam@uni.test", ToName: "Sam Lee", Subject: "Hi", Text: "line1\nline2"}))

	assert.True(t, strings.HasPrefix(raw, "From: Gradebook <noreply@uni.test>\r\n"))
	assert.Contains(t, raw, "To: Sam Lee <sam@uni.test>\r\n")
	assert.Contains(t, raw, "Subject: Hi\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nline1\r\nline2"))
}

func TestSendgridMailer_Prepare(t *testing.T) {
	m := NewSendgridMailer("key", "Gradebook", "noreply@uni.test", zerolog.Nop())
	v3 := m.prepare(Message{To: "sam@uni.test", Subject: "Grade Updated Notification", Text: "body"})

	require.Len(t, v3.Personalizations, 1)
	assert.Equal(t, "Grade Updated Notification", v3.Personalizations[0].Subject)
	assert.Equal(t, "sam@uni.test", v3.Personalizations[0].To[0].Address)
	assert.Equal(t, "noreply@uni.test", v3.From.Address)
	require.Len(t, v3.Content, 1)
	assert.Equal(t, "text/plain", v3.Content[0].Type)
}

func TestConsoleMailer_Send(t *testing.T) {
	var buf strings.Builder
	m := NewConsoleMailer(zerolog.New(&buf))
	require.NoError(t, m.Send(context.Background(), Message{To: "sam@uni.test", Subject: "s", Text: "t"}))
	assert.Contains(t, buf.String(), "sam@uni.test")
}
