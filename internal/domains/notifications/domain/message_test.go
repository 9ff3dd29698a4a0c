package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFoldsLineBreaksInHeaders(t *testing.T) {
	msg := Message{
		To:      []string{" a@b.com\r\n", "a@b.com", ""},
		Phone:   "+100\n",
		Subject: "Hi\r\nBcc: victim@evil.com",
	}.Normalize()

	assert.Equal(t, []string{"a@b.com"}, msg.To)
	assert.Equal(t, "+100", msg.Phone)
	assert.Equal(t, "Hi Bcc: victim@evil.com", msg.Subject)
}

func TestRenderDefaults(t *testing.T) {
	subject, body := Message{Subject: " \r\n ", Body: "  "}.Render()
	assert.Equal(t, DefaultSubject, subject)
	assert.Equal(t, EmptyBody, body)

	subject, _ = Message{Subject: "Order #1\nshipped"}.Render()
	assert.Equal(t, "Order #1 shipped", subject)
}
