package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPurpose: Validates that the rendered invite mail embeds the token in the signup URL and carries the personal message.
// Scope: Unit Test
// Expected: Subject names the tenant; body contains the token-bearing URL and the message.
// Test Case ID: MAIL-01
func TestMail_NewInviteMessage(t *testing.T) {
	msg := NewInviteMessage(InviteParams{
		TenantName:    "Acme Corp",
		InviterName:   "Alice",
		Role:          "manager",
		Message:       "Welcome aboard!",
		Token:         "tok-123",
		SignupBaseURL: "https://erp.acme.test/signup",
		From:          "no-reply@tradeplane.local",
		To:            "bob@acme.test",
	})

	assert.Equal(t, []string{"bob@acme.test"}, msg.To)
	assert.Contains(t, msg.Subject, "Acme Corp")
	assert.Contains(t, msg.TextBody, "https://erp.acme.test/signup?token=tok-123")
	assert.Contains(t, msg.TextBody, "Welcome aboard!")
	assert.Contains(t, msg.TextBody, "manager")
}

// TestPurpose: Validates MIME rendering for plain and HTML bodies.
// Scope: Unit Test
// Expected: Plain message uses text/plain; HTML message uses multipart/alternative with both parts.
// Test Case ID: MAIL-02
func TestMail_BuildMIME(t *testing.T) {
	plain := buildMIME(Message{From: "a@x.test", To: []string{"b@y.test"}, Subject: "s", TextBody: "hello"})
	assert.Contains(t, string(plain), "Content-Type: text/plain")
	assert.Contains(t, string(plain), "hello")

	multi := buildMIME(Message{From: "a@x.test", To: []string{"b@y.test"}, Subject: "s", TextBody: "hello", HTMLBody: "<p>hello</p>"})
	assert.Contains(t, string(multi), "multipart/alternative")
	assert.Contains(t, string(multi), "<p>hello</p>")
}
