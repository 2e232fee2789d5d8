package mail

import (
	"fmt"
	"net/url"
	"strings"
)

// InviteParams are the fields rendered into an invitation e-mail.
type InviteParams struct {
	TenantName    string
	InviterName   string
	Role          string
	Message       string
	Token         string
	SignupBaseURL string
	From          string
	To            string
}

// NewInviteMessage renders the invitation e-mail. The signup URL embeds the
// token as a query parameter.
func NewInviteMessage(p InviteParams) Message {
	signupURL := p.SignupBaseURL
	if u, err := url.Parse(p.SignupBaseURL); err == nil {
		q := u.Query()
		q.Set("token", p.Token)
		u.RawQuery = q.Encode()
		signupURL = u.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s has invited you to join %s on Tradeplane as %s.\n\n", p.InviterName, p.TenantName, p.Role)
	if p.Message != "" {
		fmt.Fprintf(&b, "Personal message:\n%s\n\n", p.Message)
	}
	fmt.Fprintf(&b, "Accept the invitation:\n%s\n\n", signupURL)
	b.WriteString("If you were not expecting this invitation you can ignore this e-mail.\n")

	return Message{
		From:     p.From,
		To:       []string{p.To},
		Subject:  fmt.Sprintf("Invitation to join %s", p.TenantName),
		TextBody: b.String(),
	}
}
