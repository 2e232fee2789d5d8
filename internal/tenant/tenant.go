package tenant

import (
	"regexp"
	"time"
)

// Tenant represents an isolated customer organization. Every business row in
// the system references exactly one tenant; data never crosses that boundary.
type Tenant struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"` // immutable handle, globally unique
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email"`
	Active       bool      `json:"active"`
	Trial        bool      `json:"trial"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedBy    *string   `json:"created_by,omitempty"` // nulled when the creating user is deleted
}

// TenantDomain maps a host string to exactly one tenant. A host resolves to
// at most one tenant across the whole installation.
type TenantDomain struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Domain    string    `json:"domain"` // globally unique
	Primary   bool      `json:"primary"`
	CreatedAt time.Time `json:"created_at"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}[a-z0-9]$`)

// ValidSlug reports whether s is usable as a tenant slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}
