package provisioning

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// DefaultInvitationTTL is the validity window for a freshly issued
// invitation.
const DefaultInvitationTTL = 48 * time.Hour

// Invitation is a single-use, time-boxed credential authorizing exactly one
// tenant creation. The token is opaque and compared by exact match only.
type Invitation struct {
	ID         uuid.UUID  `json:"id"`
	Token      string     `json:"token"`
	Email      string     `json:"email"`
	Label      string     `json:"label"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Consumed   bool       `json:"consumed"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	TenantID   *int64     `json:"tenant_id,omitempty"`
}

// ValidAt reports whether the invitation authorizes provisioning at the
// given time: it must be unconsumed and unexpired. An expired invitation
// never validates again; it is not deleted.
func (i *Invitation) ValidAt(now time.Time) bool {
	return !i.Consumed && !now.After(i.ExpiresAt)
}

// NewInvitation creates an invitation with a fresh high-entropy token.
func NewInvitation(email, label string, ttl time.Duration) (*Invitation, error) {
	if ttl <= 0 {
		ttl = DefaultInvitationTTL
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Invitation{
		ID:        uuid.New(),
		Token:     token,
		Email:     email,
		Label:     label,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// newToken returns 32 bytes of CSPRNG output, base64url encoded.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
