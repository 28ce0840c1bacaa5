package identity

import "context"

// Session is the provider-issued view of a signed-in account. EmailVerified
// is a snapshot from the last provider round-trip; Lookup refreshes it.
type Session struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	DisplayName   string `json:"displayName,omitempty"`

	IDToken      string `json:"-"`
	RefreshToken string `json:"-"`
}

// Provider is the minimal capability interface over the hosted identity
// service. Credential storage, password hashing and verification-mail
// delivery all live on the provider's side of this boundary.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, s *Session) error
	SendVerificationEmail(ctx context.Context, s *Session) error
	// Refresh exchanges the refresh token for a fresh ID token.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	// Lookup re-reads account state (emailVerified, displayName) for the
	// session's ID token.
	Lookup(ctx context.Context, s *Session) (*Session, error)
}
