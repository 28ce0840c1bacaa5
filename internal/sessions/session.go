package sessions

import "time"

// Session is a persistent refresh session. It carries a snapshot of the
// identity at sign-in time plus the upstream provider's refresh token, so a
// refresh can renew both our access token and the provider session.
type Session struct {
	RefreshToken         string    `bson:"_id" json:"refreshToken"`
	UID                  string    `bson:"uid" json:"uid"`
	Email                string    `bson:"email" json:"email"`
	EmailVerified        bool      `bson:"emailVerified" json:"emailVerified"`
	Name                 string    `bson:"name" json:"name"`
	ProviderRefreshToken string    `bson:"providerRefreshToken" json:"providerRefreshToken"`
	ExpiresAt            time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt            time.Time `bson:"createdAt" json:"createdAt"`
}
