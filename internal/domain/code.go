package domain

import "time"

// OneTimeCode belongs to exactly one identity. Only the argon2id hash of the
// code is stored. At most one unconsumed, unexpired, unsuperseded code exists
// per identity: issuing a new one supersedes the old (last-issued-wins).
// Consumed and expired are terminal; expiry is detected lazily at
// verification time.
type OneTimeCode struct {
	ID           int64      `json:"id"`
	IdentityID   int64      `json:"identity_id"`
	CodeHash     string     `json:"-"`
	IssuedAt     time.Time  `json:"issued_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	ConsumedAt   *time.Time `json:"consumed_at,omitempty"`
	SupersededAt *time.Time `json:"superseded_at,omitempty"`
}

func (c *OneTimeCode) IsConsumed() bool {
	return c.ConsumedAt != nil
}

func (c *OneTimeCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Session is the explicit value a successful verification returns. The caller
// presents the token on every protected operation; the core holds no ambient
// session state.
type Session struct {
	Token     string    `json:"session_token"`
	ExpiresIn int64     `json:"expires_in"`
	Identity  *Identity `json:"identity"`
}
