package models

import "time"

// Authorization is the opaque capability object that accompanies a run
// request for blockchain-class blocks (wallet, transaction). The engine
// passes it through to the handler without inspection; spending limits,
// signature checks, and expiry are enforced by the external policy
// collaborator and by the handler itself.
type Authorization struct {
	SessionKey string            `json:"session_key" validate:"required"`
	Delegator  string            `json:"delegator,omitempty"`
	ChainID    string            `json:"chain_id,omitempty"`
	ExpiresAt  time.Time         `json:"expires_at,omitempty"`
	Limits     map[string]string `json:"limits,omitempty"` // asset -> max spend, decimal string
}

// Expired reports whether the session key is past its expiry at the given time.
func (a *Authorization) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && now.After(a.ExpiresAt)
}
