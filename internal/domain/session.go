package domain

import "time"

// RoleSeller is the only role admitted to the dashboard.
const RoleSeller = "seller"

// IsPermittedRole reports whether role may use the dashboard. Both sign-in
// and the route guard consult this single policy.
func IsPermittedRole(role string) bool {
	return role == RoleSeller
}

// Identity is the seller profile returned by the identity backend at
// sign-in. AccessToken is the opaque bearer token for later backend calls
// and may be empty when the backend issued none.
type Identity struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	Role         string `json:"role"`
	ProfileImage string `json:"profile_image,omitempty"`
	AccessToken  string `json:"-"`
}

// Session is a decoded session token. It is never stored server-side.
type Session struct {
	Identity
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now. A session
// read exactly at its expiry instant is expired.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Decision is the route guard outcome for one request.
type Decision int

const (
	DecisionProceed Decision = iota
	DecisionRedirect
)

func (d Decision) String() string {
	switch d {
	case DecisionProceed:
		return "proceed"
	case DecisionRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// GuardState classifies the session presented with a request.
type GuardState int

const (
	// NoToken covers a missing cookie as well as an invalid, tampered or
	// expired token.
	NoToken GuardState = iota
	ValidTokenWrongRole
	ValidTokenCorrectRole
)

func (s GuardState) String() string {
	switch s {
	case NoToken:
		return "no_token"
	case ValidTokenWrongRole:
		return "wrong_role"
	case ValidTokenCorrectRole:
		return "seller"
	default:
		return "unknown"
	}
}
