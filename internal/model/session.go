package model

// Session is the authenticated identity held by the session store.
//
// Authenticated is true if and only if both User and Token are present.
// Use NewSession to build one so the invariant cannot be broken by hand.
type Session struct {
	User          *User  `json:"user,omitempty"`
	Token         string `json:"token,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// NewSession returns a session whose Authenticated flag is derived from its parts.
func NewSession(user *User, token string) Session {
	return Session{
		User:          user,
		Token:         token,
		Authenticated: user != nil && token != "",
	}
}

// Valid reports whether the Authenticated flag agrees with User and Token.
func (s Session) Valid() bool {
	return s.Authenticated == (s.User != nil && s.Token != "")
}

// SessionState is the session store's state machine position.
type SessionState int

const (
	StateAnonymous SessionState = iota
	StateAuthenticating
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// PersistedSession is what durable client storage holds between restarts:
// the credential and the serialized user, restored verbatim.
type PersistedSession struct {
	Token string
	User  User
}
