package domain

// Identity holds the stable attributes of an authenticated user.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

// Valid reports whether the identity carries a contact address.
func (i Identity) Valid() bool { return i.Email != "" }

// Complete reports whether the identity can author comments.
func (i Identity) Complete() bool { return i.Email != "" && i.Name != "" }

// SessionStatus enumerates the phases of a session.
type SessionStatus int

const (
	SessionPending SessionStatus = iota
	SessionSignedIn
	SessionSignedOut
)

func (s SessionStatus) String() string {
	switch s {
	case SessionSignedIn:
		return "signedIn"
	case SessionSignedOut:
		return "signedOut"
	default:
		return "pending"
	}
}

// SessionState is the session value handed down to pages and clients.
// The identity is only meaningful when Status is SessionSignedIn.
type SessionState struct {
	Status   SessionStatus
	identity Identity
}

// PendingSession is the state before the identity has been resolved.
func PendingSession() SessionState { return SessionState{Status: SessionPending} }

// SignedIn returns a state carrying id.
func SignedIn(id Identity) SessionState {
	return SessionState{Status: SessionSignedIn, identity: id}
}

// SignedOut returns the anonymous state.
func SignedOut() SessionState { return SessionState{Status: SessionSignedOut} }

// Identity returns the signed-in identity, if any.
func (s SessionState) Identity() (Identity, bool) {
	if s.Status != SessionSignedIn {
		return Identity{}, false
	}
	return s.identity, true
}
