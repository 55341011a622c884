package auth

import (
	"github.com/gin-contrib/sessions"
)

const (
	sessionKindKey       = "auth_kind"
	sessionUserIDKey     = "auth_user_id"
	sessionUniquifierKey = "auth_uniquifier"

	kindAwaitingTwoFactor = "awaiting_two_factor"
	kindAuthenticated     = "authenticated"
)

// State is the login state of a session. It is one of Anonymous, AwaitingTwoFactor or Authenticated.
type State interface {
	isState()
}

// Anonymous is a session without an identity.
type Anonymous struct{}

// AwaitingTwoFactor is a session whose password check passed and which still owes a second factor.
type AwaitingTwoFactor struct {
	UserID     uint
	Uniquifier string
}

// Authenticated is a fully logged in session.
type Authenticated struct {
	UserID     uint
	Uniquifier string
}

func (Anonymous) isState()         {}
func (AwaitingTwoFactor) isState() {}
func (Authenticated) isState()     {}

// LoadState decodes the login state stored in the session.
// Anything unexpected decodes as Anonymous.
func LoadState(s sessions.Session) State {
	kind, _ := s.Get(sessionKindKey).(string)
	userID, _ := s.Get(sessionUserIDKey).(uint)
	uniquifier, _ := s.Get(sessionUniquifierKey).(string)
	if userID == 0 || uniquifier == "" {
		return Anonymous{}
	}

	switch kind {
	case kindAwaitingTwoFactor:
		return AwaitingTwoFactor{UserID: userID, Uniquifier: uniquifier}
	case kindAuthenticated:
		return Authenticated{UserID: userID, Uniquifier: uniquifier}
	default:
		return Anonymous{}
	}
}

// StoreState replaces the login state in the session. The caller saves the session.
func StoreState(s sessions.Session, state State) {
	s.Delete(sessionKindKey)
	s.Delete(sessionUserIDKey)
	s.Delete(sessionUniquifierKey)

	switch st := state.(type) {
	case AwaitingTwoFactor:
		s.Set(sessionKindKey, kindAwaitingTwoFactor)
		s.Set(sessionUserIDKey, st.UserID)
		s.Set(sessionUniquifierKey, st.Uniquifier)
	case Authenticated:
		s.Set(sessionKindKey, kindAuthenticated)
		s.Set(sessionUserIDKey, st.UserID)
		s.Set(sessionUniquifierKey, st.Uniquifier)
	}
}
