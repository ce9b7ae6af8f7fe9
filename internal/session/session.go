package session

import (
	"sync"

	"chemviz/internal/api"
)

// ErrorKind is the session-level error taxonomy shown to the user.
type ErrorKind int

const (
	ErrNone ErrorKind = iota
	ErrInvalidCredentials
	ErrServerUnavailable
	ErrUnreachable
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidCredentials:
		return "invalid credentials"
	case ErrServerUnavailable:
		return "server unavailable"
	case ErrUnreachable:
		return "unreachable"
	}
	return "none"
}

// Session is the single owned record of the authenticated state. All
// mutations go through its methods; an operation either fully replaces the
// state or only changes the last error. The epoch increments on every
// logout so a result from a probe issued under an old epoch can be
// recognized and discarded.
type Session struct {
	mu      sync.Mutex
	cred    *api.Credential
	isAdmin bool
	lastErr ErrorKind
	epoch   uint64
}

func New() *Session {
	return &Session{}
}

// Epoch returns the current identity generation. Capture it before a
// network call; pass it back to authenticate so stale results are dropped.
func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// authenticate installs a credential if the epoch has not moved since the
// probe was issued. Returns false when the result is stale.
func (s *Session) authenticate(epoch uint64, cred api.Credential, isAdmin bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	c := cred
	s.cred = &c
	s.isAdmin = isAdmin
	s.lastErr = ErrNone
	return true
}

// fail records a login failure. The session stays (or becomes) anonymous.
func (s *Session) fail(epoch uint64, kind ErrorKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	s.cred = nil
	s.isAdmin = false
	s.lastErr = kind
	return true
}

// clear resets everything and bumps the epoch. Idempotent.
func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	s.isAdmin = false
	s.lastErr = ErrNone
	s.epoch++
}

// Credential returns a copy of the active credential, if any.
func (s *Session) Credential() (api.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return api.Credential{}, false
	}
	return *s.cred, true
}

func (s *Session) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAdmin
}

func (s *Session) LastError() ErrorKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) Authenticated() bool {
	_, ok := s.Credential()
	return ok
}
