package services

import (
	"sync"

	"github.com/google/uuid"
)

// Session models one browser session: the visitor identity, the
// once-per-session visitor-count guard and the admin flag behind the
// single-credential gate. The collections only ever see it through the
// AdminFunc predicate.
type Session struct {
	adminEmail    string
	adminPassword string

	mu        sync.Mutex
	admin     bool
	counted   bool
	visitorID string
}

// NewSession creates an anonymous session with a fresh visitor id.
func NewSession(adminEmail, adminPassword string) *Session {
	return &Session{
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		visitorID:     "visitor_" + uuid.NewString(),
	}
}

// Login checks the configured credential. There is no real account system
// behind this gate.
func (s *Session) Login(email, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if email == s.adminEmail && password == s.adminPassword {
		s.admin = true
	}
	return s.admin
}

// Logout drops the admin capability.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = false
}

// IsAdmin is the predicate collections consult before destructive
// operations.
func (s *Session) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admin
}

// VisitorID returns the session's visitor identity.
func (s *Session) VisitorID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visitorID
}

// MarkCounted flips the visitor-counted flag, returning true only the
// first time. Guards the visitor counter against per-page-view inflation.
func (s *Session) MarkCounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counted {
		return false
	}
	s.counted = true
	return true
}
