// Package family holds the caller's resolved family context.
//
// A Session is created once per caller (per request in the API, once per
// process in the TUI), filled with Set after the profile has been resolved and
// emptied with Clear on sign-out. It travels to the payment engine inside a
// context.Context.
package family

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type contextKey struct{}

// Session is the family context of one caller.
type Session struct {
	mu       sync.RWMutex
	userID   uuid.UUID
	familyID uuid.UUID
	hasFam   bool
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Set records the signed-in user and, when the user's profile belongs to a
// family, the family id. A nil familyID leaves the session without a family.
func (s *Session) Set(userID uuid.UUID, familyID *uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = userID
	s.familyID = uuid.Nil
	s.hasFam = false

	if familyID != nil && *familyID != uuid.Nil {
		s.familyID = *familyID
		s.hasFam = true
	}
}

// Clear forgets the user and family.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = uuid.Nil
	s.familyID = uuid.Nil
	s.hasFam = false
}

// UserID returns the signed-in user, or uuid.Nil.
func (s *Session) UserID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.userID
}

// FamilyID returns the family id and whether one is set.
func (s *Session) FamilyID() (uuid.UUID, bool) {
	if s == nil {
		return uuid.Nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.familyID, s.hasFam
}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// IDFromContext returns the family id of the session in ctx.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	return FromContext(ctx).FamilyID()
}
