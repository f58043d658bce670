package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/instagrid/instagrid/models"
)

// AccountStore is the in-memory collection of connected Instagram Business
// accounts, keyed by Facebook Page ID. It lives for the process lifetime;
// a restart loses all accounts.
//
// The store is passed into handlers explicitly rather than living as a
// package global, so a persistent backend can replace it without touching
// call sites.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

// NewAccountStore creates an empty account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[string]models.Account)}
}

// Upsert inserts the account or replaces the record stored under the same
// PageID. Concurrent upserts for the same page are last-writer-wins.
func (s *AccountStore) Upsert(a models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.accounts[a.PageID]; ok && a.AddedAt.IsZero() {
		a.AddedAt = prev.AddedAt
	}
	s.accounts[a.PageID] = a
}

// Get returns the account for a Page ID.
func (s *AccountStore) Get(pageID string) (models.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[pageID]
	return a, ok
}

// GetByInstagramID returns the account linked to an Instagram Business
// account ID.
func (s *AccountStore) GetByInstagramID(instagramID string) (models.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.InstagramID == instagramID {
			return a, true
		}
	}
	return models.Account{}, false
}

// Delete removes the account for a Page ID, reporting whether it existed.
func (s *AccountStore) Delete(pageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[pageID]; !ok {
		return false
	}
	delete(s.accounts, pageID)
	return true
}

// List returns a snapshot copy of all accounts. The store is expected to
// stay small (tens of accounts), so there is no pagination.
func (s *AccountStore) List() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	return out
}

// SessionStore holds captured browser cookie sets keyed by an opaque
// session identifier, so an authenticated scrape can be refreshed without
// re-running the login flow. In-memory, process lifetime.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]models.Session)}
}

// Put stores a session and returns its new opaque identifier.
func (s *SessionStore) Put(sess models.Session) string {
	if sess.CapturedAt.IsZero() {
		sess.CapturedAt = time.Now()
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return id
}

// Get returns the session for an identifier.
func (s *SessionStore) Get(id string) (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Replace swaps the cookie set stored under an existing identifier,
// keeping the identifier stable across refreshes. Reports whether the
// identifier was known.
func (s *SessionStore) Replace(id string, sess models.Session) bool {
	if sess.CapturedAt.IsZero() {
		sess.CapturedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	s.sessions[id] = sess
	return true
}

// Delete removes a session.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
