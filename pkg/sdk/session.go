package sdk

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// EventKind identifies what changed in a Session.
type EventKind int

const (
	// EventTokenChanged fires after SetToken.
	EventTokenChanged EventKind = iota + 1
	// EventUserChanged fires after SetUser.
	EventUserChanged
	// EventCleared fires after ClearToken.
	EventCleared
)

func (k EventKind) String() string {
	switch k {
	case EventTokenChanged:
		return "token_changed"
	case EventUserChanged:
		return "user_changed"
	case EventCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// SessionEvent is delivered to subscribers after the session has been mutated.
type SessionEvent struct {
	Kind          EventKind
	Authenticated bool
}

// Session holds the access token and the cached user profile. It is the
// single shared resource of the client: the HTTP wrapper reads the token on
// every dispatch, and only login, refresh and logout write it.
//
// A Session is safe for concurrent use. Subscribers run synchronously on the
// mutating goroutine after the session lock has been released.
type Session struct {
	// writeMu serializes writers across the memory update and the storage
	// call so both always reflect the same last write.
	writeMu    sync.Mutex
	mu         sync.RWMutex
	token      string
	user       *User
	adminGroup string

	storage Storage
	logger  *slog.Logger

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(SessionEvent)
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the logger used for persistence failures.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithAdminGroup overrides the group that grants admin capabilities.
func WithAdminGroup(group string) SessionOption {
	return func(s *Session) {
		s.adminGroup = group
	}
}

// NewSession creates a session backed by storage and hydrates it from the
// persisted token and profile. A nil storage keeps state in memory only.
func NewSession(storage Storage, opts ...SessionOption) *Session {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s := &Session{
		storage:    storage,
		adminGroup: AdminGroup,
		logger:     slog.Default(),
		subs:       make(map[int]func(SessionEvent)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hydrate()
	return s
}

func (s *Session) hydrate() {
	token, ok, err := s.storage.Get(TokenKey)
	if err != nil {
		s.logger.Warn("failed to read persisted access token", "err", err)
		return
	}
	if ok {
		s.token = token
	}

	raw, ok, err := s.storage.Get(UserKey)
	if err != nil {
		s.logger.Warn("failed to read persisted user profile", "err", err)
		return
	}
	if !ok || raw == "" {
		return
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.logger.Warn("discarding corrupt persisted user profile", "err", err)
		return
	}
	s.user = &u
}

// Token returns the current access token, or "" when unauthenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the cached profile, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.clone()
}

// IsAuthenticated reports whether an access token is present.
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// IsAdmin reports whether the cached profile belongs to the admin group.
func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.InGroup(s.adminGroup)
}

// ExpiresAt returns the expiry encoded in the access token, or the zero time
// when there is no token or it carries no readable exp claim.
func (s *Session) ExpiresAt() time.Time {
	token := s.Token()
	if token == "" {
		return time.Time{}
	}
	claims, err := ParseAccessToken(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// SetToken stores token in memory and in persistent storage. The token shape
// is not validated. Storage failures are logged; the in-memory session stays
// authoritative.
func (s *Session) SetToken(token string) {
	s.writeMu.Lock()
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err := s.storage.Set(TokenKey, token); err != nil {
		s.logger.Warn("failed to persist access token", "err", err)
	}
	s.writeMu.Unlock()
	s.publish(EventTokenChanged)
}

// SetUser replaces the cached profile. A nil user clears it.
func (s *Session) SetUser(u *User) {
	s.writeMu.Lock()
	s.mu.Lock()
	s.user = u.clone()
	s.mu.Unlock()

	if u == nil {
		if err := s.storage.Remove(UserKey); err != nil {
			s.logger.Warn("failed to remove persisted user profile", "err", err)
		}
	} else if data, err := json.Marshal(u); err != nil {
		s.logger.Warn("failed to encode user profile", "err", err)
	} else if err := s.storage.Set(UserKey, string(data)); err != nil {
		s.logger.Warn("failed to persist user profile", "err", err)
	}
	s.writeMu.Unlock()
	s.publish(EventUserChanged)
}

// ClearToken removes the token and the profile from memory and storage.
func (s *Session) ClearToken() {
	s.writeMu.Lock()
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.storage.Remove(TokenKey, UserKey); err != nil {
		s.logger.Warn("failed to remove persisted session", "err", err)
	}
	s.writeMu.Unlock()
	s.publish(EventCleared)
}

// Subscribe registers fn for session change notifications and returns a
// function that removes the subscription.
func (s *Session) Subscribe(fn func(SessionEvent)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Session) publish(kind EventKind) {
	ev := SessionEvent{Kind: kind, Authenticated: s.IsAuthenticated()}

	s.subMu.Lock()
	fns := make([]func(SessionEvent), 0, len(s.subs))
	// Deliver in subscription order.
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// TokenSource exposes the session as an oauth2.TokenSource so it can back a
// plain oauth2.NewClient when the refresh wrapper is not wanted.
func (s *Session) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{s}
}

type sessionTokenSource struct {
	s *Session
}

func (ts sessionTokenSource) Token() (*oauth2.Token, error) {
	token := ts.s.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	return bearer(token), nil
}

func bearer(token string) *oauth2.Token {
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
}
