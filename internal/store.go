package internal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StoreEventType names what changed in the session store
type StoreEventType string

const (
	EventCurrentChanged  StoreEventType = "current_changed"
	EventCurrentCleared  StoreEventType = "current_cleared"
	EventHistoryReplaced StoreEventType = "history_replaced"
	EventLanguageChanged StoreEventType = "language_changed"
	EventSessionReset    StoreEventType = "session_reset"
)

// StoreEvent is delivered to subscribers after a change is visible
type StoreEvent struct {
	Type      StoreEventType
	Timestamp int64
	Token     string
}

// SessionStore holds the current analysis, the history snapshot and the
// language preference for one session. It performs no validation.
type SessionStore struct {
	mu       sync.RWMutex
	current  *Analysis
	history  []Analysis
	language Language
	token    string

	subsMu sync.RWMutex
	subs   map[chan StoreEvent]struct{}
}

// NewSessionStore creates a store with default values
func NewSessionStore() *SessionStore {
	return &SessionStore{
		history:  []Analysis{},
		language: DefaultLanguage,
		token:    uuid.NewString(),
		subs:     make(map[chan StoreEvent]struct{}),
	}
}

// SetCurrentAnalysis replaces the current analysis
func (s *SessionStore) SetCurrentAnalysis(a Analysis) {
	s.mu.Lock()
	c := a.Clone()
	s.current = &c
	token := s.token
	s.mu.Unlock()
	s.publish(EventCurrentChanged, token)
}

// CurrentAnalysis returns a copy of the current analysis
func (s *SessionStore) CurrentAnalysis() (*Analysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	c := s.current.Clone()
	return &c, true
}

// ClearCurrent drops the current analysis
func (s *SessionStore) ClearCurrent() {
	s.mu.Lock()
	s.current = nil
	token := s.token
	s.mu.Unlock()
	s.publish(EventCurrentCleared, token)
}

// SetHistory replaces the whole history sequence. nil is stored as empty.
func (s *SessionStore) SetHistory(list []Analysis) {
	s.mu.Lock()
	s.history = cloneAnalyses(list)
	token := s.token
	s.mu.Unlock()
	s.publish(EventHistoryReplaced, token)
}

// History returns a copy of the history sequence, never nil
func (s *SessionStore) History() []Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAnalyses(s.history)
}

// SetLanguage replaces the language preference
func (s *SessionStore) SetLanguage(l Language) {
	s.mu.Lock()
	s.language = l
	token := s.token
	s.mu.Unlock()
	s.publish(EventLanguageChanged, token)
}

// Language returns the language preference
func (s *SessionStore) Language() Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// Token returns the current session token
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Reset clears the current analysis and rotates the session token so
// responses initiated before the reset are discarded on commit
func (s *SessionStore) Reset() string {
	s.mu.Lock()
	s.current = nil
	s.token = uuid.NewString()
	token := s.token
	s.mu.Unlock()
	s.publish(EventSessionReset, token)
	return token
}

// CommitCurrent sets the current analysis only if token is still current
func (s *SessionStore) CommitCurrent(token string, a Analysis) bool {
	s.mu.Lock()
	if token != s.token {
		s.mu.Unlock()
		return false
	}
	c := a.Clone()
	s.current = &c
	s.mu.Unlock()
	s.publish(EventCurrentChanged, token)
	return true
}

// CommitHistory replaces history only if token is still current
func (s *SessionStore) CommitHistory(token string, list []Analysis) bool {
	s.mu.Lock()
	if token != s.token {
		s.mu.Unlock()
		return false
	}
	s.history = cloneAnalyses(list)
	s.mu.Unlock()
	s.publish(EventHistoryReplaced, token)
	return true
}

// FindHistoryEntry returns a copy of the history entry with the given id
func (s *SessionStore) FindHistoryEntry(id string) (*Analysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.history {
		if s.history[i].ID == id {
			c := s.history[i].Clone()
			return &c, true
		}
	}
	return nil, false
}

// Subscribe returns a channel of change events that closes when ctx ends.
// Slow subscribers miss events rather than block writers.
func (s *SessionStore) Subscribe(ctx context.Context, buffer int) <-chan StoreEvent {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan StoreEvent, buffer)

	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subsMu.Lock()
		delete(s.subs, ch)
		s.subsMu.Unlock()
		close(ch)
	}()

	return ch
}

func (s *SessionStore) publish(t StoreEventType, token string) {
	evt := StoreEvent{Type: t, Timestamp: time.Now().UnixMilli(), Token: token}

	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for ch := range s.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
