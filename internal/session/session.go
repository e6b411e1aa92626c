// Package session holds per-conversation state: preferences and history.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/internal/preferences"
)

// DefaultID is used by callers that do not name a conversation.
const DefaultID = "default"

// Session is one conversation. Callers hold Lock for the whole of a turn so
// turns on the same conversation run one at a time.
type Session struct {
	sync.Mutex

	ID      string
	Created time.Time
	Prefs   *preferences.Preferences

	history []models.Message
}

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, Created: now, Prefs: preferences.New()}
}

// AddExchange appends a question and its answer to the history.
func (s *Session) AddExchange(question, answer string, at time.Time) {
	s.history = append(s.history,
		models.Message{Role: models.RoleHuman, Content: question, At: at},
		models.Message{Role: models.RoleAI, Content: answer, At: at},
	)
}

// History returns a copy of the conversation so far, oldest first.
func (s *Session) History() []models.Message {
	out := make([]models.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Store maps conversation ids to sessions. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session), now: time.Now}
}

// Get returns the session for id, creating it on first use. An empty id
// selects DefaultID.
func (s *Store) Get(id string) *Session {
	id = normalize(id)

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; ok {
		return sess
	}
	sess = newSession(id, s.now())
	s.sessions[id] = sess
	return sess
}

// Reset discards the session for id, or every session when id is empty.
// It returns how many sessions were dropped.
func (s *Store) Reset(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(id) == "" {
		n := len(s.sessions)
		s.sessions = make(map[string]*Session)
		return n
	}
	id = normalize(id)
	if _, ok := s.sessions[id]; !ok {
		return 0
	}
	delete(s.sessions, id)
	return 1
}

// Len is the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func normalize(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return DefaultID
	}
	return id
}
