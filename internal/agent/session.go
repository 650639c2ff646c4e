package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"lume/internal/llm"
)

var (
	ErrSessionExists   = errors.New("agent session already exists")
	ErrSessionNotFound = errors.New("agent session not found")
)

// Event es una entrada del historial de la sesion del runtime.
type Event struct {
	ID           string
	InvocationID string
	// Author es "user" o el nombre del agente que produjo el evento.
	Author     string
	Text       string
	Call       *llm.ToolCall
	Result     *llm.ToolResult
	TransferTo string
	Final      bool
	Timestamp  time.Time
}

// IsFinalResponse indica si el evento cierra la invocacion con la respuesta al usuario.
func (e Event) IsFinalResponse() bool {
	return e.Final
}

type Session struct {
	AppName    string
	UserID     string
	ID         string
	Events     []Event
	LastUpdate time.Time
}

// SessionService guarda las conversaciones del runtime, separadas del transcript persistido.
type SessionService interface {
	Create(ctx context.Context, appName, userID, sessionID string) (*Session, error)
	Get(ctx context.Context, appName, userID, sessionID string) (*Session, error)
	AppendEvent(ctx context.Context, s *Session, event Event) error
}

type sessionKey struct {
	app, user, id string
}

// InMemorySessionService vive lo que vive el proceso.
type InMemorySessionService struct {
	mu       sync.Mutex
	sessions map[sessionKey]*Session
	now      func() time.Time
}

func NewInMemorySessionService() *InMemorySessionService {
	return &InMemorySessionService{
		sessions: make(map[sessionKey]*Session),
		now:      time.Now,
	}
}

func (s *InMemorySessionService) Create(ctx context.Context, appName, userID, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey{app: appName, user: userID, id: sessionID}
	if _, ok := s.sessions[key]; ok {
		return nil, ErrSessionExists
	}
	sess := &Session{
		AppName:    appName,
		UserID:     userID,
		ID:         sessionID,
		LastUpdate: s.now().UTC(),
	}
	s.sessions[key] = sess
	return snapshot(sess), nil
}

// Get devuelve una copia; los cambios sobre ella no afectan la sesion guardada.
func (s *InMemorySessionService) Get(ctx context.Context, appName, userID, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionKey{app: appName, user: userID, id: sessionID}]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return snapshot(sess), nil
}

// AppendEvent agrega el evento a la sesion guardada y a la copia recibida.
func (s *InMemorySessionService) AppendEvent(ctx context.Context, sess *Session, event Event) error {
	if sess == nil {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[sessionKey{app: sess.AppName, user: sess.UserID, id: sess.ID}]
	if !ok {
		return ErrSessionNotFound
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	stored.Events = append(stored.Events, event)
	stored.LastUpdate = event.Timestamp
	sess.Events = append(sess.Events, event)
	sess.LastUpdate = event.Timestamp
	return nil
}

func snapshot(s *Session) *Session {
	out := *s
	out.Events = make([]Event, len(s.Events))
	copy(out.Events, s.Events)
	return &out
}
