package agent

import (
	"context"
	"time"
)

// StateReadWriter persists the session of the conversation routed by ctx.
type StateReadWriter interface {
	Read(ctx context.Context) (*Session, bool, error)
	Write(ctx context.Context, session *Session) error
	Remove(ctx context.Context) error
}

type stateKeyContext struct{}

const defaultStateKey = "default"

// WithStateKey sets the conversation id used to route state in ctx.
func WithStateKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, stateKeyContext{}, key)
}

// StateKeyFromContext gets the conversation id from the context.
func StateKeyFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(stateKeyContext{})
	if value == nil {
		return "", false
	}
	key, ok := value.(string)
	return key, ok
}

type SessionStore struct {
	store conversationStore[*Session]
}

func NewSessionStore(core Cache[*Session]) *SessionStore {
	return &SessionStore{
		store: newConversationStore(core, "agent:session"),
	}
}

// NewMemorySessionStore keeps sessions in process, dropping those idle for ttl.
func NewMemorySessionStore(ttl time.Duration) *SessionStore {
	return NewSessionStore(NewMemoryCache[*Session](ttl))
}

func (s *SessionStore) Read(ctx context.Context) (*Session, bool, error) {
	session, ok, err := s.store.load(ctx)
	if err != nil || !ok || session == nil {
		return nil, false, err
	}
	clone := *session
	return &clone, true, nil
}

func (s *SessionStore) Write(ctx context.Context, session *Session) error {
	clone := *session
	return s.store.save(ctx, &clone)
}

func (s *SessionStore) Remove(ctx context.Context) error {
	return s.store.drop(ctx)
}

var _ StateReadWriter = (*SessionStore)(nil)
