package enquirybot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tbxark/enquirybot/agent"
)

// Handler is the dialogue driven by a Bot; *agent.Flow implements it.
type Handler interface {
	Start(ctx context.Context) (*agent.Response, error)
	Invoke(ctx context.Context, ev agent.Event) (*agent.Response, error)
}

// Bot routes events to the dialogue. Events of one conversation are handled
// strictly one at a time; different conversations proceed in parallel.
type Bot struct {
	handler Handler

	mu            sync.Mutex
	conversations map[string]*conversation
}

type conversation struct {
	mu      sync.Mutex
	refs    int
	next    uint64
	cancels map[uint64]context.CancelFunc
}

func New(handler Handler) *Bot {
	return &Bot{
		handler:       handler,
		conversations: map[string]*conversation{},
	}
}

// Start begins a fresh conversation, discarding any previous progress.
func (b *Bot) Start(ctx context.Context, id string) (*agent.Response, error) {
	return b.run(ctx, id, b.handler.Start)
}

// Handle delivers one event. A cancel event first aborts whatever is still
// being handled for the conversation.
func (b *Bot) Handle(ctx context.Context, id string, ev agent.Event) (*agent.Response, error) {
	if ev.Kind == agent.EventCancel {
		if n := b.abort(id); n > 0 {
			slog.Info("Aborted in-flight events", "conversation", id, "count", n)
		}
	}
	return b.run(ctx, id, func(ctx context.Context) (*agent.Response, error) {
		return b.handler.Invoke(ctx, ev)
	})
}

func (b *Bot) run(ctx context.Context, id string, fn func(ctx context.Context) (*agent.Response, error)) (*agent.Response, error) {
	ctx, cancel := context.WithCancel(agent.WithStateKey(ctx, id))
	defer cancel()

	c, token := b.acquire(id, cancel)
	defer b.release(id, c, token)

	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(ctx)
}

func (b *Bot) acquire(id string, cancel context.CancelFunc) (*conversation, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.conversations[id]
	if !ok {
		c = &conversation{cancels: map[uint64]context.CancelFunc{}}
		b.conversations[id] = c
	}
	c.refs++
	c.next++
	c.cancels[c.next] = cancel
	return c, c.next
}

func (b *Bot) release(id string, c *conversation, token uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(c.cancels, token)
	c.refs--
	if c.refs == 0 {
		delete(b.conversations, id)
	}
}

func (b *Bot) abort(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.conversations[id]
	if !ok {
		return 0
	}
	n := len(c.cancels)
	for token, cancel := range c.cancels {
		cancel()
		delete(c.cancels, token)
	}
	return n
}
