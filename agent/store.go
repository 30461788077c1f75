package agent

import (
	"context"
)

// conversationStore scopes a Cache to the conversation routed by ctx. Keys
// are "<namespace>:<conversation id>".
type conversationStore[S any] struct {
	cache     Cache[S]
	namespace string
}

func newConversationStore[S any](cache Cache[S], namespace string) conversationStore[S] {
	return conversationStore[S]{cache: cache, namespace: namespace}
}

func (c conversationStore[S]) key(ctx context.Context) string {
	key, ok := StateKeyFromContext(ctx)
	if !ok || key == "" {
		key = defaultStateKey
	}
	return c.namespace + ":" + key
}

func (c conversationStore[S]) load(ctx context.Context) (S, bool, error) {
	return c.cache.Get(ctx, c.key(ctx))
}

func (c conversationStore[S]) save(ctx context.Context, val S) error {
	return c.cache.Set(ctx, c.key(ctx), val)
}

func (c conversationStore[S]) drop(ctx context.Context) error {
	return c.cache.Del(ctx, c.key(ctx))
}

// update replaces the stored value with fn(current). Callers serialise
// updates of one conversation.
func (c conversationStore[S]) update(ctx context.Context, fn func(current S, ok bool) S) error {
	key := c.key(ctx)
	current, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, key, fn(current, ok))
}
