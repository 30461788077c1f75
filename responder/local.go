package responder

import (
	"context"
	"errors"
	"fmt"
)

// StaticResponder always returns the same answer.
type StaticResponder struct {
	Answer string
}

func (r StaticResponder) Ask(ctx context.Context, question string) (string, error) {
	return r.Answer, nil
}

type FailbackResponder struct {
	responders []Responder
}

// NewFailbackResponder asks each responder in order until one succeeds.
func NewFailbackResponder(responders ...Responder) *FailbackResponder {
	return &FailbackResponder{responders: responders}
}

func (r *FailbackResponder) Ask(ctx context.Context, question string) (string, error) {
	lastErr := errors.New("no responders configured")
	for _, responder := range r.responders {
		answer, err := responder.Ask(ctx, question)
		if err == nil {
			return answer, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		lastErr = err
	}
	return "", fmt.Errorf("all responders failed: %w", lastErr)
}
