package responder

import "context"

// Responder answers free-text questions about the product. An empty answer
// with a nil error is a valid reply.
type Responder interface {
	Ask(ctx context.Context, question string) (string, error)
}
