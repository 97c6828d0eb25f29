// Package embedding holds helpers shared by the embedding service adapters.
//
// Providers live in subpackages:
//   - hash: offline feature hashing, no network
//   - ollama: local Ollama server
//   - openai: OpenAI or a compatible API
package embedding

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle limits outbound requests to a provider.
// A nil Throttle never blocks.
type Throttle struct {
	bucket *rate.Limiter
}

// NewThrottle returns a throttle allowing rps requests per second with a
// burst of one. A non-positive rps returns nil.
func NewThrottle(rps float64) *Throttle {
	if rps <= 0 {
		return nil
	}
	return &Throttle{bucket: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Wait blocks until a request may be sent or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.bucket.Wait(ctx)
}
