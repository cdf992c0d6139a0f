// Package vertex decodes streamed Vertex AI responses into typed, lazily
// consumed sequences.
//
// Two backends are supported through sub-packages: [gemini] decodes the
// JSON-array framing used by streamGenerateContent, and [anthropic] decodes
// the Server-Sent Events framing used by streamRawPredict. Both hand their
// results to the caller through [Stream], which is fed by a producer
// goroutine over an unbounded, order-preserving queue.
//
// [gemini]: https://pkg.go.dev/github.com/fwojciec/vertex/gemini
// [anthropic]: https://pkg.go.dev/github.com/fwojciec/vertex/anthropic
package vertex

import "context"

// TokenProvider supplies the bearer token for a single request. It is called
// once per call; the token is treated as immutable for that request.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts a function to [TokenProvider].
type TokenProviderFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f TokenProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}
