// Package mock provides test doubles for vertex interfaces using function
// fields, and readers that control how a body is split into chunks.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/fwojciec/vertex"
)

// Interface compliance checks.
var (
	_ vertex.TokenProvider = (*TokenProvider)(nil)
	_ io.ReadCloser        = (*ChunkedBody)(nil)
)

// TokenProvider is a test double for vertex.TokenProvider.
// Set TokenFn before calling Token.
type TokenProvider struct {
	TokenFn func(ctx context.Context) (string, error)
}

// Token delegates to TokenFn.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	return p.TokenFn(ctx)
}

// ChunkedBody returns one chunk per Read, then io.EOF. A chunk larger than
// the caller's buffer is returned across several reads. Err, when set, is
// returned instead of io.EOF after the last chunk.
type ChunkedBody struct {
	Chunks [][]byte
	Err    error

	mu     sync.Mutex
	closed bool
	rest   []byte
}

// Chunks builds a ChunkedBody from strings.
func Chunks(chunks ...string) *ChunkedBody {
	b := &ChunkedBody{}
	for _, c := range chunks {
		b.Chunks = append(b.Chunks, []byte(c))
	}
	return b
}

// Read returns the next chunk.
func (b *ChunkedBody) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	if len(b.rest) == 0 {
		if len(b.Chunks) == 0 {
			if b.Err != nil {
				return 0, b.Err
			}
			return 0, io.EOF
		}
		b.rest, b.Chunks = b.Chunks[0], b.Chunks[1:]
	}
	n := copy(p, b.rest)
	b.rest = b.rest[n:]
	return n, nil
}

// Close makes further reads fail.
func (b *ChunkedBody) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close was called.
func (b *ChunkedBody) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
