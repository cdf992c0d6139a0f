package vertex

import (
	"context"
	"io"
	"iter"
)

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // At least one item received.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned an error item.
	StreamStateClosed                       // Close() called before terminal state.
)

// Result is one item of a stream: exactly one of Value or Err is meaningful.
type Result[T any] struct {
	Value T
	Err   error
}

// ProduceFunc runs the background half of a [Stream]. It pushes items through
// send until the input is exhausted, a fatal error was sent, or Send reports
// that the consumer is gone. The stream ends when ProduceFunc returns.
type ProduceFunc[T any] func(ctx context.Context, send *Sender[T])

// Sender is the producer's half of a stream's result channel.
type Sender[T any] struct {
	q *queue[Result[T]]
}

// Send enqueues a value. It returns false once the consumer closed the
// stream; the producer should stop.
func (s *Sender[T]) Send(v T) bool {
	return s.q.push(Result[T]{Value: v})
}

// Fail enqueues an error item. It returns false once the consumer closed the
// stream.
func (s *Sender[T]) Fail(err error) bool {
	return s.q.push(Result[T]{Err: err})
}

// Stream is a single-pass, forward-only sequence of decoded results fed by a
// producer goroutine. Items arrive in the order they were decoded. An error
// item ends the sequence: after it, Next returns io.EOF.
//
// Stream is not restartable; iterating again requires a new request.
// Next, All and Close must be called from one goroutine.
type Stream[T any] struct {
	q      *queue[Result[T]]
	cancel context.CancelFunc
	state  StreamState
	err    error
}

// NewStream starts produce on its own goroutine and returns the consumer
// half. The producer's context is derived from ctx and cancelled by Close.
func NewStream[T any](ctx context.Context, produce ProduceFunc[T]) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	q := newQueue[Result[T]]()
	go func() {
		defer q.closeSend()
		produce(ctx, &Sender[T]{q: q})
	}()
	return &Stream[T]{q: q, cancel: cancel, state: StreamStateNew}
}

// Next blocks until the next item is available. It returns io.EOF when the
// sequence has ended, and the in-band error when the producer failed.
func (s *Stream[T]) Next() (T, error) {
	var zero T
	switch s.state {
	case StreamStateComplete, StreamStateError:
		return zero, io.EOF
	case StreamStateClosed:
		return zero, ErrStreamClosed
	}

	r, ok := s.q.pop()
	if !ok {
		s.state = StreamStateComplete
		s.cancel()
		return zero, io.EOF
	}
	if r.Err != nil {
		s.state = StreamStateError
		s.err = r.Err
		s.cancel()
		s.q.closeRecv()
		return zero, r.Err
	}
	s.state = StreamStateStreaming
	return r.Value, nil
}

// All returns an iterator over the remaining items. An error item is yielded
// as (zero, err) and ends the iteration. Breaking out of the loop closes the
// stream.
func (s *Stream[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, err := s.Next()
			if err == io.EOF {
				return
			}
			if !yield(v, err) {
				_ = s.Close()
				return
			}
			if err != nil {
				return
			}
		}
	}
}

// State returns the current stream state.
func (s *Stream[T]) State() StreamState {
	return s.state
}

// Err returns the error item that ended the stream, if any.
func (s *Stream[T]) Err() error {
	return s.err
}

// Close stops consumption. The producer observes it on its next Send and on
// its next context-aware read. Close is idempotent.
func (s *Stream[T]) Close() error {
	if s.state != StreamStateComplete && s.state != StreamStateError {
		s.state = StreamStateClosed
	}
	s.q.closeRecv()
	s.cancel()
	return nil
}

// Collect drains s into a slice, stopping at the first error.
func Collect[T any](s *Stream[T]) ([]T, error) {
	defer s.Close()
	var out []T
	for v, err := range s.All() {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
