package vertex

import "sync"

// queue is an unbounded single-producer/single-consumer FIFO. push never
// blocks; pop blocks until an item arrives or the sending half is closed.
type queue[T any] struct {
	mu         sync.Mutex
	items      []T
	sendClosed bool
	recvClosed bool
	ready      chan struct{} // capacity 1; wakes the consumer
}

func newQueue[T any]() *queue[T] {
	return &queue[T]{ready: make(chan struct{}, 1)}
}

func (q *queue[T]) push(v T) bool {
	q.mu.Lock()
	if q.recvClosed || q.sendClosed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.notify()
	return true
}

func (q *queue[T]) pop() (T, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			var zero T
			q.items[0] = zero
			q.items = q.items[1:]
			q.mu.Unlock()
			return v, true
		}
		done := q.sendClosed || q.recvClosed
		q.mu.Unlock()
		if done {
			var zero T
			return zero, false
		}
		<-q.ready
	}
}

func (q *queue[T]) closeSend() {
	q.mu.Lock()
	q.sendClosed = true
	q.mu.Unlock()
	q.notify()
}

// closeRecv drops buffered items and makes further pushes fail.
func (q *queue[T]) closeRecv() {
	q.mu.Lock()
	q.recvClosed = true
	q.items = nil
	q.mu.Unlock()
	q.notify()
}

func (q *queue[T]) notify() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
