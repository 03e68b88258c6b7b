package speech

import (
	"context"
	"sync"
	"time"

	"jarvis/internal/assistant"
)

const DefaultQueueWait = 15 * time.Second

// Queue is a Listener fed with typed text, e.g. from the control socket.
type Queue struct {
	ch   chan string
	wait time.Duration

	once sync.Once
	done chan struct{}
}

func NewQueue(wait time.Duration) *Queue {
	if wait <= 0 {
		wait = DefaultQueueWait
	}
	return &Queue{
		ch:   make(chan string, 16),
		wait: wait,
		done: make(chan struct{}),
	}
}

// Push enqueues an utterance. It reports false once the queue is closed or
// ctx is done.
func (q *Queue) Push(ctx context.Context, text string) bool {
	select {
	case <-q.done:
		return false
	default:
	}

	select {
	case q.ch <- text:
		return true
	case <-q.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Close makes Listen return assistant.ErrInputClosed once drained.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
}

// Listen returns the next utterance, or "" if none arrives within the wait.
func (q *Queue) Listen(ctx context.Context) (string, error) {
	t := time.NewTimer(q.wait)
	defer t.Stop()

	select {
	case text := <-q.ch:
		return text, nil
	default:
	}

	select {
	case text := <-q.ch:
		return text, nil
	case <-q.done:
		return "", assistant.ErrInputClosed
	case <-t.C:
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
