package speech

import (
	"context"
	"time"

	"jarvis/internal/assistant"
)

// Gate holds the wrapped listener back until Trigger is called, for
// push-to-talk setups driven by a hotkey and jarvis-ctl --trigger.
type Gate struct {
	next    assistant.Listener
	trigger chan struct{}
	wait    time.Duration
}

func NewGate(next assistant.Listener, wait time.Duration) *Gate {
	if wait <= 0 {
		wait = DefaultQueueWait
	}
	return &Gate{next: next, trigger: make(chan struct{}, 1), wait: wait}
}

// Trigger opens the gate for one utterance. Triggers while one is pending
// are merged.
func (g *Gate) Trigger() {
	select {
	case g.trigger <- struct{}{}:
	default:
	}
}

// Listen returns "" when no trigger arrives within the wait.
func (g *Gate) Listen(ctx context.Context) (string, error) {
	t := time.NewTimer(g.wait)
	defer t.Stop()

	select {
	case <-g.trigger:
		return g.next.Listen(ctx)
	case <-t.C:
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
