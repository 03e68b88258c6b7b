package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"sync/atomic"
	"time"

	"jarvis/internal/command"
	"jarvis/internal/dispatch"
)

var (
	// ErrInputClosed is returned by a Listener that has no more utterances.
	ErrInputClosed = errors.New("input closed")
	// ErrTooManyFailures stops the loop after MaxFailures errors in a row.
	ErrTooManyFailures = errors.New("too many consecutive failures")
)

const (
	DefaultMaxFailures = 5
	DefaultPause       = time.Second

	GreetingText        = "Jarvis is now active. How can I help you?"
	RetryText           = "Sorry, something went wrong. Please try again."
	RepeatedFailureText = "I'm having repeated trouble, shutting down."
)

// Listener blocks until the user says something. An empty string means
// nothing was recognized.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

type Speaker interface {
	Speak(text string)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, intent command.Intent, arg command.Argument) dispatch.Signal
}

type State int32

const (
	Idle State = iota
	Listening
	Processing
	Dispatching
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Processing:
		return "processing"
	case Dispatching:
		return "dispatching"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

type Config struct {
	Listener   Listener
	Speaker    Speaker
	Dispatcher Dispatcher
	Extractor  *command.Extractor

	MaxFailures int
	Pause       time.Duration

	// OnState and OnTranscript are called from the loop goroutine.
	OnState      func(State)
	OnTranscript func(string)
}

// Loop runs listen, interpret, dispatch until told to stop.
type Loop struct {
	cfg      Config
	state    atomic.Int32
	failures int
}

func New(cfg Config) *Loop {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.Pause <= 0 {
		cfg.Pause = DefaultPause
	}
	return &Loop{cfg: cfg}
}

func (l *Loop) State() State {
	return State(l.state.Load())
}

// Run blocks until the user says goodbye, the input closes, the failure limit
// is reached or ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer l.setState(Stopped)

	l.setState(Idle)
	l.cfg.Speaker.Speak(GreetingText)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		sig, err := l.step(ctx)
		switch {
		case errors.Is(err, ErrInputClosed):
			log.Info("Input closed")
			return nil
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			l.failures++
			log.Error("Iteration failed", "err", err, "consecutive", l.failures)

			if l.failures >= l.cfg.MaxFailures {
				l.cfg.Speaker.Speak(RepeatedFailureText)
				return fmt.Errorf("%d errors: %w", l.failures, ErrTooManyFailures)
			}

			l.cfg.Speaker.Speak(retryText(err))
			l.setState(Idle)
			if !sleep(ctx, l.cfg.Pause) {
				return ctx.Err()
			}
			continue
		case sig == dispatch.Terminate:
			log.Info("Goodbye")
			return nil
		}

		l.setState(Idle)
	}
}

func (l *Loop) step(ctx context.Context) (sig dispatch.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			sig, err = dispatch.Continue, fmt.Errorf("panic: %v", r)
		}
	}()

	l.setState(Listening)

	utterance, err := l.cfg.Listener.Listen(ctx)
	if err != nil {
		return dispatch.Continue, fmt.Errorf("listen: %w", err)
	}

	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return dispatch.Continue, nil
	}

	l.failures = 0
	if l.cfg.OnTranscript != nil {
		l.cfg.OnTranscript(utterance)
	}

	l.setState(Processing)

	cmd := command.Parse(utterance)
	intent := command.Classify(cmd.Text)
	arg := l.cfg.Extractor.Extract(intent, cmd)

	log.Debug("Command recognized", "original", utterance, "processed", cmd.Text, "intent", intent.String())

	l.setState(Dispatching)

	return l.cfg.Dispatcher.Dispatch(ctx, intent, arg), nil
}

func (l *Loop) setState(s State) {
	if State(l.state.Swap(int32(s))) == s {
		return
	}
	if l.cfg.OnState != nil {
		l.cfg.OnState(s)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Explainer is implemented by errors that carry their own spoken apology.
type Explainer interface {
	Explain() string
}

func retryText(err error) string {
	var ex Explainer
	if errors.As(err, &ex) {
		return ex.Explain()
	}
	return RetryText
}
