package trash

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
)

// Strategy is one way of performing a trash operation.
type Strategy struct {
	Name string
	Run  func(ctx context.Context) error
}

// Attempt runs strategies in order until one succeeds. A failing or panicking
// strategy never stops the ones after it. The returned error joins every
// failure.
func Attempt(ctx context.Context, strategies []Strategy) error {
	var errs []error

	for i, s := range strategies {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		log.Debug("Trying trash strategy", "n", i+1, "name", s.Name)

		err := runIsolated(ctx, s)
		if err == nil {
			return nil
		}

		log.Debug("Trash strategy failed", "name", s.Name, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}

	if len(errs) == 0 {
		return errors.New("no strategy available")
	}
	return errors.Join(errs...)
}

func runIsolated(ctx context.Context, s Strategy) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Run(ctx)
}
