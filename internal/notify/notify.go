// Package notify announces completed checks to external channels.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dropurl/dropurl/internal/storage"
)

// ErrNoResults is returned when a check has no engine result to report
var ErrNoResults = errors.New("check has no results yet")

// Notifier announces a completed check.
type Notifier interface {
	Notify(ctx context.Context, checkID int64) error
}

// CheckGetter loads a stored check.
type CheckGetter interface {
	GetCheck(ctx context.Context, id int64) (*storage.CheckRecord, error)
}

// Multi notifies every notifier in turn and joins their errors
type Multi []Notifier

// Notify implements Notifier
func (m Multi) Notify(ctx context.Context, checkID int64) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, checkID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatch runs n in the background with its own timeout. Failures are
// logged and never reach the caller. The returned channel is closed when
// the notification finishes.
func Dispatch(n Notifier, checkID int64, timeout time.Duration, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})
	if n == nil {
		close(done)
		return done
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := n.Notify(ctx, checkID); err != nil {
			logger.Warn("Notification failed", "check_id", checkID, "error", err)
			return
		}
		logger.Debug("Notification sent", "check_id", checkID)
	}()
	return done
}
