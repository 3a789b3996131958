// Package audit records finished engine runs: the check, its engine result,
// an AI summary and a notification.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dropurl/dropurl/internal/engine"
	"github.com/dropurl/dropurl/internal/notify"
	"github.com/dropurl/dropurl/internal/storage"
	"github.com/dropurl/dropurl/internal/summarizer"
)

// ErrNoURLs is returned when a submission has nothing to record
var ErrNoURLs = errors.New("submission has no urls")

// Store persists checks and results.
type Store interface {
	CreateCheckWithResult(ctx context.Context, c storage.NewCheck, r storage.EngineResult) (*storage.Check, *storage.Result, error)
	SaveAIResult(ctx context.Context, checkID int64, summary, status string) (*storage.Result, error)
}

// Submission is a finished run to record
type Submission struct {
	URLs     []string
	RawInput string
	Source   string
	Result   engine.EngineResult
}

// Record is what was stored for a submission
type Record struct {
	Check  *storage.Check  `json:"check"`
	Engine *storage.Result `json:"engine"`
	AI     *storage.Result `json:"ai,omitempty"`

	notified <-chan struct{}
}

// Notified is closed once the notification for the record has finished
func (r *Record) Notified() <-chan struct{} {
	return r.notified
}

// Recorder stores submissions and announces them
type Recorder struct {
	Store         Store
	Summarizer    summarizer.Summarizer
	Notifier      notify.Notifier
	NotifyTimeout time.Duration
	Logger        *slog.Logger
}

// Record stores the check and its engine result, then adds a summary and
// dispatches a notification. Summary and notification failures do not fail
// the record.
func (r *Recorder) Record(ctx context.Context, sub Submission) (*Record, error) {
	if len(sub.URLs) == 0 {
		return nil, ErrNoURLs
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := json.Marshal(sub.Result)
	if err != nil {
		return nil, fmt.Errorf("encode engine result: %w", err)
	}
	flags := sub.Result.Flags()
	check, engineRes, err := r.Store.CreateCheckWithResult(ctx, storage.NewCheck{
		Source:   sub.Source,
		RawInput: sub.RawInput,
		URLs:     sub.URLs,
	}, storage.EngineResult{
		Status:        storage.StatusSuccess,
		OverallStatus: engine.OverallStatus(flags),
		Has404:        flags.Has404,
		HasDuplicate:  flags.HasDuplicate,
		HasSeoIssues:  flags.HasSeoIssues,
		Raw:           raw,
	})
	if err != nil {
		return nil, fmt.Errorf("save check: %w", err)
	}

	rec := &Record{Check: check, Engine: engineRes}

	if r.Summarizer != nil {
		rec.AI = r.summarize(ctx, logger, check.ID, sub.URLs, flags)
	}

	rec.notified = notify.Dispatch(r.Notifier, check.ID, r.NotifyTimeout, logger)

	logger.Info("Recorded check",
		"check_id", check.ID,
		"source", check.Source,
		"urls", len(sub.URLs),
		"overall_status", engineRes.OverallStatus)
	return rec, nil
}

func (r *Recorder) summarize(ctx context.Context, logger *slog.Logger, checkID int64, urls []string, flags engine.Flags) *storage.Result {
	summary, err := r.Summarizer.Summarize(ctx, summarizer.Meta{
		URLs:         urls,
		Has404:       flags.Has404,
		HasDuplicate: flags.HasDuplicate,
		HasSeoIssues: flags.HasSeoIssues,
	})
	status := storage.StatusSuccess
	if err != nil {
		logger.Warn("Summary failed", "check_id", checkID, "error", err)
		summary = err.Error()
		status = storage.StatusError
	}

	res, err := r.Store.SaveAIResult(ctx, checkID, summary, status)
	if err != nil {
		logger.Warn("Failed to save summary", "check_id", checkID, "error", err)
		return nil
	}
	return res
}
