// Package worker keeps the spreadsheet export of the transaction views current.
// It exports on a fixed interval and whenever a mutation event says the
// transactions of the exported environment may have changed.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"finview/internal/amqp"
	"finview/internal/export"
	"finview/internal/log"
	"finview/internal/session"
	"finview/internal/storage"
)

// ErrNoSession is returned when there is no logged-in session with an active environment to export.
var ErrNoSession = errors.New("no active session to export")

// Exporter produces one export.
type Exporter interface {
	Export(ctx context.Context) (export.Result, error)
}

// ExportLog records finished exports.
type ExportLog interface {
	RecordExport(ctx context.Context, run storage.ExportRun) (int64, error)
	LastExport(ctx context.Context, key string) (storage.ExportRun, error)
}

// Config holds configuration for the export worker
type Config struct {
	// Interval between periodic exports (default: 5m)
	Interval time.Duration
}

// DefaultConfig returns the defaults
func DefaultConfig() Config {
	return Config{Interval: 5 * time.Minute}
}

// ExportWorker is safe for concurrent use.
type ExportWorker struct {
	exporter Exporter
	runs     ExportLog
	session  *session.Session
	config   Config
	logger   *log.Logger
	now      func() time.Time

	// trigger holds at most one pending event-driven export
	trigger chan struct{}

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportWorker(exporter Exporter, runs ExportLog, sess *session.Session, config Config, logger *log.Logger) *ExportWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		exporter: exporter,
		runs:     runs,
		session:  sess,
		config:   config,
		logger:   logger.WithComponent(log.ComponentWorker),
		now:      time.Now,
		trigger:  make(chan struct{}, 1),
	}
}

// HandleMutation schedules an export for events that can change the exported
// transactions. Events of other environments are acknowledged and ignored.
func (w *ExportWorker) HandleMutation(ctx context.Context, ev *amqp.MutationEvent) error {
	if !ev.AffectsTransactions() {
		w.logger.DebugContext(ctx, "Ignoring mutation event", "event_id", ev.ID, log.FieldEntity, string(ev.Entity))
		return nil
	}
	if ev.EnvironmentID != "" && ev.EnvironmentID != w.session.EnvironmentID() {
		if err := w.session.Restore(ctx); err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
		if ev.EnvironmentID != w.session.EnvironmentID() {
			w.logger.DebugContext(ctx, "Ignoring event of another environment",
				"event_id", ev.ID, log.FieldEnvironmentID, ev.EnvironmentID)
			return nil
		}
	}

	select {
	case w.trigger <- struct{}{}:
	default:
		// an export is already pending
	}
	return nil
}

// Start begins the export loop. Returns an error if already running.
func (w *ExportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("export worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	go w.runLoop(ctx, stopCh, doneCh)

	w.logger.InfoContext(ctx, "Export worker started", "interval", w.config.Interval.String())
	return nil
}

// Stop gracefully stops the worker and waits for the running export to finish.
// It may be called again after a timeout to keep waiting.
func (w *ExportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	select {
	case <-stopCh:
	default:
		close(stopCh)
	}
	w.mu.Unlock()

	select {
	case <-doneCh:
		w.logger.InfoContext(ctx, "Export worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Export worker stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the worker loop is active
func (w *ExportWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *ExportWorker) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(doneCh)
	}()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	if err := w.StartupCheck(ctx); err != nil && !errors.Is(err, ErrNoSession) {
		w.logger.ErrorContext(ctx, "Startup export failed", log.FieldError, err)
	}

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.exportLogged(ctx, "interval")
		case <-w.trigger:
			w.exportLogged(ctx, "event")
		}
	}
}

func (w *ExportWorker) exportLogged(ctx context.Context, reason string) {
	if err := w.ExportNow(ctx, reason); err != nil {
		if errors.Is(err, ErrNoSession) {
			w.logger.DebugContext(ctx, "Skipping export without session", "reason", reason)
			return
		}
		w.logger.ErrorContext(ctx, "Export failed", "reason", reason, log.FieldError, err)
	}
}

// ExportNow reloads the shared session, exports and records the run.
func (w *ExportWorker) ExportNow(ctx context.Context, reason string) error {
	if err := w.session.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if !w.session.Authenticated() || w.session.EnvironmentID() == "" {
		return ErrNoSession
	}

	res, err := w.exporter.Export(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	run := storage.ExportRun{
		SessionKey:    w.session.Key(),
		EnvironmentID: w.session.EnvironmentID(),
		TargetRange:   res.Table,
		RowCount:      int64(res.Rows),
		ExportedAt:    res.ExportedAt,
	}
	if _, err := w.runs.RecordExport(ctx, run); err != nil {
		// the sheet is already written
		w.logger.WarnContext(ctx, "Failed to record export", log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Export completed",
		"reason", reason,
		log.FieldEnvironmentID, run.EnvironmentID,
		log.FieldCount, res.Rows)
	return nil
}

// StartupCheck exports unless the last recorded export is newer than the interval.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	last, err := w.runs.LastExport(ctx, w.session.Key())
	switch {
	case errors.Is(err, storage.ErrNoExport):
		w.logger.InfoContext(ctx, "No previous export found, exporting now")
	case err != nil:
		return fmt.Errorf("last export: %w", err)
	default:
		age := w.now().Sub(last.ExportedAt)
		if age < w.config.Interval {
			w.logger.InfoContext(ctx, "Last export is fresh",
				"exported_at", last.ExportedAt.Format(time.RFC3339),
				"age", age.Round(time.Second).String())
			return nil
		}
	}
	return w.ExportNow(ctx, "startup")
}
