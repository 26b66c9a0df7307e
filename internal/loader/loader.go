// Package loader owns the dataset shown to the user and the load/clear
// actions that change it.
//
// States and transitions:
//
//	Absent ──load ok──▶ Empty | Populated(n)
//	any    ──load ok──▶ Empty | Populated(n)
//	any    ──clear────▶ Absent
//	any    ──load err──▶ same state, plus an error notice
//
// With sequencing enabled (the default) a load result is applied only if no
// later load has settled and no clear happened since the load was triggered.
package loader

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/dataload/internal/integration"
	"github.com/leapstack-labs/dataload/internal/notifier"
	"github.com/leapstack-labs/dataload/internal/record"
)

// GenericNotice is shown when a failed load carries no detail message.
const GenericNotice = "Failed to load data."

// ErrSuperseded is returned by TriggerLoad when its result was discarded
// because a newer load settled, or a clear happened, while it was in flight.
var ErrSuperseded = errors.New("load superseded by a newer action")

// Source produces a fresh list of records.
type Source interface {
	Load(ctx context.Context) ([]record.Record, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]record.Record, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) ([]record.Record, error) { return f(ctx) }

// Loader holds the current dataset. It is safe for concurrent use.
type Loader struct {
	src        Source
	notes      *notifier.Notifier
	log        *slog.Logger
	sequencing bool

	mu      sync.Mutex
	ds      record.Dataset
	issued  uint64 // sequence of the most recent trigger
	settled uint64 // highest sequence whose result was applied or reported
	cleared uint64 // value of issued at the most recent clear
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// WithNotifier sets the notifier used for failure notices.
func WithNotifier(n *notifier.Notifier) Option {
	return func(l *Loader) { l.notes = n }
}

// WithSequencing toggles stale-result suppression. When off, whichever load
// completes last wins.
func WithSequencing(on bool) Option {
	return func(l *Loader) { l.sequencing = on }
}

// New creates a loader in the Absent state.
func New(src Source, opts ...Option) *Loader {
	l := &Loader{
		src:        src,
		sequencing: true,
		ds:         record.Absent(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = slog.New(slog.DiscardHandler)
	}
	if l.notes == nil {
		l.notes = notifier.New()
	}
	return l
}

// Dataset returns the current dataset.
func (l *Loader) Dataset() record.Dataset {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ds
}

// Notifier returns the notifier carrying failure notices.
func (l *Loader) Notifier() *notifier.Notifier { return l.notes }

// TriggerLoad requests a fresh dataset from the source and waits for it.
// On success the dataset is replaced. On failure the dataset is left as it
// was, an error notice is broadcast, and the error is returned.
func (l *Loader) TriggerLoad(ctx context.Context) error {
	l.mu.Lock()
	l.issued++
	seq := l.issued
	l.mu.Unlock()

	l.log.Debug("load triggered", "seq", seq)
	records, err := l.src.Load(ctx)

	l.mu.Lock()
	if l.sequencing && (seq <= l.settled || seq <= l.cleared) {
		l.mu.Unlock()
		l.log.Debug("discarding stale load result", "seq", seq, "error", err)
		return ErrSuperseded
	}
	if seq > l.settled {
		l.settled = seq
	}
	if err != nil {
		l.mu.Unlock()
		msg := Message(err)
		l.log.Warn("load failed", "seq", seq, "error", err)
		l.notes.Error(msg)
		return err
	}
	l.ds = record.Loaded(records)
	ds := l.ds
	l.mu.Unlock()

	l.log.Info("data loaded", "seq", seq, "dataset", ds.String())
	return nil
}

// Clear discards the current dataset.
func (l *Loader) Clear() {
	l.mu.Lock()
	l.ds = record.Absent()
	l.cleared = l.issued
	l.mu.Unlock()
	l.log.Debug("data cleared")
}

// Message returns the user-visible text for a load failure: the server's
// detail when present, otherwise GenericNotice.
func Message(err error) string {
	if detail, ok := integration.Detail(err); ok {
		return detail
	}
	return GenericNotice
}
