// Package testutil provides shared test helpers: a logger bound to the
// running test and canned record sets.
package testutil

import (
	"log/slog"
	"testing"

	"github.com/leapstack-labs/dataload/internal/record"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// AdaLin returns two records sharing the fields id, name and active.
func AdaLin() []record.Record {
	return []record.Record{
		record.New(record.F("id", 1), record.F("name", "Ada"), record.F("active", true)),
		record.New(record.F("id", 2), record.F("name", "Lin"), record.F("active", false)),
	}
}

// Ragged returns records whose shapes disagree with the first one.
func Ragged() []record.Record {
	return []record.Record{
		record.New(record.F("id", "a"), record.F("first_name", "Ada"), record.F("score", 9.5)),
		record.New(record.F("id", "b"), record.F("nickname", "Lin")),
		record.New(record.F("first_name", "Grace"), record.F("score", nil), record.F("id", "c")),
	}
}
