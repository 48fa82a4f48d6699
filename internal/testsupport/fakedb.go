// Package testsupport holds fakes shared by service tests.
package testsupport

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/burenotti/wearable_backend/internal/adapter/storage"
	"github.com/burenotti/wearable_backend/internal/domain"
)

var ErrNoDatabase = errors.New("fake database does not run queries")

// FakeDB is a storage.DBContext that only tracks transaction state.
// Storages used with it must be fakes as well.
type FakeDB struct {
	mu         sync.Mutex
	Begins     int
	Commits    int
	Rollbacks  int
	committed  bool
	BeginError error
}

func (f *FakeDB) Begin(ctx context.Context) (storage.DBContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.BeginError != nil {
		return nil, f.BeginError
	}
	f.Begins++
	f.committed = false
	return f, nil
}

func (f *FakeDB) Commit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commits++
	f.committed = true
	return nil
}

func (f *FakeDB) Rollback() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.committed {
		return sql.ErrTxDone
	}
	f.Rollbacks++
	return nil
}

func (f *FakeDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, ErrNoDatabase
}

func (f *FakeDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, ErrNoDatabase
}

func (f *FakeDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

// Bus records published events synchronously.
type Bus struct {
	mu     sync.Mutex
	Events []domain.Event
}

func (b *Bus) PublishEvents(events ...domain.Event) error {
	b.mu.Lock()
	b.Events = append(b.Events, events...)
	b.mu.Unlock()
	return nil
}

func (b *Bus) Types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]string, 0, len(b.Events))
	for _, e := range b.Events {
		types = append(types, e.Type())
	}
	return types
}

func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Seen collects events from aggregates handed to a fake storage.
type Seen struct {
	mu      sync.Mutex
	sources []domain.EventSource
}

func (s *Seen) Mark(src domain.EventSource) {
	s.mu.Lock()
	s.sources = append(s.sources, src)
	s.mu.Unlock()
}

func (s *Seen) CollectEvents() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []domain.Event
	for _, src := range s.sources {
		events = append(events, src.PopEvents()...)
	}
	s.sources = nil
	return events
}
