package queue

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/ieql/internal/db"
)

// mockStore implements the source and sink consumer interfaces for tests.
type mockStore struct {
	mu sync.Mutex

	ensureGroupFn func(ctx context.Context, stream, group string) error
	readGroupFn   func(
		ctx context.Context, stream, group, consumer string,
		count int64, block time.Duration,
	) ([]db.StreamMessage, error)

	acked []string
	ackFn func(ctx context.Context, stream, group string, ids ...string) error

	added   []map[string]string
	addErr  error
	addedTo []string
}

func (m *mockStore) EnsureGroup(ctx context.Context, stream, group string) error {
	if m.ensureGroupFn != nil {
		return m.ensureGroupFn(ctx, stream, group)
	}
	return nil
}

func (m *mockStore) ReadGroup(
	ctx context.Context, stream, group, consumer string,
	count int64, block time.Duration,
) ([]db.StreamMessage, error) {
	if m.readGroupFn != nil {
		return m.readGroupFn(ctx, stream, group, consumer, count, block)
	}
	return nil, nil
}

func (m *mockStore) Ack(ctx context.Context, stream, group string, ids ...string) error {
	m.mu.Lock()
	m.acked = append(m.acked, ids...)
	m.mu.Unlock()
	if m.ackFn != nil {
		return m.ackFn(ctx, stream, group, ids...)
	}
	return nil
}

func (m *mockStore) StreamAdd(ctx context.Context, stream string, fields map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return "", m.addErr
	}
	m.added = append(m.added, fields)
	m.addedTo = append(m.addedTo, stream)
	return "1-1", nil
}

func (m *mockStore) ackedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}
