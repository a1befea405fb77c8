package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ieql/internal/db"
)

// StreamAdd appends an entry with XADD and returns its generated id.
func (s *Store) StreamAdd(ctx context.Context, stream string, fields map[string]string) (string, error) {
	b := s.b().Xadd().Key(stream).Id("*").FieldValue()
	for k, v := range fields {
		b = b.FieldValue(k, v)
	}
	id, err := s.do(ctx, b.Build()).ToString()
	if err != nil {
		return "", &db.Error{Op: db.OpStreamAdd, Err: err}
	}
	return id, nil
}

// EnsureGroup creates the consumer group at the stream tail, creating the
// stream when missing. An already-existing group is not an error.
func (s *Store) EnsureGroup(ctx context.Context, stream, group string) error {
	cmd := s.b().XgroupCreate().Key(stream).Group(group).Id("$").Mkstream().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "BUSYGROUP") {
			return nil
		}
		return &db.Error{Op: db.OpGroupCreate, Err: err}
	}
	return nil
}

// ReadGroup reads up to count new entries for the consumer, blocking up to
// block. A block timeout yields an empty slice.
func (s *Store) ReadGroup(
	ctx context.Context, stream, group, consumer string,
	count int64, block time.Duration,
) ([]db.StreamMessage, error) {
	cmd := s.b().Xreadgroup().
		Group(group, consumer).
		Count(count).
		Block(block.Milliseconds()).
		Streams().Key(stream).Id(">").
		Build()

	res, err := s.do(ctx, cmd).AsXRead()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, &db.Error{Op: db.OpReadGroup, Err: err}
	}

	entries := res[stream]
	messages := make([]db.StreamMessage, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, db.StreamMessage{ID: e.ID, Fields: e.FieldValues})
	}
	return messages, nil
}

// Ack acknowledges processed entries for the group.
func (s *Store) Ack(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	cmd := s.b().Xack().Key(stream).Group(group).Id(ids...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpAck, Err: err}
	}
	return nil
}
