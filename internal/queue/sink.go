package queue

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ieql/internal/output"
	"github.com/kailas-cloud/ieql/internal/parser"
)

const fieldPayload = "payload"

// sinkStore is the consumer interface for the response sink (ISP).
type sinkStore interface {
	StreamAdd(ctx context.Context, stream string, fields map[string]string) (string, error)
}

// Sink appends responses to a stream as JSON payloads.
type Sink struct {
	store  sinkStore
	stream string
	logger *zap.Logger
}

// NewSink creates a response sink.
func NewSink(store sinkStore, stream string, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{store: store, stream: stream, logger: logger}
}

// Run writes responses until in is closed and drained. Failed appends are
// logged and dropped; they never stall the scanner.
func (s *Sink) Run(ctx context.Context, in <-chan output.Response) error {
	for resp := range in {
		data, err := parser.MarshalResponse(resp)
		if err != nil {
			s.logger.Error("marshal response failed", zap.String("response_id", resp.ID), zap.Error(err))
			continue
		}
		if _, err := s.store.StreamAdd(ctx, s.stream, map[string]string{fieldPayload: string(data)}); err != nil {
			s.logger.Warn("append response failed", zap.String("response_id", resp.ID), zap.Error(err))
		}
	}
	return nil
}
