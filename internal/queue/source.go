// Package queue feeds documents from a stream into the scanner and writes
// responses back out. Responses travel as JSON payloads; document fields
// travel as plain stream fields.
package queue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ieql/internal/db"
	"github.com/kailas-cloud/ieql/internal/domain/document"
	"github.com/kailas-cloud/ieql/internal/scan"
)

const (
	readBatch  = 64
	readBlock  = 2 * time.Second
	ackTimeout = 5 * time.Second
	fieldURL   = "url"
	fieldMIME  = "mime"
	fieldBody  = "content"
)

// sourceStore is the consumer interface for the document source (ISP).
type sourceStore interface {
	EnsureGroup(ctx context.Context, stream, group string) error
	ReadGroup(
		ctx context.Context, stream, group, consumer string,
		count int64, block time.Duration,
	) ([]db.StreamMessage, error)
	Ack(ctx context.Context, stream, group string, ids ...string) error
}

// Source consumes documents from a stream via a consumer group. Entries are
// acknowledged only after the scanner has emitted every response for the
// document, so an interrupted scanner redelivers.
type Source struct {
	store    sourceStore
	stream   string
	group    string
	consumer string
	logger   *zap.Logger
}

// NewSource creates a document source.
func NewSource(store sourceStore, stream, group, consumer string, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{store: store, stream: stream, group: group, consumer: consumer, logger: logger}
}

// Run reads documents until ctx is cancelled, pushing tasks to out. Run
// does not close out.
func (s *Source) Run(ctx context.Context, out chan<- scan.Task) error {
	if err := s.store.EnsureGroup(ctx, s.stream, s.group); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		messages, err := s.store.ReadGroup(ctx, s.stream, s.group, s.consumer, readBatch, readBlock)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("read documents failed", zap.Error(err))
			continue
		}
		for _, msg := range messages {
			doc, ok := decodeDocument(msg)
			if !ok {
				s.logger.Warn("malformed document entry dropped", zap.String("entry_id", msg.ID))
				s.ack(msg.ID)
				continue
			}
			task := scan.Task{Document: doc, Done: s.ackFunc(msg.ID)}
			select {
			case out <- task:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func decodeDocument(msg db.StreamMessage) (document.Document, bool) {
	url, ok := msg.Fields[fieldURL]
	if !ok {
		return document.Document{}, false
	}
	body, ok := msg.Fields[fieldBody]
	if !ok {
		return document.Document{}, false
	}
	return document.Document{
		URL:     url,
		MIME:    msg.Fields[fieldMIME],
		Content: []byte(body),
	}, true
}

func (s *Source) ackFunc(id string) func() {
	return func() { s.ack(id) }
}

func (s *Source) ack(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), ackTimeout)
	defer cancel()
	if err := s.store.Ack(ctx, s.stream, s.group, id); err != nil {
		s.logger.Warn("ack failed", zap.String("entry_id", id), zap.Error(err))
	}
}
