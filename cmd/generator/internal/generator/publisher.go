package generator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shubham-shewale/livemarket/pkg/models"
)

// KafkaWriter is the part of *kafka.Writer the publisher needs.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ KafkaWriter = (*kafka.Writer)(nil)

// Publisher writes every quote of a snapshot to Kafka, keyed by symbol so a
// symbol's updates stay on one partition, followed by the whole snapshot as
// one Board message.
type Publisher struct {
	logger *zap.Logger
	writer KafkaWriter
}

func NewPublisher(logger *zap.Logger, writer KafkaWriter) *Publisher {
	return &Publisher{logger: logger, writer: writer}
}

func (p *Publisher) Publish(ctx context.Context, snap Snapshot) error {
	if len(snap.Quotes) == 0 {
		return nil
	}

	ts := snap.UpdatedAt.UnixMicro()
	msgs := make([]kafka.Message, 0, len(snap.Quotes)+1)
	for _, q := range snap.Quotes {
		update := models.StockUpdate{
			Quote:     q,
			FeedID:    snap.FeedID,
			Timestamp: ts,
			SeqID:     int64(snap.Seq), // every tick moves every symbol
		}

		payload, err := json.Marshal(update)
		if err != nil {
			p.logger.Error("JSON Marshal Error", zap.String("symbol", q.Symbol), zap.Error(err))
			continue
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(q.Symbol),
			Value: payload,
		})
	}

	board, err := json.Marshal(models.Board{
		FeedID:    snap.FeedID,
		Timestamp: ts,
		SeqID:     int64(snap.Seq),
		Quotes:    snap.Quotes,
	})
	if err != nil {
		return fmt.Errorf("encode board %d: %w", snap.Seq, err)
	}
	msgs = append(msgs, kafka.Message{Key: []byte(models.BoardMessageKey), Value: board})

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish tick %d: %w", snap.Seq, err)
	}

	p.logger.Debug("Sent tick", zap.Uint64("seq", snap.Seq), zap.Int("messages", len(msgs)))
	return nil
}

// Listener adapts Publish for Feed.OnTick. Write errors are logged, never fatal.
func (p *Publisher) Listener(ctx context.Context) TickListener {
	return func(snap Snapshot) {
		if err := p.Publish(ctx, snap); err != nil {
			p.logger.Error("Kafka Write Error", zap.Error(err))
		}
	}
}
