package processor

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shubham-shewale/livemarket/pkg/config"
	"github.com/shubham-shewale/livemarket/pkg/models"
)

const (
	snapshotTTL = 1 * time.Hour
	queueSize   = 100
)

// Logger is satisfied by *zap.Logger.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
}

// KafkaReader is the consuming half of *kafka.Reader. The caller owns Close.
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// RedisClient hands out the pipelines a worker flushes once per message.
type RedisClient interface {
	Pipeline() redis.Pipeliner
}

var (
	_ Logger      = (*zap.Logger)(nil)
	_ KafkaReader = (*kafka.Reader)(nil)
	_ RedisClient = (*redis.Client)(nil)
)

type Processor struct {
	cfg        *config.Config
	logger     Logger
	rdb        RedisClient
	reader     KafkaReader
	numWorkers int
}

func NewProcessor(cfg *config.Config, logger Logger, rdb RedisClient, reader KafkaReader) *Processor {
	return &Processor{
		cfg:        cfg,
		logger:     logger,
		rdb:        rdb,
		reader:     reader,
		numWorkers: cfg.Processor.NumWorkers,
	}
}

func (p *Processor) Run(ctx context.Context) error {
	workerChans := make([]chan kafka.Message, p.numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < p.numWorkers; i++ {
		workerChans[i] = make(chan kafka.Message, queueSize)
		wg.Add(1)
		go p.worker(i, workerChans[i], &wg)
	}

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		p.logger.Info("Processor Started", zap.Int("workers", p.numWorkers))
		for {
			m, err := p.reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				p.logger.Error("Kafka Read Error", zap.Error(err))
				continue
			}

			// Deterministic Sharding: Same symbol always goes to same worker
			workerID := getWorkerID(m.Key, p.numWorkers)

			select {
			case workerChans[workerID] <- m:
			case <-ctx.Done():
				return
			default:
				// latest beats all: a full queue drops the tick
				p.logger.Warn("Dropping slow packet", zap.String("key", string(m.Key)), zap.Int("worker_id", workerID))
			}
		}
	}()

	<-ctx.Done()
	p.logger.Info("Shutdown signal received, stopping processor...")

	// no sends may race the close below
	<-readerDone
	for _, ch := range workerChans {
		close(ch)
	}
	p.logger.Info("Waiting for workers to drain...")
	wg.Wait()

	return nil
}

// lastSeen tracks the newest message applied for a symbol, or for the board.
type lastSeen struct {
	feedID string
	seq    int64
}

// isStale reports whether a message is a duplicate or older than what was
// applied under key. A different feed id means the generator restarted and
// its sequence reset.
func isStale(seen map[string]lastSeen, key, feedID string, seq int64) bool {
	s, ok := seen[key]
	return ok && s.feedID == feedID && seq <= s.seq
}

func (p *Processor) worker(id int, msgs <-chan kafka.Message, wg *sync.WaitGroup) {
	defer wg.Done()
	ctx := context.Background() // in-flight pipelines finish during shutdown

	// Local state for deduplication (only works because of deterministic sharding)
	seen := make(map[string]lastSeen)

	for m := range msgs {
		if string(m.Key) == models.BoardMessageKey {
			p.handleBoard(ctx, seen, m.Value)
			continue
		}

		var update models.StockUpdate
		if err := json.Unmarshal(m.Value, &update); err != nil {
			p.logger.Error("JSON Unmarshal Error", zap.Error(err))
			continue
		}
		if update.Symbol == "" {
			p.logger.Warn("Update without symbol", zap.ByteString("payload", m.Value))
			continue
		}

		if isStale(seen, update.Symbol, update.FeedID, update.SeqID) {
			p.logger.Debug("Skipping duplicate update", zap.String("symbol", update.Symbol), zap.Int64("seq_id", update.SeqID))
			continue
		}

		if err := p.apply(ctx, update, m.Value); err != nil {
			p.logger.Error("Redis Pipeline Error", zap.Error(err), zap.String("symbol", update.Symbol))
			continue
		}

		p.logger.Debug("Processed", zap.String("symbol", update.Symbol), zap.Int("worker_id", id))
		seen[update.Symbol] = lastSeen{feedID: update.FeedID, seq: update.SeqID}
	}
}

// apply stores the snapshot and notifies subscribers in one pipeline.
func (p *Processor) apply(ctx context.Context, update models.StockUpdate, payload []byte) error {
	pipe := p.rdb.Pipeline()
	pipe.Set(ctx, models.KeyPrefix+update.Symbol, payload, snapshotTTL)
	pipe.Publish(ctx, models.ChannelPrefix+update.Symbol, payload)

	_, err := pipe.Exec(ctx)
	return err
}

// handleBoard replaces the stored board with a newer one. The board is written
// with a single SET so readers always see one whole tick.
func (p *Processor) handleBoard(ctx context.Context, seen map[string]lastSeen, payload []byte) {
	var board models.Board
	if err := json.Unmarshal(payload, &board); err != nil {
		p.logger.Error("Board Unmarshal Error", zap.Error(err))
		return
	}
	if len(board.Quotes) == 0 {
		p.logger.Warn("Empty board", zap.Int64("seq_id", board.SeqID))
		return
	}
	if isStale(seen, models.BoardMessageKey, board.FeedID, board.SeqID) {
		p.logger.Debug("Skipping stale board", zap.Int64("seq_id", board.SeqID))
		return
	}

	pipe := p.rdb.Pipeline()
	pipe.Set(ctx, models.BoardKey, payload, snapshotTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.Error("Redis Board Error", zap.Error(err))
		return
	}

	p.logger.Debug("Board stored", zap.Int64("seq_id", board.SeqID), zap.Int("quotes", len(board.Quotes)))
	seen[models.BoardMessageKey] = lastSeen{feedID: board.FeedID, seq: board.SeqID}
}

func getWorkerID(key []byte, numWorkers int) int {
	h := fnv.New32a()
	h.Write(key)
	return int(h.Sum32() % uint32(numWorkers))
}
