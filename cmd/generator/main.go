package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shubham-shewale/livemarket/cmd/generator/internal/generator"
	"github.com/shubham-shewale/livemarket/pkg/config"
	"github.com/shubham-shewale/livemarket/pkg/models"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize Zap Logger
	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 3. Create Topic (Ensure it exists)
	clock := generator.SystemClock{}
	tc := generator.NewTopicCreator(logger, generator.NewKafkaDialer(kafka.DefaultDialer), clock)
	if err := tc.Create(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic); err != nil {
		logger.Warn("Topic not confirmed, publishing anyway", zap.Error(err))
	}

	// 4. Setup Kafka Writer
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.Topic,
		Balancer: &kafka.Hash{}, // same symbol, same partition
		// One tick is one batch: every quote plus the board
		BatchSize:    len(generator.DefaultUniverse()) + 1,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
	}

	// 5. Build the Feed
	opts := []generator.Option{
		generator.WithLogger(logger),
		generator.WithClock(clock),
		generator.WithInterval(time.Duration(cfg.Feed.IntervalMS) * time.Millisecond),
		generator.WithPriceFloor(cfg.Feed.PriceFloor),
	}
	if len(cfg.Feed.Featured) > 0 {
		opts = append(opts, generator.WithFeatured(cfg.Feed.Featured...))
	}
	feed, err := generator.NewFeed(generator.DefaultUniverse(), opts...)
	if err != nil {
		logger.Fatal("Invalid feed configuration", zap.Error(err))
	}
	feed.OnTick(generator.NewPublisher(logger, writer).Listener(ctx))
	if logger.Core().Enabled(zap.DebugLevel) {
		feed.OnTick(func(snap generator.Snapshot) {
			logger.Debug("Market leaders",
				zap.Uint64("seq", snap.Seq),
				zap.Strings("gainers", symbolsOf(feed.TopGainers(3))),
				zap.Strings("losers", symbolsOf(feed.TopLosers(3))),
				zap.Strings("most_active", symbolsOf(feed.MostActive(3))),
			)
		})
	}

	// 6. Start ticking
	sched := generator.NewScheduler(feed, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	logger.Info("Generator Started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.Strings("tickers", generator.Tickers(feed.Symbols())),
	)

	// 7. Wait for Shutdown Signal
	<-ctx.Done()
	logger.Info("Shutdown signal received")
	<-sched.Stop().Done()

	// 8. Flush Kafka Buffer
	if err := writer.Close(); err != nil {
		logger.Error("Error closing Kafka writer", zap.Error(err))
	} else {
		logger.Info("Kafka writer closed cleanly")
	}
}

func symbolsOf(quotes []models.Quote) []string {
	out := make([]string, len(quotes))
	for i, q := range quotes {
		out[i] = q.Symbol
	}
	return out
}
