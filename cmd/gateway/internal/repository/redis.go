package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/shubham-shewale/livemarket/pkg/models"
)

// Compile-time check to ensure RedisStore implements PriceStore
var _ PriceStore = (*RedisStore)(nil)

type RedisStore struct {
	client *redis.Client
	pubsub *redis.PubSub
	mu     sync.Mutex // Protects subscribe/unsubscribe on pubsub
}

func NewRedisStore(client *redis.Client) *RedisStore {
	ps := client.Subscribe(context.Background())
	return &RedisStore{
		client: client,
		pubsub: ps,
	}
}

// GetSnapshots fetches the latest raw update for a list of symbols (MGET).
// Symbols without a stored update are skipped.
func (r *RedisStore) GetSnapshots(ctx context.Context, symbols []string) ([]string, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	keys := make([]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = models.KeyPrefix + sym
	}

	results, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var snapshots []string
	for _, val := range results {
		if payload, ok := val.(string); ok && payload != "" {
			snapshots = append(snapshots, payload)
		}
	}
	return snapshots, nil
}

// GetQuotes decodes the latest quotes in the order requested.
func (r *RedisStore) GetQuotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	snapshots, err := r.GetSnapshots(ctx, symbols)
	if err != nil {
		return nil, err
	}

	quotes := make([]models.Quote, 0, len(snapshots))
	for _, raw := range snapshots {
		var u models.StockUpdate
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		quotes = append(quotes, u.Quote)
	}
	return quotes, nil
}

// GetBoard reads the board the processor replaces on every tick.
func (r *RedisStore) GetBoard(ctx context.Context) (models.Board, bool, error) {
	raw, err := r.client.Get(ctx, models.BoardKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Board{}, false, nil
	}
	if err != nil {
		return models.Board{}, false, err
	}

	var board models.Board
	if err := json.Unmarshal(raw, &board); err != nil {
		return models.Board{}, false, fmt.Errorf("decode board: %w", err)
	}
	return board, true, nil
}

// SubscribeToFeed tells Redis we want to listen to this channel
func (r *RedisStore) SubscribeToFeed(ctx context.Context, symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.pubsub.Subscribe(ctx, models.ChannelPrefix+symbol)
}

// UnsubscribeFromFeed tells Redis to stop sending messages for this channel
func (r *RedisStore) UnsubscribeFromFeed(ctx context.Context, symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.pubsub.Unsubscribe(ctx, models.ChannelPrefix+symbol)
}

// RunPubSub is a blocking loop that reads messages from Redis and passes the
// symbol and raw payload to onMessage.
func (r *RedisStore) RunPubSub(ctx context.Context, onMessage func(channel string, payload string)) {
	ch := r.pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			symbol, found := strings.CutPrefix(msg.Channel, models.ChannelPrefix)
			if !found || symbol == "" {
				continue
			}
			onMessage(symbol, msg.Payload)
		}
	}
}

func (r *RedisStore) Close() error {
	if err := r.pubsub.Close(); err != nil {
		return err
	}
	return r.client.Close()
}
