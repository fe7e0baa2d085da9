package repository

import (
	"context"

	"github.com/shubham-shewale/livemarket/pkg/models"
)

type PriceStore interface {
	GetSnapshots(ctx context.Context, symbols []string) ([]string, error)
	GetQuotes(ctx context.Context, symbols []string) ([]models.Quote, error)
	// GetBoard returns the latest whole-tick board; ok is false before the first tick.
	GetBoard(ctx context.Context) (board models.Board, ok bool, err error)
	SubscribeToFeed(ctx context.Context, symbol string) error
	UnsubscribeFromFeed(ctx context.Context, symbol string) error
	RunPubSub(ctx context.Context, onMessage func(channel string, payload string))
	Close() error
}

type RateLimiter interface {
	Allow(ip string) (bool, error)
}
