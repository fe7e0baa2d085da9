package generator

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shubham-shewale/livemarket/pkg/models"
)

const (
	DefaultInterval = 3000 * time.Millisecond

	// maxMove bounds a single tick to ±5% of the current price.
	maxMove      = 0.05
	volumeJitter = 100_000
)

// Snapshot is the full quote table as of one tick.
type Snapshot struct {
	Seq       uint64
	FeedID    string
	UpdatedAt time.Time
	Quotes    []models.Quote
}

// TickListener receives every snapshot, in tick order.
type TickListener func(Snapshot)

// Clock is the Feed's only source of time, so tests can pin UpdatedAt.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// Rand drives the random walk. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// NewSeededRand returns a reproducible walk source. It is not safe for
// concurrent use; Feed only draws from it inside a tick.
func NewSeededRand(seed int64) Rand { return rand.New(rand.NewSource(seed)) }

type Option func(*Feed)

func WithClock(c Clock) Option { return func(f *Feed) { f.clock = c } }

func WithRand(r Rand) Option { return func(f *Feed) { f.rand = r } }

func WithLogger(l *zap.Logger) Option { return func(f *Feed) { f.logger = l } }

func WithInterval(d time.Duration) Option { return func(f *Feed) { f.interval = d } }

func WithFeedID(id string) Option { return func(f *Feed) { f.id = id } }

// WithFeatured replaces DefaultFeatured for Featured() calls without arguments.
func WithFeatured(symbols ...string) Option {
	return func(f *Feed) { f.featured = append([]string(nil), symbols...) }
}

// WithPriceFloor clamps reference prices to floor. Zero leaves the walk unbounded.
func WithPriceFloor(floor float64) Option { return func(f *Feed) { f.floor = floor } }

// Feed is a simulated market: a fixed universe of symbols whose prices take a
// bounded random walk every tick. All state is owned by the instance.
type Feed struct {
	id       string
	symbols  []Symbol
	index    map[string]int
	interval time.Duration
	floor    float64
	featured []string

	clock  Clock
	rand   Rand
	logger *zap.Logger

	mu        sync.RWMutex
	prices    []float64
	volumes   []int64
	quotes    []models.Quote // nil until the first tick
	seq       uint64
	updatedAt time.Time

	// tickMu serializes whole ticks, listener delivery included, and is
	// always taken before mu.
	tickMu    sync.Mutex
	listeners []TickListener
}

func NewFeed(symbols []Symbol, opts ...Option) (*Feed, error) {
	f := &Feed{
		id:       uuid.NewString(),
		interval: DefaultInterval,
		featured: append([]string(nil), DefaultFeatured...),
		clock:    SystemClock{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.rand == nil {
		f.rand = NewSeededRand(f.clock.Now().UnixNano())
	}

	if len(symbols) == 0 {
		return nil, configErr("symbols", ErrEmptyUniverse)
	}
	if f.interval <= 0 {
		return nil, configErr("interval", fmt.Errorf("%w: %s", ErrNonPositiveInterval, f.interval))
	}
	if f.floor < 0 || math.IsNaN(f.floor) {
		return nil, configErr("price_floor", fmt.Errorf("%w: %v", ErrNonPositivePrice, f.floor))
	}

	f.symbols = append([]Symbol(nil), symbols...)
	f.index = make(map[string]int, len(symbols))
	f.prices = make([]float64, len(symbols))
	f.volumes = make([]int64, len(symbols))

	for i, s := range f.symbols {
		if _, dup := f.index[s.Symbol]; dup {
			return nil, configErr("symbols", fmt.Errorf("%w: %s", ErrDuplicateSymbol, s.Symbol))
		}
		if !(s.SeedPrice > 0) || math.IsInf(s.SeedPrice, 0) {
			return nil, configErr("seed_price", fmt.Errorf("%w: %s=%v", ErrNonPositivePrice, s.Symbol, s.SeedPrice))
		}
		if s.SeedVolume < 0 {
			return nil, configErr("seed_volume", fmt.Errorf("%w: %s=%d", ErrNegativeVolume, s.Symbol, s.SeedVolume))
		}
		if s.SeedPrice < f.floor {
			return nil, configErr("seed_price", fmt.Errorf("%w: %s=%v < %v", ErrPriceBelowFloor, s.Symbol, s.SeedPrice, f.floor))
		}
		f.index[s.Symbol] = i
		f.prices[i] = s.SeedPrice
		f.volumes[i] = s.SeedVolume
	}

	return f, nil
}

func (f *Feed) ID() string              { return f.id }
func (f *Feed) Interval() time.Duration { return f.interval }
func (f *Feed) Symbols() []Symbol       { return append([]Symbol(nil), f.symbols...) }

// OnTick registers a listener. Listeners run on the ticking goroutine and
// must not call Tick or Refresh.
func (f *Feed) OnTick(l TickListener) {
	f.tickMu.Lock()
	defer f.tickMu.Unlock()
	f.listeners = append(f.listeners, l)
}

// Tick advances every symbol by one step of the random walk and replaces the
// quote table in a single critical section.
func (f *Feed) Tick() Snapshot {
	f.tickMu.Lock()
	defer f.tickMu.Unlock()

	f.mu.Lock()

	quotes := make([]models.Quote, len(f.symbols))
	for i, s := range f.symbols {
		prev := f.prices[i]
		delta := (f.rand.Float64() - 0.5) * 2 * maxMove * prev
		next := prev + delta
		if f.floor > 0 && next < f.floor {
			next = f.floor
			delta = next - prev
		}

		f.prices[i] = next
		f.volumes[i] += int64(f.rand.Intn(volumeJitter))

		quotes[i] = models.Quote{
			Symbol:        s.Symbol,
			Name:          s.Name,
			Sector:        s.Sector,
			Price:         next,
			Change:        delta,
			ChangePercent: delta / prev * 100,
			PreviousClose: prev,
			Volume:        f.volumes[i],
		}
	}

	f.quotes = quotes
	f.seq++
	f.updatedAt = f.clock.Now()
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.logger.Debug("Tick", zap.Uint64("seq", snap.Seq), zap.Int("symbols", len(snap.Quotes)))
	for _, l := range f.listeners {
		l(snap)
	}

	return snap
}

// Refresh forces a tick outside the schedule.
func (f *Feed) Refresh() Snapshot {
	return f.Tick()
}

// Snapshot returns a copy of the latest table. Seq is zero before the first tick.
func (f *Feed) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshotLocked()
}

func (f *Feed) Quotes() []models.Quote {
	return f.Snapshot().Quotes
}

func (f *Feed) LastUpdated() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.updatedAt
}

func (f *Feed) snapshotLocked() Snapshot {
	return Snapshot{
		Seq:       f.seq,
		FeedID:    f.id,
		UpdatedAt: f.updatedAt,
		Quotes:    append([]models.Quote{}, f.quotes...),
	}
}
