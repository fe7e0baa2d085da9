package testutils

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shubham-shewale/livemarket/cmd/gateway/internal/protocol"
	"github.com/shubham-shewale/livemarket/pkg/models"
)

var ErrStoreDown = errors.New("store down")

// MockClient simulates a connected websocket client
type MockClient struct {
	IDVal    string
	Messages []protocol.WSResponse // Stores decoded JSON messages
	RawBytes []string              // Stores raw bytes
	Closed   bool
	Mu       sync.Mutex
}

func NewMockClient(id string) *MockClient {
	return &MockClient{IDVal: id, Messages: make([]protocol.WSResponse, 0)}
}

func (m *MockClient) ID() string { return m.IDVal }

func (m *MockClient) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
}

func (m *MockClient) SendJSON(v interface{}) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	// If it's a response, store it
	if resp, ok := v.(protocol.WSResponse); ok {
		m.Messages = append(m.Messages, resp)
	}
}

func (m *MockClient) SendBytes(b []byte) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.RawBytes = append(m.RawBytes, string(b))
}

func (m *MockClient) LastMsg() protocol.WSResponse {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if len(m.Messages) == 0 {
		return protocol.WSResponse{}
	}
	return m.Messages[len(m.Messages)-1]
}

func (m *MockClient) LastMsgType() string { return m.LastMsg().Type }

// MockPriceStore simulates Redis
type MockPriceStore struct {
	SubscribedChannels map[string]int // symbol -> count
	Quotes             map[string]models.Quote
	Board              *models.Board // nil before the first tick
	BoardCalls         int
	Fail               bool
	Mu                 sync.Mutex
}

func NewMockStore() *MockPriceStore {
	return &MockPriceStore{
		SubscribedChannels: make(map[string]int),
		Quotes:             make(map[string]models.Quote),
	}
}

func (m *MockPriceStore) GetSnapshots(ctx context.Context, symbols []string) ([]string, error) {
	quotes, err := m.GetQuotes(ctx, symbols)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, q := range quotes {
		b, _ := json.Marshal(models.StockUpdate{Quote: q})
		out = append(out, string(b))
	}
	return out, nil
}

func (m *MockPriceStore) GetQuotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Fail {
		return nil, ErrStoreDown
	}
	out := make([]models.Quote, 0, len(symbols))
	for _, s := range symbols {
		if q, ok := m.Quotes[s]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *MockPriceStore) GetBoard(ctx context.Context) (models.Board, bool, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.BoardCalls++
	if m.Fail {
		return models.Board{}, false, ErrStoreDown
	}
	if m.Board == nil {
		return models.Board{}, false, nil
	}
	return *m.Board, true, nil
}

func (m *MockPriceStore) SubscribeToFeed(ctx context.Context, symbol string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.SubscribedChannels[symbol]++
	return nil
}

func (m *MockPriceStore) UnsubscribeFromFeed(ctx context.Context, symbol string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.SubscribedChannels[symbol]--
	if m.SubscribedChannels[symbol] <= 0 {
		delete(m.SubscribedChannels, symbol)
	}
	return nil
}

func (m *MockPriceStore) RunPubSub(ctx context.Context, onMessage func(channel string, payload string)) {
	// No-op for unit tests
}

func (m *MockPriceStore) Close() error { return nil }

// MockLimiter admits the first Budget calls per IP.
type MockLimiter struct {
	Budget int
	Err    error
	Seen   map[string]int
	Mu     sync.Mutex
}

func (m *MockLimiter) Allow(ip string) (bool, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if m.Seen == nil {
		m.Seen = make(map[string]int)
	}
	m.Seen[ip]++
	return m.Seen[ip] <= m.Budget, nil
}

func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Errorf("Assertion failed: %s", msg)
	}
}
