package hub

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/shubham-shewale/livemarket/cmd/gateway/internal/protocol"
	"github.com/shubham-shewale/livemarket/cmd/gateway/internal/repository"
	"github.com/shubham-shewale/livemarket/pkg/models"
)

type ClientInterface interface {
	ID() string
	SendJSON(v interface{})
	SendBytes(b []byte)
	Close()
}

type Hub struct {
	subscribers map[string]map[ClientInterface]bool
	clientSubs  map[ClientInterface]map[string]bool

	store    repository.PriceStore
	logger   *zap.Logger
	mu       sync.RWMutex
	refCount map[string]int

	universe []string       // tickers in display order
	position map[string]int // ticker -> index in universe
	featured []string
}

// NewHub starts relaying Redis pub/sub until ctx is cancelled. universe is the
// set of valid tickers; featured is the default featured list.
func NewHub(ctx context.Context, store repository.PriceStore, logger *zap.Logger, universe, featured []string) *Hub {
	h := &Hub{
		subscribers: make(map[string]map[ClientInterface]bool),
		clientSubs:  make(map[ClientInterface]map[string]bool),
		store:       store,
		logger:      logger,
		refCount:    make(map[string]int),
		universe:    append([]string(nil), universe...),
		position:    make(map[string]int, len(universe)),
	}
	for i, sym := range universe {
		h.position[sym] = i
	}
	h.featured = h.known(featured)

	go h.store.RunPubSub(ctx, h.Broadcast)

	return h
}

func (h *Hub) HandleCommand(client ClientInterface, req protocol.WSRequest) {
	switch req.Action {
	case protocol.ActionSubscribe:
		h.handleSubscribe(client, req)
	case protocol.ActionUnsubscribe:
		h.handleUnsubscribe(client, req)
	case protocol.ActionUnsubscribeAll:
		h.handleUnsubscribeAll(client, req)
	case protocol.ActionGainers:
		h.handleRanking(client, req, models.TopGainers)
	case protocol.ActionLosers:
		h.handleRanking(client, req, models.TopLosers)
	case protocol.ActionMostActive:
		h.handleRanking(client, req, models.MostActive)
	case protocol.ActionFeatured:
		h.handleFeatured(client, req)
	case protocol.ActionQuote:
		h.handleQuote(client, req)
	case protocol.ActionPortfolio:
		h.handlePortfolio(client, req)
	default:
		h.sendError(client, req.ID, "Unknown action: "+req.Action)
	}
}

func (h *Hub) handleSubscribe(client ClientInterface, req protocol.WSRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var valid []string
	for _, s := range req.Payload.Symbols {
		if _, ok := h.position[s]; ok {
			// Idempotency: Ignore if already subscribed
			if h.clientSubs[client] != nil && h.clientSubs[client][s] {
				continue
			}
			valid = append(valid, s)
		}
	}

	if len(valid) == 0 {
		h.sendError(client, req.ID, "No valid/new symbols provided")
		return
	}

	if h.clientSubs[client] == nil {
		h.clientSubs[client] = make(map[string]bool)
	}

	for _, sym := range valid {
		h.clientSubs[client][sym] = true
		if h.subscribers[sym] == nil {
			h.subscribers[sym] = make(map[ClientInterface]bool)
		}
		h.subscribers[sym][client] = true

		// Manage upstream subscription (Ref counting)
		h.refCount[sym]++
		if h.refCount[sym] == 1 {
			if err := h.store.SubscribeToFeed(context.Background(), sym); err != nil {
				h.logger.Error("Failed to subscribe upstream", zap.String("symbol", sym), zap.Error(err))
			}
		}
	}

	h.sendAck(client, req.ID, "success", fmt.Sprintf("Subscribed to %v", valid))

	// Send Snapshots (Async to avoid blocking lock)
	go func(targets []string) {
		snapshots, err := h.store.GetSnapshots(context.Background(), targets)
		if err != nil {
			h.logger.Warn("Snapshot lookup failed", zap.Strings("symbols", targets), zap.Error(err))
			return
		}
		for _, snap := range snapshots {
			client.SendBytes([]byte(snap))
		}
	}(valid)
}

func (h *Hub) handleUnsubscribe(client ClientInterface, req protocol.WSRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var removed []string
	if subs, ok := h.clientSubs[client]; ok {
		for _, sym := range req.Payload.Symbols {
			if subs[sym] {
				delete(subs, sym)
				delete(h.subscribers[sym], client)
				removed = append(removed, sym)
				h.decreaseRefCount(sym)
			}
		}
	}

	if len(removed) > 0 {
		h.sendAck(client, req.ID, "success", fmt.Sprintf("Unsubscribed from %v", removed))
	} else {
		h.sendError(client, req.ID, fmt.Sprintf("Not subscribed to: %v", req.Payload.Symbols))
	}
}

func (h *Hub) handleUnsubscribeAll(client ClientInterface, req protocol.WSRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.clientSubs[client]; ok {
		for sym := range subs {
			delete(h.subscribers[sym], client)
			h.decreaseRefCount(sym)
		}
		// Clear the map but keep the client registered
		h.clientSubs[client] = make(map[string]bool)
	}
	h.sendAck(client, req.ID, "success", "Unsubscribed from all symbols")
}

// handleRanking ranks the latest board, so one response never mixes ticks.
func (h *Hub) handleRanking(client ClientInterface, req protocol.WSRequest, rank func([]models.Quote, int) []models.Quote) {
	n := req.Payload.Count
	switch {
	case n < 0:
		h.sendError(client, req.ID, fmt.Sprintf("Invalid count: %d", n))
		return
	case n == 0:
		n = protocol.DefaultCount
	}

	board, ok := h.board(client, req)
	if !ok {
		return
	}
	h.sendQuotes(client, req, rank(board.Quotes, n))
}

// handleFeatured filters the latest board, keeping board order and dropping
// unknown symbols.
func (h *Hub) handleFeatured(client ClientInterface, req protocol.WSRequest) {
	symbols := h.featured
	if len(req.Payload.Symbols) > 0 {
		symbols = h.known(req.Payload.Symbols)
	}

	board, ok := h.board(client, req)
	if !ok {
		return
	}
	h.sendQuotes(client, req, models.Featured(board.Quotes, symbols))
}

// board loads the latest board. Before the first tick it is empty. On a store
// error the client gets an error response and ok is false.
func (h *Hub) board(client ClientInterface, req protocol.WSRequest) (models.Board, bool) {
	board, _, err := h.store.GetBoard(context.Background())
	if err != nil {
		h.logger.Error("Board lookup failed", zap.String("action", req.Action), zap.Error(err))
		h.sendError(client, req.ID, "Market data unavailable")
		return models.Board{}, false
	}
	return board, true
}

func (h *Hub) handleQuote(client ClientInterface, req protocol.WSRequest) {
	if len(req.Payload.Symbols) == 0 {
		h.sendError(client, req.ID, "No symbol provided")
		return
	}
	sym := req.Payload.Symbols[0]
	if _, ok := h.position[sym]; !ok {
		h.sendError(client, req.ID, "Unknown symbol: "+sym)
		return
	}

	quotes, err := h.store.GetQuotes(context.Background(), []string{sym})
	if err != nil {
		h.logger.Error("Quote lookup failed", zap.String("symbol", sym), zap.Error(err))
		h.sendError(client, req.ID, "Quote unavailable")
		return
	}
	if len(quotes) == 0 {
		h.sendError(client, req.ID, "No quote yet for "+sym)
		return
	}
	h.sendQuotes(client, req, quotes)
}

func (h *Hub) handlePortfolio(client ClientInterface, req protocol.WSRequest) {
	holdings := req.Payload.Holdings
	if len(holdings) == 0 {
		h.sendError(client, req.ID, "No holdings provided")
		return
	}

	symbols := make([]string, 0, len(holdings))
	for i := range holdings {
		sym := strings.ToUpper(strings.TrimSpace(holdings[i].Symbol))
		if _, ok := h.position[sym]; !ok {
			h.sendError(client, req.ID, "Unknown symbol: "+holdings[i].Symbol)
			return
		}
		holdings[i].Symbol = sym
		symbols = append(symbols, sym)
	}

	quotes, err := h.store.GetQuotes(context.Background(), symbols)
	if err != nil {
		h.logger.Error("Portfolio lookup failed", zap.Error(err))
		h.sendError(client, req.ID, "Portfolio valuation unavailable")
		return
	}

	live := make(map[string]models.Quote, len(quotes))
	for _, q := range quotes {
		live[q.Symbol] = q
	}
	valuation := models.ValuePortfolio(holdings, func(sym string) (models.Quote, bool) {
		q, ok := live[sym]
		return q, ok
	})

	client.SendJSON(protocol.WSResponse{
		Type:   protocol.TypePortfolio,
		ID:     req.ID,
		Status: "success",
		Data:   valuation,
	})
}

func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.clientSubs[client]; ok {
		for sym := range subs {
			delete(h.subscribers[sym], client)
			h.decreaseRefCount(sym)
		}
		delete(h.clientSubs, client)
	}
	client.Close()
}

func (h *Hub) Broadcast(symbol string, payload string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.subscribers[symbol]; ok {
		msgBytes := []byte(payload)
		for client := range clients {
			client.SendBytes(msgBytes)
		}
	}
}

// Subscribers reports how many clients watch a symbol.
func (h *Hub) Subscribers(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[symbol])
}

func (h *Hub) decreaseRefCount(symbol string) {
	h.refCount[symbol]--
	if h.refCount[symbol] <= 0 {
		if err := h.store.UnsubscribeFromFeed(context.Background(), symbol); err != nil {
			h.logger.Error("Failed to unsubscribe upstream", zap.String("symbol", symbol), zap.Error(err))
		}
		delete(h.refCount, symbol)
		delete(h.subscribers, symbol)
	}
}

// known filters symbols to the universe, deduplicated, in universe order.
func (h *Hub) known(symbols []string) []string {
	seen := make([]bool, len(h.universe))
	for _, s := range symbols {
		if i, ok := h.position[s]; ok {
			seen[i] = true
		}
	}
	out := make([]string, 0, len(symbols))
	for i, ok := range seen {
		if ok {
			out = append(out, h.universe[i])
		}
	}
	return out
}

func (h *Hub) sendQuotes(c ClientInterface, req protocol.WSRequest, quotes []models.Quote) {
	c.SendJSON(protocol.WSResponse{
		Type:    protocol.TypeQuotes,
		ID:      req.ID,
		Status:  "success",
		Message: req.Action,
		Data:    protocol.NewQuoteViews(quotes),
	})
}

func (h *Hub) sendAck(c ClientInterface, id, status, msg string) {
	c.SendJSON(protocol.WSResponse{Type: protocol.TypeAck, ID: id, Status: status, Message: msg})
}

func (h *Hub) sendError(c ClientInterface, id, msg string) {
	c.SendJSON(protocol.WSResponse{Type: protocol.TypeError, ID: id, Status: "error", Message: msg})
}
