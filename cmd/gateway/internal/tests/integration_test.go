package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket" // Using Gorilla for the test CLIENT
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shubham-shewale/livemarket/cmd/gateway/internal/gateway"
	"github.com/shubham-shewale/livemarket/cmd/gateway/internal/hub"
	"github.com/shubham-shewale/livemarket/cmd/gateway/internal/protocol"
	"github.com/shubham-shewale/livemarket/cmd/gateway/internal/repository"
	"github.com/shubham-shewale/livemarket/cmd/gateway/internal/testutils"
	"github.com/shubham-shewale/livemarket/pkg/models"
)

func startServer(t *testing.T, limiter repository.RateLimiter) (*httptest.Server, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := repository.NewRedisStore(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	wsHub := hub.NewHub(ctx, repo, zap.NewNop(), []string{"AAPL", "MSFT", "TSLA"}, []string{"TSLA", "AAPL"})

	server := httptest.NewServer(gateway.NewHandler(wsHub, limiter, zap.NewNop()))
	t.Cleanup(server.Close)

	return server, mr
}

func wsURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http")
}

func connectWS(t *testing.T, serverURL string) *websocket.Conn {
	wsConn, _, err := websocket.DefaultDialer.Dial(wsURL(serverURL), nil)
	if err != nil {
		t.Fatalf("Failed to connect to websocket: %v", err)
	}
	return wsConn
}

// seedQuote stores a quote the way the processor does.
func seedQuote(t *testing.T, mr *miniredis.Miniredis, q models.Quote) {
	t.Helper()
	b, err := json.Marshal(models.StockUpdate{Quote: q, FeedID: "feed-1", SeqID: 1})
	if err != nil {
		t.Fatal(err)
	}
	mr.Set(models.KeyPrefix+q.Symbol, string(b))
}

// seedBoard stores one tick's board the way the processor does.
func seedBoard(t *testing.T, mr *miniredis.Miniredis, quotes ...models.Quote) {
	t.Helper()
	b, err := json.Marshal(models.Board{FeedID: "feed-1", SeqID: 1, Quotes: quotes})
	if err != nil {
		t.Fatal(err)
	}
	mr.Set(models.BoardKey, string(b))
}

type quotesResponse struct {
	Type    string               `json:"type"`
	ID      string               `json:"id"`
	Message string               `json:"message"`
	Data    []protocol.QuoteView `json:"data"`
}

func request(t *testing.T, conn *websocket.Conn, msg string) quotesResponse {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	var resp quotesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("Bad response %s: %v", raw, err)
	}
	return resp
}

func symbols(views []protocol.QuoteView) string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Symbol
	}
	return strings.Join(out, ",")
}

func TestEndToEnd_FullFlow(t *testing.T) {
	server, mr := startServer(t, nil)

	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	subMsg := `{"action": "subscribe", "payload": {"symbols": ["aapl"]}, "id": "t1"}`
	wsConn.WriteMessage(websocket.TextMessage, []byte(subMsg))

	_, msg, _ := wsConn.ReadMessage()
	if !strings.Contains(string(msg), "success") {
		t.Errorf("Expected subscription success, got: %s", msg)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		mr.Publish(models.ChannelPrefix+"AAPL", `{"symbol":"AAPL","price":150.5}`)
	}()

	wsConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := wsConn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to receive broadcast: %v", err)
	}
	if !strings.Contains(string(msg), "150.5") {
		t.Errorf("Expected price 150.5, got: %s", msg)
	}

	unsubMsg := `{"action": "unsubscribe", "payload": {"symbols": ["AAPL"]}, "id": "t2"}`
	wsConn.WriteMessage(websocket.TextMessage, []byte(unsubMsg))

	_, msg, _ = wsConn.ReadMessage()
	if !strings.Contains(string(msg), "Unsubscribed") {
		t.Errorf("Expected unsubscribe ack, got: %s", msg)
	}
}

func TestEndToEnd_Rankings(t *testing.T) {
	server, mr := startServer(t, nil)
	aapl := models.Quote{Symbol: "AAPL", Price: 229.35, ChangePercent: 1.5, Volume: 87_000_000}
	msft := models.Quote{Symbol: "MSFT", Price: 522.04, ChangePercent: -0.4, Volume: 45_000_000}
	tsla := models.Quote{Symbol: "TSLA", Price: 428.50, ChangePercent: 0.29, Volume: 125_000_000}
	for _, q := range []models.Quote{aapl, msft, tsla} {
		seedQuote(t, mr, q)
	}
	seedBoard(t, mr, aapl, msft, tsla)

	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	resp := request(t, wsConn, `{"action":"gainers","payload":{"count":2},"id":"g"}`)
	if resp.Type != "quotes" || resp.ID != "g" {
		t.Fatalf("Unexpected response: %+v", resp)
	}
	if got := symbols(resp.Data); got != "AAPL,TSLA" {
		t.Errorf("Gainers: expected AAPL,TSLA, got %s", got)
	}

	resp = request(t, wsConn, `{"action":"losers","payload":{"count":1}}`)
	if got := symbols(resp.Data); got != "MSFT" {
		t.Errorf("Losers: expected MSFT, got %s", got)
	}

	resp = request(t, wsConn, `{"action":"most_active"}`)
	if got := symbols(resp.Data); got != "TSLA,AAPL,MSFT" {
		t.Errorf("Most active: expected TSLA,AAPL,MSFT, got %s", got)
	}
	if resp.Data[0].VolumeText != "Vol 125.0M" {
		t.Errorf("Expected display volume, got %q", resp.Data[0].VolumeText)
	}

	resp = request(t, wsConn, `{"action":"featured"}`)
	if got := symbols(resp.Data); got != "AAPL,TSLA" {
		t.Errorf("Featured: expected AAPL,TSLA, got %s", got)
	}

	resp = request(t, wsConn, `{"action":"quote","payload":{"symbols":["msft"]}}`)
	if len(resp.Data) != 1 || resp.Data[0].PriceText != "$522.04" {
		t.Errorf("Quote: unexpected %+v", resp.Data)
	}
}

func TestEndToEnd_RankingTiesKeepBoardOrder(t *testing.T) {
	server, mr := startServer(t, nil)
	seedBoard(t, mr,
		models.Quote{Symbol: "AAPL", ChangePercent: 1, Volume: 5},
		models.Quote{Symbol: "MSFT", ChangePercent: 1, Volume: 5},
	)

	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	resp := request(t, wsConn, `{"action":"gainers","payload":{"count":2}}`)
	if got := symbols(resp.Data); got != "AAPL,MSFT" {
		t.Errorf("Gainers tie: expected AAPL,MSFT, got %s", got)
	}
	resp = request(t, wsConn, `{"action":"most_active","payload":{"count":2}}`)
	if got := symbols(resp.Data); got != "AAPL,MSFT" {
		t.Errorf("Most active tie: expected AAPL,MSFT, got %s", got)
	}
}

func TestEndToEnd_RankingBeforeFirstTick(t *testing.T) {
	server, _ := startServer(t, nil)
	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	resp := request(t, wsConn, `{"action":"losers"}`)
	if resp.Type != "quotes" || len(resp.Data) != 0 {
		t.Errorf("Expected an empty ranking, got %+v", resp)
	}
}

func TestEndToEnd_Portfolio(t *testing.T) {
	server, mr := startServer(t, nil)
	seedQuote(t, mr, models.Quote{Symbol: "TSLA", Price: 428.50, Volume: 1})

	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	msg := `{"action":"portfolio","id":"p","payload":{"holdings":[{"symbol":"TSLA","shares":2,"avg_cost":400}]}}`
	wsConn.WriteMessage(websocket.TextMessage, []byte(msg))

	wsConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := wsConn.ReadMessage()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	var resp struct {
		Type string                    `json:"type"`
		Data models.PortfolioValuation `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("Bad response %s: %v", raw, err)
	}
	if resp.Type != "portfolio" {
		t.Fatalf("Expected portfolio, got %s", raw)
	}
	if resp.Data.TotalValue != 857 || resp.Data.TotalGain != 57 {
		t.Errorf("Unexpected valuation: %+v", resp.Data)
	}
}

func TestEndToEnd_UnknownAction(t *testing.T) {
	server, _ := startServer(t, nil)
	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	resp := request(t, wsConn, `{"action":"sell","id":"u"}`)
	if resp.Type != "error" || !strings.Contains(resp.Message, "sell") {
		t.Errorf("Expected unknown action error, got %+v", resp)
	}
}

func TestEndToEnd_InvalidJSON(t *testing.T) {
	server, _ := startServer(t, nil)
	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	wsConn.WriteMessage(websocket.TextMessage, []byte(`{ "action": "subsc`))

	_, msg, _ := wsConn.ReadMessage()
	if !strings.Contains(string(msg), "Invalid JSON") && !strings.Contains(string(msg), "error") {
		t.Errorf("Expected error message for bad JSON, got: %s", msg)
	}
}

func TestEndToEnd_MaxMessageSize(t *testing.T) {
	server, _ := startServer(t, nil)
	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	hugePayload := strings.Repeat("a", 513*1024)
	hugeMsg := fmt.Sprintf(`{"action":"subscribe", "payload": {"symbols": ["%s"]}}`, hugePayload)

	err := wsConn.WriteMessage(websocket.TextMessage, []byte(hugeMsg))
	// Depending on timing, write might succeed, but Read should fail (Disconnect)
	if err == nil {
		// Try to read response, expect connection closed error
		wsConn.SetReadDeadline(time.Now().Add(1 * time.Second))
		_, _, err := wsConn.ReadMessage()
		if err == nil {
			t.Error("Server should have closed connection for huge message, but it stayed open")
		}
	}
}

func TestEndToEnd_RateLimited(t *testing.T) {
	server, _ := startServer(t, &testutils.MockLimiter{Budget: 1})

	first := connectWS(t, server.URL)
	defer first.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server.URL), nil)
	if err == nil {
		t.Fatal("Second connection from the same IP should be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %+v", resp)
	}
}

func TestEndToEnd_IPRateLimiter(t *testing.T) {
	server, _ := startServer(t, repository.NewIPRateLimiter(0.001, 2))

	for i := 0; i < 2; i++ {
		conn := connectWS(t, server.URL)
		defer conn.Close()
	}

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server.URL), nil)
	if err == nil {
		t.Fatal("Burst exhausted, connection should be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %+v", resp)
	}
}
