package models

// Quote is one symbol's row in a tick snapshot
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Sector        string  `json:"sector"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	PreviousClose float64 `json:"previous_close"`
	Volume        int64   `json:"volume"`
}

// StockUpdate represents a single market tick for a stock symbol
type StockUpdate struct {
	Quote
	FeedID    string `json:"feed_id"`   // changes when the generator restarts
	Timestamp int64  `json:"timestamp"` // unix micro
	SeqID     int64  `json:"seq_id"`    // monotonic counter per symbol
}

// Board is the whole quote table as of one tick, in universe order. Rankings
// computed from one Board never mix ticks.
type Board struct {
	FeedID    string  `json:"feed_id"`
	Timestamp int64   `json:"timestamp"` // unix micro
	SeqID     int64   `json:"seq_id"`    // feed tick counter
	Quotes    []Quote `json:"quotes"`
}
