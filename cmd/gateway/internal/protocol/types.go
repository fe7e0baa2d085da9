package protocol

import "github.com/shubham-shewale/livemarket/pkg/models"

const (
	ActionSubscribe      = "subscribe"
	ActionUnsubscribe    = "unsubscribe"
	ActionUnsubscribeAll = "unsubscribe_all"

	ActionGainers    = "gainers"
	ActionLosers     = "losers"
	ActionMostActive = "most_active"
	ActionFeatured   = "featured"
	ActionQuote      = "quote"
	ActionPortfolio  = "portfolio"
)

const (
	TypeAck       = "ack"
	TypeError     = "error"
	TypeQuotes    = "quotes"
	TypePortfolio = "portfolio"
)

const DefaultCount = 5

type WSRequest struct {
	Action  string         `json:"action"`
	Payload RequestPayload `json:"payload"`
	ID      string         `json:"id,omitempty"`
}

type RequestPayload struct {
	Symbols  []string         `json:"symbols"`
	Count    int              `json:"count,omitempty"`
	Holdings []models.Holding `json:"holdings,omitempty"`
}

type WSResponse struct {
	Type    string      `json:"type"`             // "ack", "error", "quotes", "portfolio"
	ID      string      `json:"id,omitempty"`     // Matches request ID
	Status  string      `json:"status,omitempty"` // "success", "error"
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// QuoteView is a quote with the strings the market page shows.
type QuoteView struct {
	models.Quote
	PriceText  string `json:"price_text"`
	ChangeText string `json:"change_text"`
	VolumeText string `json:"volume_text"`
}

func NewQuoteView(q models.Quote) QuoteView {
	return QuoteView{
		Quote:      q,
		PriceText:  models.FormatPrice(q.Price),
		ChangeText: models.FormatChange(q.Change, q.ChangePercent),
		VolumeText: models.FormatVolume(q.Volume),
	}
}

func NewQuoteViews(quotes []models.Quote) []QuoteView {
	out := make([]QuoteView, len(quotes))
	for i, q := range quotes {
		out[i] = NewQuoteView(q)
	}
	return out
}
