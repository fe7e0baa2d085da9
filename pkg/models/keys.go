package models

// Redis layout shared by the processor (writer) and the gateway (reader).
const (
	KeyPrefix     = "stock:"  // latest StockUpdate JSON per symbol
	ChannelPrefix = "prices." // pub/sub channel per symbol

	BoardKey = "market:board" // latest Board JSON, replaced whole each tick
)

// BoardMessageKey is the Kafka key of per-tick Board messages. Tickers never
// start with an underscore.
const BoardMessageKey = "_board"
