package models

// Instrument describes one tracked symbol and its starting state.
type Instrument struct {
	Symbol     string
	Name       string
	Sector     string
	SeedPrice  float64
	SeedVolume int64
}

// DefaultFeatured is the featured set used when none is configured.
var DefaultFeatured = []string{"TSLA", "AAPL", "MSFT", "GOOGL"}

// DefaultUniverse returns a fresh copy of the stock list the market page ships with.
func DefaultUniverse() []Instrument {
	return []Instrument{
		{"TSLA", "Tesla, Inc.", "Automotive", 428.50, 125_000_000},
		{"AAPL", "Apple Inc.", "Technology", 229.35, 87_000_000},
		{"MSFT", "Microsoft Corporation", "Technology", 522.04, 45_000_000},
		{"GOOGL", "Alphabet Inc.", "Technology", 201.42, 32_000_000},
		{"NVDA", "NVIDIA Corporation", "Technology", 875.25, 98_000_000},
		{"AMZN", "Amazon.com, Inc.", "E-Commerce", 225.80, 56_000_000},
		{"META", "Meta Platforms, Inc.", "Technology", 612.45, 42_000_000},
		{"JPM", "JPMorgan Chase & Co.", "Financial", 245.30, 28_000_000},
		{"V", "Visa Inc.", "Financial", 318.75, 18_000_000},
		{"WMT", "Walmart Inc.", "Retail", 175.20, 22_000_000},
		{"TMO", "Thermo Fisher Scientific", "Healthcare", 585.40, 15_000_000},
		{"PYPL", "PayPal Holdings, Inc.", "Financial", 72.85, 35_000_000},
		{"CVS", "CVS Health Corporation", "Healthcare", 58.25, 19_000_000},
		{"VZ", "Verizon Communications", "Telecom", 42.30, 24_000_000},
		{"HON", "Honeywell International", "Industrial", 215.60, 12_000_000},
		{"NEE", "NextEra Energy, Inc.", "Utilities", 78.45, 11_000_000},
		{"GS", "The Goldman Sachs Group", "Financial", 605.20, 9_000_000},
		{"HD", "The Home Depot, Inc.", "Retail", 425.80, 14_000_000},
		{"DIS", "The Walt Disney Company", "Entertainment", 118.95, 21_000_000},
		{"FTNT", "Fortinet, Inc.", "Technology", 98.75, 8_000_000},
		{"WFC", "Wells Fargo & Company", "Financial", 78.40, 26_000_000},
		{"ABNB", "Airbnb, Inc.", "Travel", 156.80, 17_000_000},
	}
}

// Tickers lists the symbol keys in universe order.
func Tickers(instruments []Instrument) []string {
	out := make([]string, len(instruments))
	for i, s := range instruments {
		out[i] = s.Symbol
	}
	return out
}
