package generator

import "github.com/shubham-shewale/livemarket/pkg/models"

// Symbol is one tracked instrument with its seed price and volume.
type Symbol = models.Instrument

var DefaultFeatured = models.DefaultFeatured

func DefaultUniverse() []Symbol { return models.DefaultUniverse() }

func Tickers(symbols []Symbol) []string { return models.Tickers(symbols) }
