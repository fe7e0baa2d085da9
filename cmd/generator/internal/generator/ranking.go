package generator

import (
	"fmt"

	"github.com/shubham-shewale/livemarket/pkg/models"
)

// Rankings are recomputed from the current table on every call, using the
// shared comparators in models so the gateway orders boards the same way.

func (f *Feed) TopGainers(n int) []models.Quote { return models.TopGainers(f.Quotes(), n) }

func (f *Feed) TopLosers(n int) []models.Quote { return models.TopLosers(f.Quotes(), n) }

func (f *Feed) MostActive(n int) []models.Quote { return models.MostActive(f.Quotes(), n) }

// Featured filters the table to the given symbols, keeping table order.
// Unknown symbols are skipped. With no arguments the configured featured
// set is used.
func (f *Feed) Featured(symbols ...string) []models.Quote {
	if len(symbols) == 0 {
		symbols = f.featured
	}
	return models.Featured(f.Quotes(), symbols)
}

// Stock returns the latest quote for symbol, or ErrNotFound if the symbol is
// unknown or the feed has not ticked yet.
func (f *Feed) Stock(symbol string) (models.Quote, error) {
	i, known := f.index[symbol]

	f.mu.RLock()
	defer f.mu.RUnlock()

	if !known || f.quotes == nil {
		return models.Quote{}, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	return f.quotes[i], nil
}

// Lookup adapts Stock to models.QuoteLookup.
func (f *Feed) Lookup(symbol string) (models.Quote, bool) {
	q, err := f.Stock(symbol)
	return q, err == nil
}
