package models

import (
	"cmp"
	"slices"
)

// Rankings sort a copy with a stable sort, so quotes with equal keys keep
// their input order. Boards and feed tables are in universe order.

func TopGainers(quotes []Quote, n int) []Quote {
	return ranked(quotes, n, func(a, b Quote) int {
		return cmp.Compare(b.ChangePercent, a.ChangePercent)
	})
}

func TopLosers(quotes []Quote, n int) []Quote {
	return ranked(quotes, n, func(a, b Quote) int {
		return cmp.Compare(a.ChangePercent, b.ChangePercent)
	})
}

func MostActive(quotes []Quote, n int) []Quote {
	return ranked(quotes, n, func(a, b Quote) int {
		return cmp.Compare(b.Volume, a.Volume)
	})
}

func ranked(quotes []Quote, n int, order func(a, b Quote) int) []Quote {
	if n <= 0 || len(quotes) == 0 {
		return []Quote{}
	}
	out := slices.Clone(quotes)
	slices.SortStableFunc(out, order)
	return out[:min(n, len(out))]
}

// Featured keeps the quotes whose symbol is listed, in input order. Unknown
// symbols are skipped and duplicates appear once.
func Featured(quotes []Quote, symbols []string) []Quote {
	want := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		want[s] = struct{}{}
	}

	out := []Quote{}
	for _, q := range quotes {
		if _, ok := want[q.Symbol]; ok {
			out = append(out, q)
		}
	}
	return out
}
