package models

import (
	"github.com/shopspring/decimal"
)

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// FormatPrice renders a price as "$428.50".
func FormatPrice(price float64) string {
	return "$" + decimal.NewFromFloat(price).StringFixed(2)
}

// FormatChange renders "+1.23 (+0.29%)" or "-4.56 (-1.02%)".
func FormatChange(change, percent float64) string {
	sign := ""
	if change >= 0 {
		sign = "+"
	}
	return sign + decimal.NewFromFloat(change).StringFixed(2) +
		" (" + sign + decimal.NewFromFloat(percent).StringFixed(2) + "%)"
}

// FormatVolume renders "Vol 125.0M", "Vol 12.5K" or "Vol 999".
func FormatVolume(volume int64) string {
	v := decimal.NewFromInt(volume)
	switch {
	case volume >= 1_000_000:
		return "Vol " + v.Div(million).StringFixed(1) + "M"
	case volume >= 1_000:
		return "Vol " + v.Div(thousand).StringFixed(1) + "K"
	default:
		return "Vol " + v.String()
	}
}
