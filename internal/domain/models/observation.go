package models

import "time"

// Observation is one persisted price/market snapshot for one asset at one
// fetch timestamp. Records are append-only; a new cycle never rewrites an
// older row.
type Observation struct {
	Asset     string
	Price     float64
	MarketCap float64
	Change24h float64
	FetchedAt time.Time
}

// Quote is the normalized per-asset payload returned by a quote provider.
type Quote struct {
	Price     float64
	MarketCap float64
	Change24h float64
}

// Stats is the latest-snapshot view served on /stats.
type Stats struct {
	Price     float64 `json:"price"`
	MarketCap float64 `json:"marketCap"`
	Change24h float64 `json:"24hChange"`
}

// Deviation is the dispersion view served on /deviation.
type Deviation struct {
	Deviation float64 `json:"deviation"`
}
