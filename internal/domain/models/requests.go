package models

// StatsRequest binds the /stats query string.
type StatsRequest struct {
	Coin string `query:"coin" validate:"required"`
}

// DeviationRequest binds the /deviation query string. Limit bounds the
// recent-price window used for the standard deviation.
type DeviationRequest struct {
	Coin  string `query:"coin" validate:"required"`
	Limit int    `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}
