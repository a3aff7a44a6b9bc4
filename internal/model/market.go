package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WatchEntry is one (symbol, exchange) pair on the watchlist.
type WatchEntry struct {
	Symbol   string `yaml:"symbol" json:"symbol"`
	Exchange string `yaml:"exchange" json:"exchange"`
}

// ChangeUnavailable is recorded when the change element cannot be found.
const ChangeUnavailable = "N/A"

// Observation is a single scraped quote.
type Observation struct {
	CapturedAt  time.Time       `json:"captured_at"`
	Symbol      string          `json:"symbol"`
	Exchange    string          `json:"exchange"`
	CompanyName string          `json:"company_name"`
	Price       decimal.Decimal `json:"price"`
	Change      string          `json:"change"`
}
