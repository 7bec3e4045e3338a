package currency

import "github.com/shopspring/decimal"

// Codes the configuration may map to a base rate.
const (
	CZK = "CZK"
	EUR = "EUR"
	USD = "USD"
)

// One is the rate on entries the application creates itself: always the base
// currency, never converted.
var One = decimal.NewFromInt(1)
