package config

import "github.com/shopspring/decimal"

type AppConfig struct {
	BaseCurrencyName   string             `yaml:"base-currency"`
	CurrencyRates      map[string]float64 `yaml:"currency-rates"`
	User               int64              `yaml:"user-id"`
	RunIntervalMinutes int64              `yaml:"run-interval-minutes"`
	MetricsAddress     string             `yaml:"metrics-addr"`
}

func (s *AppConfig) BaseCurrency() string {
	return s.BaseCurrencyName
}

// Rates is the fixed code-to-base-rate mapping. The base currency is always
// present with rate 1, whatever the file says.
func (s *AppConfig) Rates() map[string]decimal.Decimal {
	res := make(map[string]decimal.Decimal, len(s.CurrencyRates)+1)
	for code, rate := range s.CurrencyRates {
		res[code] = decimal.NewFromFloat(rate)
	}
	res[s.BaseCurrencyName] = decimal.NewFromInt(1)
	return res
}

func (s *AppConfig) UserID() int64 {
	return s.User
}

func (s *AppConfig) IntervalMinutes() int64 {
	return s.RunIntervalMinutes
}

func (s *AppConfig) MetricsAddr() string {
	return s.MetricsAddress
}
