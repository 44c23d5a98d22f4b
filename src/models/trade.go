// src/models/trade.go
package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Trade sides. Confirmation emails only ever report executed buys and sells;
// there is no short/cover distinction in any supported source format.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// DefaultBroker is recorded when the source format carries no broker identity.
const DefaultBroker = "Unknown"

// Trade is the validated representation of one executed trade as extracted
// from a confirmation email. It is immutable after NewTrade returns: the
// derived TotalAmount is computed exactly once at construction and no field
// is mutated afterwards.
type Trade struct {
	Symbol      string    `json:"symbol"`
	StockName   string    `json:"stock_name,omitempty"`
	Side        string    `json:"side"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	TotalAmount float64   `json:"total_amount"`
	Date        time.Time `json:"date"`
	OrderID     string    `json:"order_id,omitempty"`
	Broker      string    `json:"broker"`
}

// TradeInput carries the raw field values a parser extracted.
// Zero values stand for "absent": TotalAmount 0 means derive from
// quantity*price, a zero Date means "now", an empty Broker means Unknown.
type TradeInput struct {
	Symbol      string
	StockName   string
	Side        string
	Quantity    float64
	Price       float64
	TotalAmount float64
	Date        time.Time
	OrderID     string
	Broker      string
}

// NewTrade is the single validating constructor for Trade. It normalizes the
// side, applies defaults and computes the derived total amount (rounded to
// 2 decimal places) when the source did not supply one explicitly.
func NewTrade(in TradeInput) (Trade, error) {
	symbol := strings.TrimSpace(in.Symbol)
	if symbol == "" {
		return Trade{}, fmt.Errorf("trade: symbol is required")
	}

	side := strings.ToUpper(strings.TrimSpace(in.Side))
	if side != SideBuy && side != SideSell {
		return Trade{}, fmt.Errorf("trade: invalid side %q", in.Side)
	}

	if in.Quantity <= 0 {
		return Trade{}, fmt.Errorf("trade: quantity must be positive, got %v", in.Quantity)
	}
	if in.Price <= 0 {
		return Trade{}, fmt.Errorf("trade: price must be positive, got %v", in.Price)
	}

	total := in.TotalAmount
	if total == 0 {
		total = math.Round(in.Quantity*in.Price*100) / 100
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	broker := strings.TrimSpace(in.Broker)
	if broker == "" {
		broker = DefaultBroker
	}

	return Trade{
		Symbol:      symbol,
		StockName:   strings.TrimSpace(in.StockName),
		Side:        side,
		Quantity:    in.Quantity,
		Price:       in.Price,
		TotalAmount: total,
		Date:        date,
		OrderID:     strings.TrimSpace(in.OrderID),
		Broker:      broker,
	}, nil
}
