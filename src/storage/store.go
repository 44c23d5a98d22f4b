// src/storage/store.go
package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	"github.com/username/tradefolio/src/logger"
	"github.com/username/tradefolio/src/models"
	"github.com/username/tradefolio/src/security/validation"
)

// timeLayout is the format trade timestamps are stored and displayed in.
const timeLayout = "2006-01-02 15:04:05"

// LedgerHeaders is the column layout of the ledger grid, mirroring the
// spreadsheet sheet the bot historically appended to. Rows() emits it as
// row zero and the portfolio aggregator resolves columns against it.
var LedgerHeaders = []string{
	"Trade Time", "Stock Code", "Stock Name", "Action",
	"Shares", "Unit Price", "Total Amount", "Order ID", "Broker",
}

// TradeStore is the append-only trade ledger. Deduplication state (the set
// of order ids already recorded) is explicit per-store, primed once from the
// database via LoadOrderIDs rather than kept as ambient global state.
type TradeStore struct {
	db *sql.DB

	mu           sync.Mutex
	seenOrderIDs map[string]struct{}
}

func NewTradeStore(db *sql.DB) *TradeStore {
	return &TradeStore{
		db:           db,
		seenOrderIDs: make(map[string]struct{}),
	}
}

// LoadOrderIDs primes the duplicate-check set from the persisted ledger.
func (s *TradeStore) LoadOrderIDs() error {
	rows, err := s.db.Query(`SELECT order_id FROM trades WHERE order_id <> ''`)
	if err != nil {
		return fmt.Errorf("load order ids: %w", err)
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan order id: %w", err)
		}
		s.seenOrderIDs[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order ids: %w", err)
	}

	logger.L.Info("Loaded existing order IDs", "count", len(s.seenOrderIDs))
	return nil
}

// AppendTrade records one trade. It returns false (and no error) when the
// trade's order id has been recorded before.
func (s *TradeStore) AppendTrade(trade models.Trade) (bool, error) {
	s.mu.Lock()
	if trade.OrderID != "" {
		if _, dup := s.seenOrderIDs[trade.OrderID]; dup {
			s.mu.Unlock()
			return false, nil
		}
	}
	s.mu.Unlock()

	// Free-text fields come from untrusted email markup; strip any HTML and
	// guard against spreadsheet formula injection before persisting.
	name := validation.SanitizeForFormulaInjection(
		validation.SanitizeText(validation.StripUnprintable(trade.StockName)))

	_, err := s.db.Exec(
		`INSERT INTO trades (trade_time, stock_code, stock_name, action, shares, unit_price, total_amount, order_id, broker)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.Date.Format(timeLayout),
		validation.SanitizeText(trade.Symbol),
		name,
		trade.Side,
		trade.Quantity,
		trade.Price,
		trade.TotalAmount,
		validation.SanitizeText(trade.OrderID),
		validation.SanitizeText(trade.Broker),
	)
	if err != nil {
		return false, fmt.Errorf("insert trade %s/%s: %w", trade.Symbol, trade.OrderID, err)
	}

	if trade.OrderID != "" {
		s.mu.Lock()
		s.seenOrderIDs[trade.OrderID] = struct{}{}
		s.mu.Unlock()
	}

	logger.L.Info("Recorded trade", "symbol", trade.Symbol, "name", trade.StockName, "side", trade.Side)
	return true, nil
}

// AppendTrades records a batch, skipping duplicates, and returns how many
// rows were actually inserted.
func (s *TradeStore) AppendTrades(trades []models.Trade) (int, error) {
	inserted := 0
	for _, trade := range trades {
		ok, err := s.AppendTrade(trade)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

// Rows returns the ledger grid: the header row followed by one row per
// trade in insertion order, every value rendered as text. This is the shape
// the portfolio aggregator consumes.
func (s *TradeStore) Rows() ([][]string, error) {
	rows, err := s.db.Query(
		`SELECT trade_time, stock_code, stock_name, action, shares, unit_price, total_amount, order_id, broker
		 FROM trades ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	grid := [][]string{LedgerHeaders}
	for rows.Next() {
		var tradeTime, code, name, action, orderID, broker string
		var shares, price, amount float64
		if err := rows.Scan(&tradeTime, &code, &name, &action, &shares, &price, &amount, &orderID, &broker); err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		grid = append(grid, []string{
			tradeTime, code, name, action,
			formatNumber(shares), formatNumber(price), formatNumber(amount),
			orderID, broker,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return grid, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
