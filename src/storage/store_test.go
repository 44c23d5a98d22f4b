package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/username/tradefolio/src/logger"
	"github.com/username/tradefolio/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// newTestDB opens an in-memory database and applies the trades migration.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "db", "migrations", "000001_create_trades_table.up.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	for _, stmt := range strings.Split(string(schema), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("apply migration statement: %v", err)
		}
	}
	return db
}

func testTrade(t *testing.T, orderID string) models.Trade {
	t.Helper()
	trade, err := models.NewTrade(models.TradeInput{
		Symbol:    "2344",
		StockName: "華邦電",
		Side:      "SELL",
		Quantity:  50,
		Price:     117,
		Date:      time.Date(2026, 1, 19, 9, 40, 5, 0, time.UTC),
		OrderID:   orderID,
		Broker:    "Fubon Securities (富邦證券)",
	})
	if err != nil {
		t.Fatalf("build test trade: %v", err)
	}
	return trade
}

func TestAppendTradeDeduplicatesByOrderID(t *testing.T) {
	store := NewTradeStore(newTestDB(t))

	inserted, err := store.AppendTrade(testTrade(t, "ABC123"))
	if err != nil {
		t.Fatalf("first append: %v", err)
	}
	if !inserted {
		t.Fatal("Expected first append to insert")
	}

	inserted, err = store.AppendTrade(testTrade(t, "ABC123"))
	if err != nil {
		t.Fatalf("duplicate append: %v", err)
	}
	if inserted {
		t.Error("Expected duplicate order id to be skipped")
	}
}

func TestAppendTradeAllowsEmptyOrderIDs(t *testing.T) {
	store := NewTradeStore(newTestDB(t))

	for i := 0; i < 2; i++ {
		inserted, err := store.AppendTrade(testTrade(t, ""))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if !inserted {
			t.Errorf("Expected append %d without order id to insert", i)
		}
	}
}

func TestLoadOrderIDsPrimesDedupSet(t *testing.T) {
	db := newTestDB(t)

	first := NewTradeStore(db)
	if _, err := first.AppendTrade(testTrade(t, "ABC123")); err != nil {
		t.Fatalf("seed trade: %v", err)
	}

	second := NewTradeStore(db)
	if err := second.LoadOrderIDs(); err != nil {
		t.Fatalf("load order ids: %v", err)
	}

	inserted, err := second.AppendTrade(testTrade(t, "ABC123"))
	if err != nil {
		t.Fatalf("append after reload: %v", err)
	}
	if inserted {
		t.Error("Expected persisted order id to deduplicate after reload")
	}
}

func TestRowsReturnsLedgerGridInInsertionOrder(t *testing.T) {
	store := NewTradeStore(newTestDB(t))

	if _, err := store.AppendTrade(testTrade(t, "A1")); err != nil {
		t.Fatal(err)
	}
	buy, err := models.NewTrade(models.TradeInput{
		Symbol:   "2330",
		Side:     "BUY",
		Quantity: 1000,
		Price:    600,
		Date:     time.Date(2026, 1, 19, 10, 1, 12, 0, time.UTC),
		OrderID:  "A2",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AppendTrade(buy); err != nil {
		t.Fatal(err)
	}

	rows, err := store.Rows()
	if err != nil {
		t.Fatalf("rows: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Stock Code" {
		t.Errorf("Expected ledger headers as row zero, got %v", rows[0])
	}

	first, second := rows[1], rows[2]
	if first[1] != "2344" || second[1] != "2330" {
		t.Errorf("Expected insertion order 2344 then 2330, got %q, %q", first[1], second[1])
	}
	if first[0] != "2026-01-19 09:40:05" {
		t.Errorf("Unexpected trade time formatting: %q", first[0])
	}
	if first[4] != "50" || first[6] != "5850" {
		t.Errorf("Unexpected numeric formatting: shares %q total %q", first[4], first[6])
	}
}
