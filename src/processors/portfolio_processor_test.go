package processors

import (
	"math"
	"os"
	"testing"

	"github.com/username/tradefolio/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

var ledgerHeaders = []string{
	"Trade Time", "Stock Code", "Stock Name", "Action",
	"Shares", "Unit Price", "Total Amount", "Order ID", "Broker",
}

func ledgerRow(code, name, action, qty, price, amount string) []string {
	return []string{"2026-01-19 09:40:05", code, name, action, qty, price, amount, "X", "Test"}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestProcessWeightedAverageCost(t *testing.T) {
	rows := [][]string{
		ledgerHeaders,
		ledgerRow("2344", "華邦電", "BUY", "100", "10", "1000"),
		ledgerRow("2344", "華邦電", "SELL", "40", "15", "600"),
	}

	summary := NewPortfolioProcessor().Process(rows, nil)

	if len(summary.Holdings) != 1 {
		t.Fatalf("Expected 1 holding, got %d", len(summary.Holdings))
	}

	h := summary.Holdings[0]
	if !almostEqual(h.NetQuantity, 60) {
		t.Errorf("Expected net quantity 60, got %v", h.NetQuantity)
	}
	if !almostEqual(h.AvgBuyCost, 10) {
		t.Errorf("Expected average buy cost 10, got %v", h.AvgBuyCost)
	}
	if !almostEqual(h.RealizedPL, 200) {
		t.Errorf("Expected realized P/L 200, got %v", h.RealizedPL)
	}
	if !almostEqual(summary.TotalRealized, 200) {
		t.Errorf("Expected total realized 200, got %v", summary.TotalRealized)
	}
}

func TestProcessClosedPositions(t *testing.T) {
	t.Run("zero realized P/L is excluded", func(t *testing.T) {
		rows := [][]string{
			ledgerHeaders,
			ledgerRow("2330", "台積電", "BUY", "10", "10", "100"),
			ledgerRow("2330", "台積電", "SELL", "10", "10", "100"),
		}

		summary := NewPortfolioProcessor().Process(rows, nil)
		if len(summary.Holdings) != 0 {
			t.Errorf("Expected closed flat position excluded, got %d holdings", len(summary.Holdings))
		}
	})

	t.Run("non-zero realized P/L is included with zero quantity", func(t *testing.T) {
		rows := [][]string{
			ledgerHeaders,
			ledgerRow("2330", "台積電", "BUY", "10", "10", "100"),
			ledgerRow("2330", "台積電", "SELL", "10", "15", "150"),
		}

		summary := NewPortfolioProcessor().Process(rows, nil)
		if len(summary.Holdings) != 1 {
			t.Fatalf("Expected 1 holding, got %d", len(summary.Holdings))
		}
		h := summary.Holdings[0]
		if !almostEqual(h.NetQuantity, 0) {
			t.Errorf("Expected net quantity 0, got %v", h.NetQuantity)
		}
		if !almostEqual(h.RealizedPL, 50) {
			t.Errorf("Expected realized P/L 50, got %v", h.RealizedPL)
		}
	})
}

// The running-average model realizes a sale against the buys seen so far,
// so re-ordering buys and sells legitimately changes realized P/L. This is
// a property of the accounting model, not a bug.
func TestProcessIsOrderSensitive(t *testing.T) {
	sellBetweenBuys := [][]string{
		ledgerHeaders,
		ledgerRow("2603", "長榮", "BUY", "100", "10", "1000"),
		ledgerRow("2603", "長榮", "SELL", "50", "20", "1000"),
		ledgerRow("2603", "長榮", "BUY", "100", "20", "2000"),
	}
	sellAfterBuys := [][]string{
		ledgerHeaders,
		ledgerRow("2603", "長榮", "BUY", "100", "10", "1000"),
		ledgerRow("2603", "長榮", "BUY", "100", "20", "2000"),
		ledgerRow("2603", "長榮", "SELL", "50", "20", "1000"),
	}

	p := NewPortfolioProcessor()
	first := p.Process(sellBetweenBuys, nil)
	second := p.Process(sellAfterBuys, nil)

	// Sale against avg 10 realizes (20-10)*50; against avg 15, (20-15)*50.
	if !almostEqual(first.TotalRealized, 500) {
		t.Errorf("Expected realized 500 when selling before the second buy, got %v", first.TotalRealized)
	}
	if !almostEqual(second.TotalRealized, 250) {
		t.Errorf("Expected realized 250 when selling after both buys, got %v", second.TotalRealized)
	}
}

func TestProcessLivePricesFeedUnrealized(t *testing.T) {
	rows := [][]string{
		ledgerHeaders,
		ledgerRow("2344", "華邦電", "BUY", "100", "10", "1000"),
		ledgerRow("2344", "華邦電", "SELL", "40", "15", "600"),
	}

	prices := map[string]float64{"2344": 20}
	summary := NewPortfolioProcessor().Process(rows, func(code string) float64 {
		return prices[code]
	})

	h := summary.Holdings[0]
	if !almostEqual(h.LivePrice, 20) {
		t.Errorf("Expected live price 20, got %v", h.LivePrice)
	}
	if !almostEqual(h.UnrealizedPL, 600) {
		t.Errorf("Expected unrealized (20-10)*60 = 600, got %v", h.UnrealizedPL)
	}
	if !almostEqual(h.PLPercent, 1.0) {
		t.Errorf("Expected P/L pct 1.0, got %v", h.PLPercent)
	}
	if !almostEqual(summary.TotalChange, 800) {
		t.Errorf("Expected total change 800, got %v", summary.TotalChange)
	}
	if !almostEqual(summary.ROIPercent, 800.0/600.0) {
		t.Errorf("Expected ROI 800/600, got %v", summary.ROIPercent)
	}
}

func TestProcessHeaderSynonymsAndPositionalFallback(t *testing.T) {
	t.Run("synonym headers", func(t *testing.T) {
		rows := [][]string{
			{"Date", "Symbol", "Name", "Side", "Quantity", "Price", "Amount"},
			{"2026-01-19", "2884", "玉山金", "BUY", "200", "26.5", "5300"},
		}

		summary := NewPortfolioProcessor().Process(rows, nil)
		if len(summary.Holdings) != 1 || summary.Holdings[0].Code != "2884" {
			t.Fatalf("Expected holding 2884 via synonym headers, got %+v", summary.Holdings)
		}
	})

	t.Run("unrecognized headers fall back to fixed positions", func(t *testing.T) {
		rows := [][]string{
			{"c0", "c1", "c2", "c3", "c4", "c5", "c6"},
			{"t", "2884", "玉山金", "買進", "200", "26.5", "5300"},
		}

		summary := NewPortfolioProcessor().Process(rows, nil)
		if len(summary.Holdings) != 1 {
			t.Fatalf("Expected 1 holding via positional fallback, got %d", len(summary.Holdings))
		}
		h := summary.Holdings[0]
		if h.Code != "2884" || !almostEqual(h.NetQuantity, 200) {
			t.Errorf("Expected 2884 x200, got %+v", h)
		}
	})
}

func TestProcessSkipsMalformedRows(t *testing.T) {
	rows := [][]string{
		ledgerHeaders,
		ledgerRow("2330", "台積電", "BUY", "abc", "10", "100"),
		ledgerRow("2330", "台積電", "BUY", "10", "10", "n/a"),
		{"2026-01-19", "2330"}, // short row
		ledgerRow("2330", "台積電", "BUY", "1,000", "10", "10,000"),
	}

	summary := NewPortfolioProcessor().Process(rows, nil)
	if len(summary.Holdings) != 1 {
		t.Fatalf("Expected 1 holding, got %d", len(summary.Holdings))
	}
	if !almostEqual(summary.Holdings[0].NetQuantity, 1000) {
		t.Errorf("Expected only the well-formed row counted (qty 1000), got %v", summary.Holdings[0].NetQuantity)
	}
}

func TestProcessLocalizedActions(t *testing.T) {
	rows := [][]string{
		ledgerHeaders,
		ledgerRow("2344", "華邦電", "現買", "100", "10", "1000"),
		ledgerRow("2344", "華邦電", "現賣", "40", "15", "600"),
	}

	summary := NewPortfolioProcessor().Process(rows, nil)
	if len(summary.Holdings) != 1 {
		t.Fatalf("Expected 1 holding, got %d", len(summary.Holdings))
	}
	if !almostEqual(summary.Holdings[0].RealizedPL, 200) {
		t.Errorf("Expected localized actions folded like BUY/SELL, got realized %v", summary.Holdings[0].RealizedPL)
	}
}
