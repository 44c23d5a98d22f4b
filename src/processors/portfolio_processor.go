// src/processors/portfolio_processor.go
package processors

import (
	"sort"
	"strconv"
	"strings"

	"github.com/username/tradefolio/src/logger"
	"github.com/username/tradefolio/src/models"
)

// PriceFunc looks up the live market price for an instrument code.
// Implementations return 0 when no price is available, never an error.
type PriceFunc func(code string) float64

// position accumulates the running per-symbol state during the fold.
type position struct {
	name       string
	buyQty     float64
	buyAmt     float64
	sellQty    float64
	sellAmt    float64
	realizedPL float64
}

// PortfolioProcessor folds the flat trade ledger into per-symbol holdings,
// weighted-average buy cost and realized profit/loss.
//
// The algorithm is deliberately order-sensitive: a sale is realized against
// the average buy cost accumulated from the buys processed so far, so the
// input rows must be in chronological (ingestion) order. There is no lot
// tracking; changing this model would silently alter historical P/L figures.
type PortfolioProcessor struct{}

func NewPortfolioProcessor() *PortfolioProcessor { return &PortfolioProcessor{} }

// Process consumes the ledger grid (header row plus data rows, the same
// shape the spreadsheet view uses) and produces the portfolio summary.
// Column positions are resolved from known header synonyms with positional
// fallbacks, so re-ordered or renamed sheets still aggregate correctly.
// Rows with malformed numeric fields are skipped silently.
func (p *PortfolioProcessor) Process(rows [][]string, priceFor PriceFunc) models.PortfolioSummary {
	var summary models.PortfolioSummary
	if len(rows) < 2 {
		return summary
	}

	headers := rows[0]
	idxCode := findColumn(headers, []string{"Stock Code", "Stock Symbol", "Symbol"}, 1)
	idxName := findColumn(headers, []string{"Stock Name", "Name"}, 2)
	idxAction := findColumn(headers, []string{"Action", "Side"}, 3)
	idxQty := findColumn(headers, []string{"Shares", "Quantity"}, 4)
	idxAmt := findColumn(headers, []string{"Total Amount", "Amount"}, 6)

	maxIdx := idxCode
	for _, idx := range []int{idxName, idxAction, idxQty, idxAmt} {
		if idx > maxIdx {
			maxIdx = idx
		}
	}

	portfolio := make(map[string]*position)

	for _, row := range rows[1:] {
		if len(row) <= maxIdx {
			continue
		}

		code := strings.TrimSpace(row[idxCode])
		name := strings.TrimSpace(row[idxName])
		action := strings.ToUpper(strings.TrimSpace(row[idxAction]))

		qty, err := parseLedgerNumber(row[idxQty])
		if err != nil {
			continue
		}
		amt, err := parseLedgerNumber(row[idxAmt])
		if err != nil {
			continue
		}

		pos, ok := portfolio[code]
		if !ok {
			pos = &position{}
			portfolio[code] = pos
		}
		if name != "" {
			pos.name = name
		}

		switch {
		case strings.Contains(action, "BUY") || strings.Contains(action, "買"):
			pos.buyQty += qty
			pos.buyAmt += amt
		case strings.Contains(action, "SELL") || strings.Contains(action, "賣"):
			// Realize this sale against the average cost of the buys seen so far.
			avgBuyBefore := 0.0
			if pos.buyQty > 0 {
				avgBuyBefore = pos.buyAmt / pos.buyQty
			}
			salePrice := 0.0
			if qty > 0 {
				salePrice = amt / qty
			}
			profit := (salePrice - avgBuyBefore) * qty
			pos.realizedPL += profit
			summary.TotalRealized += profit

			pos.sellQty += qty
			pos.sellAmt += amt
		default:
			logger.L.Debug("Ledger row with unrecognized action", "code", code, "action", action)
		}
	}

	codes := make([]string, 0, len(portfolio))
	for code := range portfolio {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var invested float64
	for _, code := range codes {
		pos := portfolio[code]
		netQty := pos.buyQty - pos.sellQty

		// Closed positions that netted out to zero P/L carry no information.
		if netQty == 0 && pos.realizedPL == 0 {
			continue
		}

		avgBuy := 0.0
		if pos.buyQty > 0 {
			avgBuy = pos.buyAmt / pos.buyQty
		}

		livePrice := 0.0
		if priceFor != nil {
			livePrice = priceFor(code)
		}

		unrealized := 0.0
		plPct := 0.0
		if netQty > 0 && livePrice > 0 {
			unrealized = (livePrice - avgBuy) * netQty
			if avgBuy > 0 {
				plPct = (livePrice - avgBuy) / avgBuy
			}
		}

		summary.Holdings = append(summary.Holdings, models.HoldingSummary{
			Code:         code,
			Name:         pos.name,
			NetQuantity:  netQty,
			AvgBuyCost:   avgBuy,
			LivePrice:    livePrice,
			UnrealizedPL: unrealized,
			PLPercent:    plPct,
			RealizedPL:   pos.realizedPL,
		})

		summary.TotalUnrealized += unrealized
		invested += netQty * avgBuy
	}

	summary.TotalChange = summary.TotalRealized + summary.TotalUnrealized
	if invested != 0 {
		summary.ROIPercent = summary.TotalChange / invested
	}

	return summary
}

// findColumn resolves a column index by header name, falling back to the
// fixed position used by the default ledger layout.
func findColumn(headers []string, names []string, fallback int) int {
	for _, name := range names {
		for i, h := range headers {
			if strings.TrimSpace(h) == name {
				return i
			}
		}
	}
	return fallback
}

func parseLedgerNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
}
