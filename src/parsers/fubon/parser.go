// src/parsers/fubon/parser.go
package fubon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/username/tradefolio/src/logger"
	"github.com/username/tradefolio/src/models"
)

// SubjectMarker identifies Fubon Securities daily execution reports.
const SubjectMarker = "富邦證券"

// Broker is recorded on every trade extracted from this report format.
const Broker = "Fubon Securities (富邦證券)"

var (
	// Report date in the subject, e.g. "2026年1月19日".
	subjectDateRe = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
	// Strict numeric check applied to quantity/price cells after stripping
	// thousands separators. Anything else marks a non-trade row.
	numericRe = regexp.MustCompile(`^\d+\.?\d*$`)
	// Leading digit run is the instrument code, the remainder the name,
	// e.g. "2344華邦電" -> "2344" + "華邦電".
	symbolRe = regexp.MustCompile(`^(\d+)(.*)$`)
)

// First-cell markers for header, disclaimer and notice rows.
var skipMarkers = []string{"股票名稱", "以上資料", "重要提示"}

// Column layout of a Fubon execution report row:
//
//	0: 股票名稱 (code+name, e.g. 2344華邦電)
//	1: 交易類別 (e.g. 現買/現賣)
//	2: 成交股數
//	3: 成交單價
//	5: 委託書編號 (order id)
//	6: 成交時間 (e.g. 09:40:05)
const minRowCells = 7

// Parser extracts trades from the localized HTML table report Fubon
// Securities mails out daily, one trade per valid data row. It implements
// the parsers.Parser interface.
type Parser struct{}

// NewParser creates a new instance of the Fubon report Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse returns the trades found in the report, in row order. A missing
// report date in the subject or an unparseable table body is fatal for the
// whole message (logged, empty result); any single malformed row is logged
// and skipped without affecting the remaining rows.
func (p *Parser) Parse(subject, body string) []models.Trade {
	reportDate, ok := extractReportDate(subject)
	if !ok {
		logger.L.Error("Could not extract date from Fubon subject", "subject", subject)
		return nil
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		logger.L.Error("Fubon report HTML could not be parsed", "subject", subject, "error", err)
		return nil
	}

	var trades []models.Trade
	for _, cells := range tableRows(doc) {
		trade, ok := parseRow(cells, reportDate)
		if ok {
			trades = append(trades, trade)
		}
	}

	logger.L.Info("Fubon parser finished", "subject", subject, "trades", len(trades))
	return trades
}

// extractReportDate pulls the year/month/day out of the subject and
// normalizes it to YYYY-MM-DD with zero-padded month and day.
func extractReportDate(subject string) (string, bool) {
	m := subjectDateRe.FindStringSubmatch(subject)
	if m == nil {
		return "", false
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return fmt.Sprintf("%s-%02d-%02d", m[1], month, day), true
}

// parseRow converts one table row into a trade. Header, notice and
// non-numeric rows report ok=false silently; rows that look like trades but
// fail to parse are logged before being skipped.
func parseRow(cells []string, reportDate string) (models.Trade, bool) {
	if len(cells) < minRowCells {
		return models.Trade{}, false
	}

	for _, marker := range skipMarkers {
		if strings.Contains(cells[0], marker) {
			return models.Trade{}, false
		}
	}

	qtyRaw := strings.ReplaceAll(cells[2], ",", "")
	priceRaw := strings.ReplaceAll(cells[3], ",", "")
	if !numericRe.MatchString(qtyRaw) || !numericRe.MatchString(priceRaw) {
		logger.L.Debug("Skipping non-trade row", "cell", cells[0], "qty", qtyRaw, "price", priceRaw)
		return models.Trade{}, false
	}

	symbol := cells[0]
	stockName := ""
	if m := symbolRe.FindStringSubmatch(cells[0]); m != nil {
		symbol = m[1]
		stockName = strings.TrimSpace(m[2])
	}

	side := models.SideBuy
	if strings.Contains(cells[1], "賣") {
		side = models.SideSell
	}

	quantity, err := strconv.ParseFloat(qtyRaw, 64)
	if err != nil {
		logger.L.Warn("Skipping malformed row: bad quantity", "cells", cells, "error", err)
		return models.Trade{}, false
	}
	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil {
		logger.L.Warn("Skipping malformed row: bad price", "cells", cells, "error", err)
		return models.Trade{}, false
	}

	// Combine the report date from the subject with the per-row execution time.
	timestamp, err := time.ParseInLocation("2006-01-02 15:04:05", reportDate+" "+cells[6], time.Local)
	if err != nil {
		logger.L.Warn("Skipping malformed row: bad execution time", "time", cells[6], "date", reportDate, "error", err)
		return models.Trade{}, false
	}

	trade, err := models.NewTrade(models.TradeInput{
		Symbol:    symbol,
		StockName: stockName,
		Side:      side,
		Quantity:  quantity,
		Price:     price,
		Date:      timestamp,
		OrderID:   cells[5],
		Broker:    Broker,
	})
	if err != nil {
		logger.L.Warn("Skipping malformed row data", "cells", cells, "error", err)
		return models.Trade{}, false
	}

	return trade, true
}

// tableRows walks the parsed document and returns the trimmed cell texts of
// every <tr> element, in document order.
func tableRows(doc *html.Node) [][]string {
	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			rows = append(rows, rowCells(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return rows
}

// rowCells collects the text content of the <td>/<th> cells under a row.
func rowCells(row *html.Node) []string {
	var cells []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
			cells = append(cells, nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return cells
}

// nodeText concatenates the trimmed text fragments below a node.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
