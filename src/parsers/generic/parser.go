// src/parsers/generic/parser.go
package generic

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/username/tradefolio/src/logger"
	"github.com/username/tradefolio/src/models"
)

// Field patterns for loosely structured key-value confirmations. Each field
// is located independently by its first match; the label synonyms cover the
// wording used by the brokers we have seen.
var (
	symbolRe   = regexp.MustCompile(`(?i)(?:Symbol|Ticker|Stock):\s*([A-Z0-9]+)`)
	sideRe     = regexp.MustCompile(`(?i)(?:Action|Side|Type):\s*(BUY|SELL)`)
	quantityRe = regexp.MustCompile(`(?i)(?:Quantity|Qty|Shares):\s*([\d,.]+)`)
	priceRe    = regexp.MustCompile(`(?i)(?:Price|Cost):\s*\$?([\d,.]+)`)
	orderIDRe  = regexp.MustCompile(`(?i)(?:Order ID|Ref):\s*([A-Z0-9-]+)`)
)

// Parser extracts a single trade from free-form key-value text, e.g.
//
//	Symbol: AAPL
//	Action: Buy
//	Quantity: 1,000
//	Price: $189.30
//
// It implements the parsers.Parser interface.
type Parser struct{}

// NewParser creates a new instance of the generic key-value Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse returns at most one trade. A missing required field or an
// unparseable number yields an empty result, never a partial record.
func (p *Parser) Parse(subject, body string) []models.Trade {
	symbol := firstMatch(symbolRe, body)
	side := firstMatch(sideRe, body)
	quantityStr := firstMatch(quantityRe, body)
	priceStr := firstMatch(priceRe, body)

	if symbol == "" || side == "" || quantityStr == "" || priceStr == "" {
		logger.L.Debug("Generic parser found no complete field set", "subject", subject)
		return nil
	}

	quantity, err := strconv.ParseFloat(stripThousands(quantityStr), 64)
	if err != nil {
		logger.L.Debug("Generic parser: invalid quantity", "value", quantityStr, "error", err)
		return nil
	}
	price, err := strconv.ParseFloat(stripThousands(priceStr), 64)
	if err != nil {
		logger.L.Debug("Generic parser: invalid price", "value", priceStr, "error", err)
		return nil
	}

	trade, err := models.NewTrade(models.TradeInput{
		Symbol:   strings.ToUpper(symbol),
		Side:     side,
		Quantity: quantity,
		Price:    price,
		OrderID:  firstMatch(orderIDRe, body),
	})
	if err != nil {
		logger.L.Debug("Generic parser: extracted fields failed validation", "subject", subject, "error", err)
		return nil
	}

	return []models.Trade{trade}
}

// firstMatch returns the trimmed first capture group, or "" when the
// pattern does not match.
func firstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func stripThousands(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
