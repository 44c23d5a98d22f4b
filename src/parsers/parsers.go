// src/parsers/parsers.go
package parsers

import (
	"strings"

	"github.com/username/tradefolio/src/models"
	"github.com/username/tradefolio/src/parsers/fubon"
	"github.com/username/tradefolio/src/parsers/generic"
)

// Parser converts one raw email into zero or more validated trades.
// Implementations never return an error: malformed input degrades to an
// empty result so one bad message can never halt an ingestion run.
type Parser interface {
	Parse(subject, body string) []models.Trade
}

// registration binds a broker subject marker to its extraction strategy.
type registration struct {
	marker string
	parser Parser
}

// registry is the closed set of broker-specific report formats. New brokers
// are added here; anything unmatched falls through to the generic
// key-value parser.
var registry = []registration{
	{marker: fubon.SubjectMarker, parser: fubon.NewParser()},
}

var fallback Parser = generic.NewParser()

// ParserFor selects exactly one extraction strategy for a message.
// It is a pure function of the subject line.
func ParserFor(subject string) Parser {
	for _, reg := range registry {
		if strings.Contains(subject, reg.marker) {
			return reg.parser
		}
	}
	return fallback
}
