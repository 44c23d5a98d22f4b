package parsers

import (
	"testing"

	"github.com/username/tradefolio/src/parsers/fubon"
	"github.com/username/tradefolio/src/parsers/generic"
)

func TestParserForSelectsBySubjectMarker(t *testing.T) {
	cases := []struct {
		name    string
		subject string
		want    string
	}{
		{"fubon report", "富邦證券 成交回報 2026年1月19日", "fubon"},
		{"generic confirmation", "Trade Confirmation - AAPL", "generic"},
		{"empty subject", "", "generic"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := ParserFor(tc.subject)
			switch tc.want {
			case "fubon":
				if _, ok := p.(*fubon.Parser); !ok {
					t.Errorf("Expected fubon parser for %q, got %T", tc.subject, p)
				}
			case "generic":
				if _, ok := p.(*generic.Parser); !ok {
					t.Errorf("Expected generic parser for %q, got %T", tc.subject, p)
				}
			}
		})
	}
}
