// src/services/price_service.go
package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/tradefolio/src/logger"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Taiwan listings resolve on Yahoo under .TW (TWSE) or .TWO (OTC);
// we try both in order.
var tickerSuffixes = []string{".TW", ".TWO"}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

type priceServiceImpl struct {
	httpClient http.Client
	quoteCache *cache.Cache
}

// NewPriceService builds the Yahoo Finance chart-API price source. Quotes
// are cached so that one aggregation run performs at most one lookup per
// instrument code.
func NewPriceService() PriceService {
	return &priceServiceImpl{
		httpClient: http.Client{Timeout: 10 * time.Second},
		quoteCache: cache.New(15*time.Minute, 30*time.Minute),
	}
}

// PriceFor returns the live price for a Taiwan stock code, or 0 when the
// lookup fails on every exchange suffix. Failures are logged at debug level
// only; a missing quote merely blanks the unrealized columns downstream.
func (s *priceServiceImpl) PriceFor(code string) float64 {
	if code == "" {
		return 0
	}

	if cached, found := s.quoteCache.Get(code); found {
		return cached.(float64)
	}

	for _, suffix := range tickerSuffixes {
		ticker := code + suffix
		price, err := s.fetchChartPrice(ticker)
		if err != nil {
			logger.L.Debug("Yahoo price lookup failed", "ticker", ticker, "error", err)
			continue
		}
		s.quoteCache.Set(code, price, cache.DefaultExpiration)
		return price
	}
	return 0
}

func (s *priceServiceImpl) fetchChartPrice(ticker string) (float64, error) {
	url := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s", ticker)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("yahoo chart API returned %s", resp.Status)
	}

	var data yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, err
	}
	if len(data.Chart.Result) == 0 {
		return 0, fmt.Errorf("no chart result for %s", ticker)
	}

	price := data.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return 0, fmt.Errorf("no market price for %s", ticker)
	}
	return price, nil
}
