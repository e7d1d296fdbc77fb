// services/prices.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"lending-pnl-system/utils"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// stableSymbols short-circuit to exactly $1.00 — no point paying a rate-limited
// request for a peg.
var stableSymbols = map[string]bool{
	"USDC":   true,
	"USDT":   true,
	"DAI":    true,
	"USDC.E": true,
}

var symbolToCoingeckoID = map[string]string{
	"BTC":    "bitcoin",
	"WBTC":   "wrapped-bitcoin",
	"ETH":    "ethereum",
	"WETH":   "weth",
	"USDT":   "tether",
	"USDC":   "usd-coin",
	"USDC.E": "usd-coin",
	"DAI":    "dai",
	"RDNT":   "radiant-capital",
	"AAVE":   "aave",
	"ARB":    "arbitrum",
}

// PriceService resolves {symbol, calendar day} to a historical USD price at
// day granularity. Results — including failures — are cached per (id, day) so
// repeated events on the same day never re-query. A miss yields nil and the
// downstream USD amount stays NULL: best effort by design.
type PriceService struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]*float64
}

func NewPriceService() *PriceService {
	return &PriceService{
		baseURL:    coingeckoBaseURL,
		httpClient: utils.HTTPClient,
		cache:      make(map[string]*float64),
	}
}

// HistoricalUsdPrice returns the USD price of a symbol on the UTC calendar day
// of blockTime, or nil when the symbol is unmapped or the lookup fails.
func (s *PriceService) HistoricalUsdPrice(ctx context.Context, symbol string, blockTime time.Time) *float64 {
	normalized := NormalizeSymbol(symbol)

	if stableSymbols[normalized] {
		price := 1.0
		return &price
	}

	coingeckoID, ok := symbolToCoingeckoID[normalized]
	if !ok {
		return nil
	}

	day := formatCoingeckoDay(blockTime)
	cacheKey := coingeckoID + ":" + day

	s.mu.Lock()
	cached, ok := s.cache[cacheKey]
	s.mu.Unlock()
	if ok {
		return cached
	}

	price := s.fetchDayPrice(ctx, coingeckoID, day)
	if price == nil {
		log.Printf("⚠️ no historical price for %s on %s", normalized, day)
	}

	s.mu.Lock()
	s.cache[cacheKey] = price
	s.mu.Unlock()
	return price
}

func (s *PriceService) fetchDayPrice(ctx context.Context, coingeckoID, day string) *float64 {
	url := fmt.Sprintf("%s/coins/%s/history?date=%s&localization=false", s.baseURL, coingeckoID, day)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var payload struct {
		MarketData struct {
			CurrentPrice map[string]float64 `json:"current_price"`
		} `json:"market_data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil
	}

	usd, ok := payload.MarketData.CurrentPrice["usd"]
	if !ok {
		return nil
	}
	return &usd
}

// formatCoingeckoDay renders the DD-MM-YYYY day key the history endpoint wants.
func formatCoingeckoDay(t time.Time) string {
	return t.UTC().Format("02-01-2006")
}
