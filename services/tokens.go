// services/tokens.go
package services

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// TokenMeta is resolved {symbol, decimals} for an asset address.
type TokenMeta struct {
	Symbol   string
	Decimals uint8
}

// knownTokenMeta covers the canonical Arbitrum assets so the common case never
// touches the RPC node. Keys are lowercase addresses.
var knownTokenMeta = map[string]TokenMeta{
	"0x82af49447d8a07e3bd95bd0d56f35241523fbab1": {Symbol: "WETH", Decimals: 18},
	"0xaf88d065e77c8cc2239327c5edb3a432268e5831": {Symbol: "USDC", Decimals: 6},
	"0xfd086bc7cd5c481dcc9c85ebe478a1c0b69fcbb9": {Symbol: "USDT", Decimals: 6},
	"0xda10009cbd5d07dd0cecc66161fc93d7c9000da1": {Symbol: "DAI", Decimals: 18},
	"0x2f2a2543b76a4166549f7aab2e75bef0aefc5b0f": {Symbol: "WBTC", Decimals: 8},
}

// TokenService resolves asset metadata: static table first, then the token
// contract, then UNKNOWN/18 defaults. A resolution miss degrades precision,
// never availability, so this service does not return errors.
type TokenService struct {
	reader TokenReader

	mu    sync.Mutex
	cache map[string]TokenMeta
}

func NewTokenService(reader TokenReader) *TokenService {
	return &TokenService{
		reader: reader,
		cache:  make(map[string]TokenMeta),
	}
}

// Resolve returns {symbol, decimals} for an asset, memoized for the process
// lifetime.
func (s *TokenService) Resolve(ctx context.Context, asset common.Address) TokenMeta {
	key := strings.ToLower(asset.Hex())

	s.mu.Lock()
	cached, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		return cached
	}

	meta, ok := knownTokenMeta[key]
	if !ok {
		meta = s.readFromContract(ctx, asset)
	}

	s.mu.Lock()
	s.cache[key] = meta
	s.mu.Unlock()
	return meta
}

func (s *TokenService) readFromContract(ctx context.Context, asset common.Address) TokenMeta {
	meta := TokenMeta{Symbol: "UNKNOWN", Decimals: 18}

	symbol, err := s.reader.TokenSymbol(ctx, asset)
	if err != nil {
		log.Printf("⚠️ token symbol read failed for %s, using defaults: %v", asset.Hex(), err)
		return meta
	}
	decimals, err := s.reader.TokenDecimals(ctx, asset)
	if err != nil {
		log.Printf("⚠️ token decimals read failed for %s, using defaults: %v", asset.Hex(), err)
		return meta
	}

	meta.Symbol = NormalizeSymbol(symbol)
	meta.Decimals = decimals
	return meta
}

// NormalizeSymbol strips junk characters, uppercases and collapses wrapper
// aliases so the price mapping sees one spelling per asset.
func NormalizeSymbol(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "WEETH" {
		return "WETH"
	}
	if cleaned == "" {
		return "UNKNOWN"
	}
	return cleaned
}
