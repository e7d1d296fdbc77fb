package services

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"lending-pnl-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingChain parks LatestBlock until released, then fails the run so no
// datastore access happens.
type blockingChain struct {
	enterOnce sync.Once
	entered   chan struct{}
	release   chan struct{}
}

func (c *blockingChain) LatestBlock(_ context.Context) (int64, error) {
	c.enterOnce.Do(func() { close(c.entered) })
	<-c.release
	return 0, errors.New("rpc unavailable")
}

func (c *blockingChain) BlockTime(_ context.Context, _ int64) (time.Time, error) {
	return time.Time{}, errors.New("rpc unavailable")
}

func (c *blockingChain) ResetBlockTimeCache() {}

func TestRunGuardSkipsOverlappingRuns(t *testing.T) {
	chain := &blockingChain{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	indexer := NewIndexerService(LoadConfig(), chain, nil, nil, nil, nil, nil, nil)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- indexer.Run(context.Background())
	}()

	<-chain.entered
	assert.ErrorIs(t, indexer.Run(context.Background()), ErrRunInProgress)

	close(chain.release)
	err := <-firstDone
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRunInProgress)

	// Guard released after the failed run: the next trigger gets through.
	assert.NotErrorIs(t, indexer.Run(context.Background()), ErrRunInProgress)
}

// fixedChain answers every timestamp lookup with one canned time.
type fixedChain struct {
	blockTime time.Time
}

func (c fixedChain) LatestBlock(_ context.Context) (int64, error) { return 0, nil }

func (c fixedChain) BlockTime(_ context.Context, _ int64) (time.Time, error) {
	return c.blockTime, nil
}

func (c fixedChain) ResetBlockTimeCache() {}

func TestEnrichEventKeepsTokenAmountWhenPriceMissing(t *testing.T) {
	chain := fixedChain{blockTime: time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)}
	tokens := NewTokenService(&fakeTokenReader{symbol: "gmx", decimals: 6})
	indexer := NewIndexerService(LoadConfig(), chain, nil, tokens, NewPriceService(), nil, nil, nil)

	mapped := &RawEvent{
		Action:        models.ActionDeposit,
		WalletAddress: common.HexToAddress("0xAbC1111111111111111111111111111111111111"),
		AssetAddress:  common.HexToAddress("0x00000000000000000000000000000000000000dd"),
		AmountRaw:     big.NewInt(2_500_000),
	}

	row, err := indexer.enrichEvent(context.Background(), ProtocolAaveV3, 1234, "0xdeadbeef", 5, mapped)
	require.NoError(t, err)

	// GMX has no price mapping: the token amount survives, the USD column
	// stays NULL instead of failing the chunk.
	require.NotNil(t, row.AmountToken)
	assert.Equal(t, 2.5, *row.AmountToken)
	assert.Nil(t, row.AmountUsd)

	assert.Equal(t, "GMX", row.AssetSymbol)
	assert.Equal(t, "2500000", row.AmountRaw)
	assert.Equal(t, "0xabc1111111111111111111111111111111111111", row.WalletAddress)
	assert.Equal(t, "0x00000000000000000000000000000000000000dd", row.AssetAddress)
	assert.Equal(t, int64(1234), row.BlockNumber)
	assert.Equal(t, chain.blockTime, row.BlockTime)
}
