// services/chain.go
package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20ABIJSON = `[
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

// LogFetcher is the slice of the RPC surface the scanner needs.
type LogFetcher interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// TokenReader reads ERC-20 metadata straight from the token contract.
type TokenReader interface {
	TokenSymbol(ctx context.Context, token common.Address) (string, error)
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
}

// ChainClient wraps an ethclient with the handful of calls the indexer makes:
// head height, block timestamps (cached per process), log filtering and ERC-20
// metadata reads.
type ChainClient struct {
	client   *ethclient.Client
	erc20ABI abi.ABI

	mu         sync.Mutex
	blockTimes map[int64]time.Time
}

func NewChainClient(rpcURL string) (*ChainClient, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC %s: %w", rpcURL, err)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	return &ChainClient{
		client:     client,
		erc20ABI:   parsed,
		blockTimes: make(map[int64]time.Time),
	}, nil
}

// LatestBlock returns the current chain head height.
func (c *ChainClient) LatestBlock(ctx context.Context) (int64, error) {
	head, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch latest block: %w", err)
	}
	return int64(head), nil
}

// ResetBlockTimeCache drops cached block timestamps. Called at the start of
// every indexing run so the cache stays scoped to one pass instead of growing
// for the process lifetime.
func (c *ChainClient) ResetBlockTimeCache() {
	c.mu.Lock()
	c.blockTimes = make(map[int64]time.Time)
	c.mu.Unlock()
}

// BlockTime returns the UTC timestamp of a block. Results are cached because
// a chunk of logs usually spans few distinct blocks.
func (c *ChainClient) BlockTime(ctx context.Context, blockNumber int64) (time.Time, error) {
	c.mu.Lock()
	cached, ok := c.blockTimes[blockNumber]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	header, err := c.client.HeaderByNumber(ctx, big.NewInt(blockNumber))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch header for block %d: %w", blockNumber, err)
	}

	blockTime := time.Unix(int64(header.Time), 0).UTC()
	c.mu.Lock()
	c.blockTimes[blockNumber] = blockTime
	c.mu.Unlock()
	return blockTime, nil
}

func (c *ChainClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return c.client.FilterLogs(ctx, q)
}

func (c *ChainClient) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	data, err := c.callToken(ctx, token, "symbol")
	if err != nil {
		return "", err
	}
	var symbol string
	if err := c.erc20ABI.UnpackIntoInterface(&symbol, "symbol", data); err != nil {
		return "", fmt.Errorf("failed to decode symbol() for %s: %w", token.Hex(), err)
	}
	return symbol, nil
}

func (c *ChainClient) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	data, err := c.callToken(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	var decimals uint8
	if err := c.erc20ABI.UnpackIntoInterface(&decimals, "decimals", data); err != nil {
		return 0, fmt.Errorf("failed to decode decimals() for %s: %w", token.Hex(), err)
	}
	return decimals, nil
}

func (c *ChainClient) callToken(ctx context.Context, token common.Address, method string) ([]byte, error) {
	input, err := c.erc20ABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s(): %w", method, err)
	}
	data, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s() call failed for %s: %w", method, token.Hex(), err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s() returned no data for %s", method, token.Hex())
	}
	return data, nil
}
