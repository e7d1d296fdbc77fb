// services/scanner.go
package services

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Scanner fetches pool logs over a bounded block window, shrinking the window
// when the provider rejects it. Worst case is O(log(window)) retries per chunk.
type Scanner struct {
	fetcher      LogFetcher
	maxChunkSize int
}

func NewScanner(fetcher LogFetcher, maxChunkSize int) *Scanner {
	if maxChunkSize < minChunkBlocks {
		maxChunkSize = minChunkBlocks
	}
	return &Scanner{fetcher: fetcher, maxChunkSize: maxChunkSize}
}

// ScanChunk fetches logs for the pool starting at fromBlock (inclusive), up to
// at most toBlock. It tries the full configured window first and halves it on
// any provider error (range-too-large, timeout); once the window drops below
// the minimum the error is fatal for this run. The returned end block is the
// last block actually covered — it may be well short of toBlock when the
// window was throttled, and the cursor must advance only to it.
func (s *Scanner) ScanChunk(ctx context.Context, pool common.Address, fromBlock, toBlock int64) ([]types.Log, int64, error) {
	if fromBlock > toBlock {
		return nil, fromBlock, fmt.Errorf("invalid scan range: from %d > to %d", fromBlock, toBlock)
	}

	size := int64(s.maxChunkSize)
	for size >= minChunkBlocks {
		chunkTo := fromBlock + size - 1
		if chunkTo > toBlock {
			chunkTo = toBlock
		}

		query := ethereum.FilterQuery{
			FromBlock: big.NewInt(fromBlock),
			ToBlock:   big.NewInt(chunkTo),
			Addresses: []common.Address{pool},
			Topics:    [][]common.Hash{PoolEventIDs},
		}

		logs, err := s.fetcher.FilterLogs(ctx, query)
		if err != nil {
			size = size / 2
			if size < minChunkBlocks {
				return nil, fromBlock, fmt.Errorf("log fetch failed for %d-%d even at minimum window: %w", fromBlock, chunkTo, err)
			}
			continue
		}
		return logs, chunkTo, nil
	}

	return nil, fromBlock, fmt.Errorf("scan window shrank below %d blocks", minChunkBlocks)
}
