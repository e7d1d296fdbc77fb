// services/indexer.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"lending-pnl-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrRunInProgress is returned when a run is triggered while another is still
// executing. Overlapping runs are skipped, never queued.
var ErrRunInProgress = errors.New("indexer run already in progress")

// ChainReader is the head/timestamp slice of the RPC surface the orchestrator
// needs.
type ChainReader interface {
	LatestBlock(ctx context.Context) (int64, error)
	BlockTime(ctx context.Context, blockNumber int64) (time.Time, error)
	ResetBlockTimeCache()
}

// IndexerService sequences one full indexing pass: cursor → scan → map →
// enrich → store → advance cursor, per protocol, then rebuilds the ledger of
// every wallet touched in the run.
type IndexerService struct {
	cfg     Config
	chain   ChainReader
	scanner *Scanner
	tokens  *TokenService
	prices  *PriceService
	store   *EventStore
	cursors *CursorService
	ledger  *LedgerService

	running atomic.Bool
}

func NewIndexerService(
	cfg Config,
	chain ChainReader,
	scanner *Scanner,
	tokens *TokenService,
	prices *PriceService,
	store *EventStore,
	cursors *CursorService,
	ledger *LedgerService,
) *IndexerService {
	return &IndexerService{
		cfg:     cfg,
		chain:   chain,
		scanner: scanner,
		tokens:  tokens,
		prices:  prices,
		store:   store,
		cursors: cursors,
		ledger:  ledger,
	}
}

// Run executes one indexing pass. At most one pass runs at a time system-wide;
// concurrent triggers get ErrRunInProgress. There is no mid-run cancellation
// beyond ctx: a chunk either lands fully (events then cursor) or the whole
// chunk is retried next run.
func (s *IndexerService) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer s.running.Store(false)

	runID := uuid.NewString()[:8]
	started := time.Now()

	// Block timestamps are cached per run, not per process.
	s.chain.ResetBlockTimeCache()

	latestBlock, err := s.chain.LatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}

	// Stay behind the head so reorged logs never enter the ledger.
	latestSafeBlock := latestBlock - int64(s.cfg.FinalityBlocks)
	if latestSafeBlock < 0 {
		latestSafeBlock = 0
	}

	log.Printf("[run %s] chain %s (%d), latest block %d (safe: %d)", runID, s.cfg.ChainName, s.cfg.ChainID, latestBlock, latestSafeBlock)

	affectedWallets := make(map[string]bool)
	for _, pool := range s.cfg.Pools {
		if err := s.processProtocol(ctx, pool, latestSafeBlock, affectedWallets); err != nil {
			return fmt.Errorf("run %s: protocol %s: %w", runID, pool.Protocol, err)
		}
	}

	wallets := make([]string, 0, len(affectedWallets))
	for wallet := range affectedWallets {
		wallets = append(wallets, wallet)
	}
	sort.Strings(wallets)

	for _, wallet := range wallets {
		if err := s.ledger.RebuildWallet(wallet, s.cfg.ChainID); err != nil {
			return fmt.Errorf("run %s: %w", runID, err)
		}
	}

	log.Printf("✅ [run %s] completed in %s, wallets refreshed: %d", runID, time.Since(started).Round(time.Millisecond), len(wallets))
	return nil
}

func (s *IndexerService) processProtocol(ctx context.Context, pool PoolConfig, latestSafeBlock int64, affectedWallets map[string]bool) error {
	fromBlock, err := s.cursors.NextStartBlock(s.cfg.ChainID, pool.Protocol, latestSafeBlock, int64(s.cfg.LookbackBlocks))
	if err != nil {
		return err
	}

	if fromBlock > latestSafeBlock {
		log.Printf("[%s] up to date at block %d", pool.Protocol, latestSafeBlock)
		return nil
	}

	log.Printf("[%s] indexing from %d to %d", pool.Protocol, fromBlock, latestSafeBlock)
	poolAddress := common.HexToAddress(pool.PoolAddress)

	for fromBlock <= latestSafeBlock {
		logs, chunkToBlock, err := s.scanner.ScanChunk(ctx, poolAddress, fromBlock, latestSafeBlock)
		if err != nil {
			return err
		}

		rows := make([]models.ActivityEvent, 0, len(logs))
		for _, vLog := range logs {
			mapped := MapLogToRawEvent(vLog)
			if mapped == nil {
				continue
			}

			row, err := s.enrichEvent(ctx, pool.Protocol, vLog.BlockNumber, vLog.TxHash.Hex(), vLog.Index, mapped)
			if err != nil {
				return err
			}

			affectedWallets[row.WalletAddress] = true
			rows = append(rows, row)
		}

		// Event write strictly before cursor write: a crash between the two
		// re-scans the chunk and the upsert makes the replay harmless.
		if err := s.store.UpsertEvents(rows); err != nil {
			return err
		}
		if err := s.cursors.SaveCursor(s.cfg.ChainID, pool.Protocol, chunkToBlock); err != nil {
			return err
		}

		log.Printf("[%s] processed %d -> %d (events: %d)", pool.Protocol, fromBlock, chunkToBlock, len(rows))
		fromBlock = chunkToBlock + 1
	}

	return nil
}

// enrichEvent turns a canonical event into a persistable row: block time,
// token metadata, decimal-adjusted amount and best-effort USD value.
func (s *IndexerService) enrichEvent(ctx context.Context, protocol string, blockNumber uint64, txHash string, logIndex uint, mapped *RawEvent) (models.ActivityEvent, error) {
	blockTime, err := s.chain.BlockTime(ctx, int64(blockNumber))
	if err != nil {
		return models.ActivityEvent{}, err
	}

	meta := s.tokens.Resolve(ctx, mapped.AssetAddress)

	amountToken := decimal.NewFromBigInt(mapped.AmountRaw, -int32(meta.Decimals)).
		Round(12).InexactFloat64()

	var amountUsd *float64
	if price := s.prices.HistoricalUsdPrice(ctx, meta.Symbol, blockTime); price != nil {
		usd := roundUsd(amountToken * *price)
		amountUsd = &usd
	}

	return models.ActivityEvent{
		ChainID:       s.cfg.ChainID,
		Protocol:      protocol,
		WalletAddress: strings.ToLower(mapped.WalletAddress.Hex()),
		Action:        mapped.Action,
		AssetAddress:  strings.ToLower(mapped.AssetAddress.Hex()),
		AssetSymbol:   meta.Symbol,
		AmountRaw:     mapped.AmountRaw.String(),
		AmountToken:   &amountToken,
		AmountUsd:     amountUsd,
		TxHash:        txHash,
		LogIndex:      logIndex,
		BlockNumber:   int64(blockNumber),
		BlockTime:     blockTime,
		UpdatedAt:     time.Now().UTC(),
	}, nil
}
