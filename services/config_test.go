package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTargetChain(t *testing.T) {
	assert.Equal(t, "arbitrum", parseTargetChain(""))
	assert.Equal(t, "arbitrum", parseTargetChain("arbitrum"))
	assert.Equal(t, "arbitrum", parseTargetChain("mainnet"))
	assert.Equal(t, "arbitrum-sepolia", parseTargetChain("arbitrum-sepolia"))
	assert.Equal(t, "arbitrum-sepolia", parseTargetChain("ArbitrumSepolia"))
	assert.Equal(t, "arbitrum-sepolia", parseTargetChain("421614"))
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, int64(42161), cfg.ChainID)
	assert.Equal(t, 1500, cfg.MaxChunkSize)
	assert.Equal(t, 80000, cfg.LookbackBlocks)
	assert.Equal(t, 20, cfg.FinalityBlocks)
	require.Len(t, cfg.Pools, 2)
	assert.Equal(t, ProtocolAaveV3, cfg.Pools[0].Protocol)
	assert.Equal(t, ProtocolRadiantV2, cfg.Pools[1].Protocol)
}

func TestLoadConfigBounds(t *testing.T) {
	t.Setenv("PNL_INDEXER_CHUNK_SIZE", "10")
	t.Setenv("PNL_INDEXER_FINALITY_BLOCKS", "99999")
	t.Setenv("TARGET_CHAIN", "arbitrum-sepolia")

	cfg := LoadConfig()

	assert.Equal(t, 64, cfg.MaxChunkSize, "chunk size clamps to the minimum window")
	assert.Equal(t, 5000, cfg.FinalityBlocks, "finality clamps to its ceiling")
	assert.Equal(t, int64(421614), cfg.ChainID)
}

func TestLoadConfigDropsZeroAddressPool(t *testing.T) {
	t.Setenv("RADIANT_POOL_ADDRESS", ZeroAddress)

	cfg := LoadConfig()

	require.Len(t, cfg.Pools, 1)
	assert.Equal(t, ProtocolAaveV3, cfg.Pools[0].Protocol)
}
