// services/config.go
package services

import (
	"strings"
	"time"

	"lending-pnl-system/utils"
)

const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Protocol identifiers — one cursor each.
const (
	ProtocolAaveV3    = "aave-v3"
	ProtocolRadiantV2 = "radiant-v2"
)

const (
	defaultAavePool          = "0x794a61358D6845594F94dc1DB02A252b5b4814aD"
	defaultRadiantPool       = "0xE23B4AE3624fB6f7cDEF29bC8EAD912f1Ede6886"
	defaultArbitrumRPC       = "https://arb1.arbitrum.io/rpc"
	defaultArbitrumSepolia   = "https://sepolia-rollup.arbitrum.io/rpc"
	chainIDArbitrum          = 42161
	chainIDArbitrumSepolia   = 421614
	minChunkBlocks           = 64 // below this, a failing range is fatal
	defaultChunkBlocks       = 1500
	defaultLookbackBlocks    = 80000
	defaultFinalityBlocks    = 20
	defaultRunIntervalMinute = 5
)

// PoolConfig is one lending pool to index.
type PoolConfig struct {
	Protocol    string
	PoolAddress string
}

// Config is the full runtime configuration, loaded once at boot.
type Config struct {
	ChainID        int64
	ChainName      string
	RPCURL         string
	Pools          []PoolConfig
	MaxChunkSize   int
	LookbackBlocks int
	FinalityBlocks int
	RunInterval    time.Duration
	ListenAddr     string
	APIToken       string // optional — empty means the read API is open
	DatabaseURL    string
}

// LoadConfig reads configuration from the environment. godotenv is loaded by
// main before this runs, so .env values are already visible here.
func LoadConfig() Config {
	cfg := Config{
		MaxChunkSize:   utils.GetEnvInt("PNL_INDEXER_CHUNK_SIZE", defaultChunkBlocks, minChunkBlocks, 20000),
		LookbackBlocks: utils.GetEnvInt("PNL_INDEXER_LOOKBACK_BLOCKS", defaultLookbackBlocks, 1000, 10000000),
		FinalityBlocks: utils.GetEnvInt("PNL_INDEXER_FINALITY_BLOCKS", defaultFinalityBlocks, 0, 5000),
		RunInterval:    time.Duration(utils.GetEnvInt("PNL_INDEXER_RUN_INTERVAL_MINUTES", defaultRunIntervalMinute, 1, 1440)) * time.Minute,
		ListenAddr:     utils.GetEnv("LISTEN_ADDR", ":5300"),
		APIToken:       utils.GetEnv("PNL_API_TOKEN", ""),
		DatabaseURL:    utils.GetEnv("DATABASE_URL", ""),
	}

	switch parseTargetChain(utils.GetEnv("TARGET_CHAIN", "arbitrum")) {
	case "arbitrum-sepolia":
		cfg.ChainID = chainIDArbitrumSepolia
		cfg.ChainName = "arbitrum-sepolia"
		cfg.RPCURL = utils.GetEnv("ARBITRUM_RPC_URL", defaultArbitrumSepolia)
	default:
		cfg.ChainID = chainIDArbitrum
		cfg.ChainName = "arbitrum"
		cfg.RPCURL = utils.GetEnv("ARBITRUM_RPC_URL", defaultArbitrumRPC)
	}

	pools := []PoolConfig{
		{Protocol: ProtocolAaveV3, PoolAddress: utils.GetEnv("AAVE_POOL_ADDRESS", defaultAavePool)},
		{Protocol: ProtocolRadiantV2, PoolAddress: utils.GetEnv("RADIANT_POOL_ADDRESS", defaultRadiantPool)},
	}
	for _, pool := range pools {
		if pool.PoolAddress != "" && pool.PoolAddress != ZeroAddress {
			cfg.Pools = append(cfg.Pools, pool)
		}
	}

	return cfg
}

func parseTargetChain(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "421614", "arbitrum-sepolia", "arbitrumsepolia":
		return "arbitrum-sepolia"
	default:
		return "arbitrum"
	}
}
