package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"lending-pnl-system/handlers"
	"lending-pnl-system/models"
	"lending-pnl-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg := services.LoadConfig()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}
	if len(cfg.Pools) == 0 {
		log.Fatal("no protocol pool addresses configured for indexing")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.IndexerCursor{},
		&models.ActivityEvent{},
		&models.WalletPosition{},
		&models.WalletDailyPnl{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	chainClient, err := services.NewChainClient(cfg.RPCURL)
	if err != nil {
		log.Fatal("failed to connect to RPC:", err)
	}

	indexer := services.NewIndexerService(
		cfg,
		chainClient,
		services.NewScanner(chainClient, cfg.MaxChunkSize),
		services.NewTokenService(chainClient),
		services.NewPriceService(),
		services.NewEventStore(db),
		services.NewCursorService(db),
		services.NewLedgerService(db),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// First pass right away; the scheduler takes over from there.
	go func() {
		if err := indexer.Run(ctx); err != nil && !errors.Is(err, services.ErrRunInProgress) {
			log.Printf("❌ initial indexing run failed: %v", err)
		}
	}()

	sched, err := services.StartIndexScheduler(ctx, indexer, cfg.RunInterval)
	if err != nil {
		log.Fatal("failed to start index scheduler:", err)
	}

	app := fiber.New()
	handlers.SetupPnlRoutes(app, db, cfg.APIToken, cfg.ChainID)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ PnL read API running on %s", cfg.ListenAddr)
	log.Printf("✅ Indexer scheduled every %s for chain %s (%d)", cfg.RunInterval, cfg.ChainName, cfg.ChainID)

	<-ctx.Done()
	log.Println("Shutting down...")
	if err := sched.Shutdown(); err != nil {
		log.Printf("scheduler shutdown error: %v", err)
	}
	if err := app.Shutdown(); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}
