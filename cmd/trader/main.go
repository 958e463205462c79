package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/connormilton/forest/internal/budget"
	"github.com/connormilton/forest/internal/collector"
	"github.com/connormilton/forest/internal/config"
	"github.com/connormilton/forest/internal/database"
	"github.com/connormilton/forest/internal/executor"
	"github.com/connormilton/forest/internal/ig"
	"github.com/connormilton/forest/internal/llm"
	"github.com/connormilton/forest/internal/logger"
	"github.com/connormilton/forest/internal/memory"
	"github.com/connormilton/forest/internal/polygon"
	"github.com/connormilton/forest/internal/trader"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Credentials live in .env during development; missing file is fine.
	_ = godotenv.Load()

	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Initializing collaborative LLM forex trading system")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Connect to the trading APIs
	igClient := ig.NewClient(&cfg.IG, log)
	if err := igClient.Login(); err != nil {
		log.Fatal("Failed to connect to IG API. Exiting.", zap.Error(err))
	}
	polygonClient := polygon.NewClient(&cfg.Polygon, log)

	// Assemble the decision pipeline
	store := memory.New(db, log)
	budgetManager, err := budget.NewManager(db, cfg.Budget.DailyLimit, log)
	if err != nil {
		log.Fatal("Failed to initialize budget manager", zap.Error(err))
	}
	llmClient := llm.NewClient(&cfg.LLM, log)
	dataCollector := collector.New(igClient, polygonClient, cfg.IG.AccountID, log)
	executorAgent := executor.New(llmClient, budgetManager, store,
		cfg.Budget.CostEstimate, cfg.Trading.ResultsPath, log)
	orders := trader.NewOrderExecutor(igClient, cfg.IG.AccountCurrency, cfg.Trading.DryRun, log)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Initialize and run the trading engine
	engine := trader.NewEngine(log, &cfg, dataCollector, executorAgent, orders, store, budgetManager)

	apiServer := trader.NewAPIServer(engine, log)
	apiServer.Start()
	defer func() {
		if err := apiServer.Stop(context.Background()); err != nil {
			log.Error("Failed to stop API server", zap.Error(err))
		}
	}()

	engine.Run(ctx)

	log.Info("Bot has been shut down.")
}
