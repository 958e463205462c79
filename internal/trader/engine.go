package trader

import (
	"context"
	"time"

	"github.com/connormilton/forest/internal/budget"
	"github.com/connormilton/forest/internal/collector"
	"github.com/connormilton/forest/internal/config"
	"github.com/connormilton/forest/internal/executor"
	"github.com/connormilton/forest/internal/memory"
	"go.uber.org/zap"
)

// Engine drives the decision cycle: collect account/position/market data,
// ask the executor agent for a decision, then translate its actions into
// broker calls and trade-log records. One cycle per tick, strictly
// sequential; a failed cycle degrades and waits for the next tick.
type Engine struct {
	logger    *zap.Logger
	cfg       *config.Config
	collector *collector.Collector
	executor  *executor.Agent
	orders    *OrderExecutor
	memory    memory.Store
	budget    *budget.Manager

	Name      string
	StartTime time.Time
}

// NewEngine creates a new trading engine.
func NewEngine(
	logger *zap.Logger,
	cfg *config.Config,
	dataCollector *collector.Collector,
	executorAgent *executor.Agent,
	orders *OrderExecutor,
	store memory.Store,
	budgetManager *budget.Manager,
) *Engine {
	return &Engine{
		logger:    logger,
		cfg:       cfg,
		collector: dataCollector,
		executor:  executorAgent,
		orders:    orders,
		memory:    store,
		budget:    budgetManager,
		Name:      "forest-trader",
		StartTime: time.Now(),
	}
}

// Run starts the engine's main loop and blocks until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	interval := time.Duration(e.cfg.Trading.TickInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("Starting decision loop",
		zap.Duration("interval", interval),
		zap.Int("watchlist", len(e.watchlist())),
		zap.Bool("dry_run", e.cfg.Trading.DryRun),
	)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping trading engine...")
			return
		case <-ticker.C:
			e.cycle()
		}
	}
}

// watchlist returns the configured epics, or every supported epic when the
// config does not narrow it down.
func (e *Engine) watchlist() []string {
	if len(e.cfg.Trading.Epics) > 0 {
		return e.cfg.Trading.Epics
	}
	return collector.SupportedEpics()
}

// cycle performs one full collect-decide-act round.
func (e *Engine) cycle() {
	e.logger.Info("Starting decision cycle")

	account := e.collector.GetAccountData()
	positions := e.collector.GetPositions()

	market := make(map[string]collector.MarketData)
	for _, epic := range e.watchlist() {
		data := e.collector.GetMarketData(epic, nil)
		if len(data.Timeframes) == 0 && data.Current == nil {
			e.logger.Warn("No market data collected", zap.String("epic", epic))
			continue
		}
		market[epic] = data
	}

	analysis := buildAnalysis(market)
	result := e.executor.Run(analysis, market, account, positions)
	if result == nil {
		e.logger.Info("No decision this cycle")
		return
	}

	for _, trade := range result.TradeActions {
		_, record := e.orders.ExecuteTrade(trade, account)
		e.memory.RecordTrade(record)
	}

	for _, action := range result.PositionActions {
		switch action.Action {
		case executor.PositionActionClose:
			_, record := e.orders.ClosePosition(action, positions)
			e.memory.RecordTrade(record)
		case executor.PositionActionUpdateStop:
			_, record := e.orders.UpdateStopLoss(action)
			e.memory.RecordTrade(record)
		default:
			e.logger.Warn("Unknown position action",
				zap.String("action", action.Action),
				zap.String("deal_id", action.DealID),
			)
		}
	}

	e.logger.Info("Decision cycle complete",
		zap.Int("trade_actions", len(result.TradeActions)),
		zap.Int("position_actions", len(result.PositionActions)),
	)
}

// buildAnalysis condenses collected market data into the analysis payload the
// executor prompt leads with: per-instrument current prices and latest closes.
func buildAnalysis(market map[string]collector.MarketData) map[string]interface{} {
	if len(market) == 0 {
		return map[string]interface{}{}
	}

	instruments := make(map[string]interface{}, len(market))
	for epic, data := range market {
		entry := map[string]interface{}{}
		if data.Current != nil {
			if data.Current.Bid != nil {
				entry["bid"] = *data.Current.Bid
			}
			if data.Current.Offer != nil {
				entry["offer"] = *data.Current.Offer
			}
		}
		for key, bars := range data.Timeframes {
			if len(bars) > 0 {
				entry["last_close_"+key] = bars[len(bars)-1].Close
			}
		}
		instruments[epic] = entry
	}

	return map[string]interface{}{
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"instruments": instruments,
	}
}
