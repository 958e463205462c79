package trader

import (
	"time"

	"github.com/connormilton/forest/internal/executor"
	"github.com/connormilton/forest/internal/ig"
	"github.com/connormilton/forest/internal/models"
	"go.uber.org/zap"
)

// OrderExecutor translates parsed decision actions into IG order calls.
// Every call returns a structured outcome record instead of propagating
// broker failures; the bool reports whether the broker was actually reached
// with a resolvable request.
type OrderExecutor struct {
	ig       ig.ClientInterface
	logger   *zap.Logger
	currency string
	dryRun   bool
}

// NewOrderExecutor creates an OrderExecutor. currency is the account currency
// sent with every open order.
func NewOrderExecutor(client ig.ClientInterface, currency string, dryRun bool, logger *zap.Logger) *OrderExecutor {
	return &OrderExecutor{
		ig:       client,
		logger:   logger,
		currency: currency,
		dryRun:   dryRun,
	}
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ExecuteTrade opens a new position for a trade action.
func (o *OrderExecutor) ExecuteTrade(trade executor.TradeAction, account ig.Account) (bool, models.TradeRecord) {
	o.logger.Info("Executing trade",
		zap.String("epic", trade.Epic),
		zap.String("direction", trade.Direction),
		zap.Float64("size", trade.Size),
	)

	if account.AccountID != "" && account.Balance.Balance <= 0 {
		o.logger.Warn("Attempting to trade with account that has non-positive balance",
			zap.String("account_id", account.AccountID),
			zap.Float64("balance", account.Balance.Balance),
		)
	}

	record := models.TradeRecord{
		Timestamp:  nowUTC(),
		Epic:       trade.Epic,
		ActionType: models.ActionOpen,
		Direction:  trade.Direction,
		Size:       trade.Size,
		EntryPrice: trade.EntryPrice,
		StopLoss:   trade.InitialStopLoss,
		RiskPct:    trade.RiskPercent,
		RiskReward: trade.RiskReward,
		Pattern:    trade.Pattern,
		IsDryRun:   o.dryRun,
	}
	if len(trade.TakeProfitLevels) > 0 {
		record.TakeProfit = trade.TakeProfitLevels[0]
	}

	if o.dryRun {
		o.logger.Warn("Dry run enabled, no real trade will be executed", zap.String("epic", trade.Epic))
		record.Outcome = models.OutcomeExecuted
		return true, record
	}

	order := ig.CreateOrderRequest{
		Epic:           trade.Epic,
		Direction:      trade.Direction,
		Size:           trade.Size,
		OrderType:      ig.OrderTypeMarket,
		CurrencyCode:   o.currency,
		Expiry:         "DFB",
		ForceOpen:      true,
		GuaranteedStop: false,
	}
	if trade.InitialStopLoss > 0 {
		stop := trade.InitialStopLoss
		order.StopLevel = &stop
	}
	if len(trade.TakeProfitLevels) > 0 {
		limit := trade.TakeProfitLevels[0]
		order.LimitLevel = &limit
	}

	confirmation, err := o.ig.CreateOpenPosition(order)
	if err != nil {
		o.logger.Error("Trade execution error", zap.Error(err))
		record.Outcome = models.OutcomeError
		record.Reason = err.Error()
		return false, record
	}

	o.logger.Info("Trade response",
		zap.String("deal_status", confirmation.DealStatus),
		zap.String("deal_id", confirmation.DealID),
		zap.String("reason", confirmation.Reason),
	)

	if confirmation.Accepted() {
		record.Outcome = models.OutcomeExecuted
	} else {
		record.Outcome = models.OutcomeFailed
	}
	record.DealID = confirmation.DealID
	record.Reason = confirmation.Reason
	return true, record
}

// ClosePosition closes an open position named by a position action. The deal's
// direction and size are resolved from the already-fetched position set; an
// unknown deal id fails fast without touching the broker.
func (o *OrderExecutor) ClosePosition(action executor.PositionAction, positions []ig.Position) (bool, models.TradeRecord) {
	o.logger.Info("Closing position",
		zap.String("deal_id", action.DealID),
		zap.String("epic", action.Epic),
	)

	record := models.TradeRecord{
		Timestamp:  nowUTC(),
		Epic:       action.Epic,
		ActionType: models.ActionClose,
		Direction:  "CLOSE",
		DealID:     action.DealID,
		Reason:     action.Reason,
		IsDryRun:   o.dryRun,
	}

	var position *ig.Position
	for i := range positions {
		if positions[i].DealID == action.DealID {
			position = &positions[i]
			break
		}
	}
	if position == nil {
		o.logger.Warn("Position not found for close", zap.String("deal_id", action.DealID))
		record.Outcome = models.OutcomeFailed
		record.Reason = "Position not found"
		return false, record
	}

	if o.dryRun {
		o.logger.Warn("Dry run enabled, position will not be closed", zap.String("deal_id", action.DealID))
		record.Outcome = models.OutcomeClosed
		return true, record
	}

	// Closing means dealing in the opposite direction for the full size.
	closeDirection := ig.DirectionSell
	if position.Direction == ig.DirectionSell {
		closeDirection = ig.DirectionBuy
	}

	confirmation, err := o.ig.ClosePosition(action.DealID, closeDirection, position.Size)
	if err != nil {
		o.logger.Error("Close position error", zap.Error(err))
		record.Outcome = models.OutcomeError
		record.Reason = err.Error()
		return false, record
	}

	if confirmation.Accepted() {
		record.Outcome = models.OutcomeClosed
	} else {
		record.Outcome = models.OutcomeFailed
		record.Reason = confirmation.Reason
	}
	return true, record
}

// UpdateStopLoss moves the stop of an open position to the action's new level.
func (o *OrderExecutor) UpdateStopLoss(action executor.PositionAction) (bool, models.TradeRecord) {
	o.logger.Info("Updating stop",
		zap.String("deal_id", action.DealID),
		zap.Float64("new_level", action.NewLevel),
	)

	record := models.TradeRecord{
		Timestamp:  nowUTC(),
		Epic:       action.Epic,
		ActionType: models.ActionUpdateStop,
		NewLevel:   action.NewLevel,
		DealID:     action.DealID,
		Reason:     action.Reason,
		IsDryRun:   o.dryRun,
	}

	if o.dryRun {
		o.logger.Warn("Dry run enabled, stop will not be updated", zap.String("deal_id", action.DealID))
		record.Outcome = models.OutcomeUpdated
		return true, record
	}

	confirmation, err := o.ig.UpdatePosition(action.DealID, action.NewLevel)
	if err != nil {
		o.logger.Error("Update stop loss error", zap.Error(err))
		record.Outcome = models.OutcomeError
		record.Reason = err.Error()
		return false, record
	}

	if confirmation.Accepted() {
		record.Outcome = models.OutcomeUpdated
	} else {
		record.Outcome = models.OutcomeFailed
		record.Reason = confirmation.Reason
	}
	return true, record
}
