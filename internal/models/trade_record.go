package models

import "gorm.io/gorm"

// Action types recorded against a trade record.
const (
	ActionOpen       = "OPEN"
	ActionClose      = "CLOSE"
	ActionUpdateStop = "UPDATE_STOP"
)

// Outcome tags for order mutations.
const (
	OutcomeExecuted = "EXECUTED"
	OutcomeClosed   = "CLOSED"
	OutcomeUpdated  = "UPDATED"
	OutcomeFailed   = "FAILED"
	OutcomeError    = "ERROR"
)

// TradeRecord is one append-only entry in the trade log: an opened trade, a
// position close, or a stop update, tagged with how the broker responded.
type TradeRecord struct {
	gorm.Model
	Timestamp  string  `json:"timestamp"` // RFC3339 UTC
	Epic       string  `json:"epic"`
	ActionType string  `json:"action_type"` // OPEN, CLOSE or UPDATE_STOP
	Direction  string  `json:"direction,omitempty"`
	Size       float64 `json:"size,omitempty"`
	EntryPrice float64 `json:"entry_price,omitempty"`
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`
	NewLevel   float64 `json:"new_level,omitempty"`
	RiskPct    float64 `json:"risk_percent,omitempty"`
	RiskReward float64 `json:"risk_reward,omitempty"`
	Pattern    string  `json:"pattern,omitempty"`
	Outcome    string  `json:"outcome"` // EXECUTED, CLOSED, UPDATED, FAILED or ERROR
	DealID     string  `json:"deal_id,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	IsDryRun   bool    `json:"is_dry_run"`
}
