package executor

// TradeAction is one new-trade instruction from the decision model.
type TradeAction struct {
	Epic             string                   `json:"epic"`
	Direction        string                   `json:"direction"` // BUY or SELL
	Size             float64                  `json:"size"`
	EntryPrice       float64                  `json:"entry_price,omitempty"`
	InitialStopLoss  float64                  `json:"initial_stop_loss,omitempty"`
	TakeProfitLevels []float64                `json:"take_profit_levels,omitempty"`
	RiskPercent      float64                  `json:"risk_percent,omitempty"`
	RiskReward       float64                  `json:"risk_reward,omitempty"`
	Pattern          string                   `json:"pattern,omitempty"`
	Reason           string                   `json:"reason,omitempty"`
	StopManagement   []map[string]interface{} `json:"stop_management,omitempty"`
}

// Position action types emitted by the decision model.
const (
	PositionActionClose      = "CLOSE"
	PositionActionUpdateStop = "UPDATE_STOP"
)

// PositionAction is an instruction against an existing open position.
type PositionAction struct {
	DealID   string  `json:"dealId"`
	Epic     string  `json:"epic,omitempty"`
	Action   string  `json:"action"` // CLOSE or UPDATE_STOP
	NewLevel float64 `json:"new_level,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

// Result is the parsed decision payload of one executor run.
type Result struct {
	TradeActions    []TradeAction    `json:"trade_actions"`
	PositionActions []PositionAction `json:"position_actions"`
	SelfImprovement string           `json:"self_improvement,omitempty"`
}
