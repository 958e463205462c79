package memory

import (
	"fmt"

	"github.com/connormilton/forest/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store is the trade memory: the append-only trade log plus the per-agent
// feedback notes that get folded back into the next prompt.
type Store interface {
	RecordTrade(record models.TradeRecord)
	RecentTrades(n int) []models.TradeRecord
	AllTrades() []models.TradeRecord
	UpdateFeedback(agent, feedback string)
	Feedback() map[string]string
}

// Memory is the gorm-backed Store implementation.
type Memory struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ Store = (*Memory)(nil)

// New creates a new trade memory over the given database.
func New(db *gorm.DB, logger *zap.Logger) *Memory {
	return &Memory{db: db, logger: logger}
}

// RecordTrade appends one trade/close/update outcome to the trade log.
// Failures are logged and swallowed: losing one log row must not stop a cycle.
func (m *Memory) RecordTrade(record models.TradeRecord) {
	if err := m.db.Create(&record).Error; err != nil {
		m.logger.Error("Failed to save trade record", zap.Error(err))
		return
	}
	m.logger.Info("Trade record saved",
		zap.String("epic", record.Epic),
		zap.String("action_type", record.ActionType),
		zap.String("outcome", record.Outcome),
	)
}

// RecentTrades returns the n most recent trade records, newest first.
func (m *Memory) RecentTrades(n int) []models.TradeRecord {
	var trades []models.TradeRecord
	if err := m.db.Order("id desc").Limit(n).Find(&trades).Error; err != nil {
		m.logger.Error("Failed to load recent trades", zap.Error(err))
		return []models.TradeRecord{}
	}
	return trades
}

// AllTrades returns the full trade history, oldest first.
func (m *Memory) AllTrades() []models.TradeRecord {
	var trades []models.TradeRecord
	if err := m.db.Order("id asc").Find(&trades).Error; err != nil {
		m.logger.Error("Failed to load trade history", zap.Error(err))
		return []models.TradeRecord{}
	}
	return trades
}

// UpdateFeedback stores the latest self-improvement note for an agent,
// replacing any previous one.
func (m *Memory) UpdateFeedback(agent, feedback string) {
	row := models.AgentFeedback{Agent: agent}
	err := m.db.Where(models.AgentFeedback{Agent: agent}).
		Assign(models.AgentFeedback{Feedback: feedback}).
		FirstOrCreate(&row).Error
	if err != nil {
		m.logger.Error("Failed to save agent feedback", zap.String("agent", agent), zap.Error(err))
		return
	}
	m.logger.Info("Agent feedback updated", zap.String("agent", agent))
}

// Feedback returns the current feedback notes keyed by agent name.
func (m *Memory) Feedback() map[string]string {
	var rows []models.AgentFeedback
	if err := m.db.Find(&rows).Error; err != nil {
		m.logger.Error("Failed to load agent feedback", zap.Error(err))
		return map[string]string{}
	}

	feedback := make(map[string]string, len(rows))
	for _, r := range rows {
		feedback[r.Agent] = r.Feedback
	}
	return feedback
}

// TradeStats summarizes outcomes over the whole trade log.
type TradeStats struct {
	Total    int64 `json:"total"`
	Executed int64 `json:"executed"`
	Failed   int64 `json:"failed"`
}

// Stats counts trade outcomes for the status surface.
func (m *Memory) Stats() (TradeStats, error) {
	var stats TradeStats
	if err := m.db.Model(&models.TradeRecord{}).Count(&stats.Total).Error; err != nil {
		return stats, fmt.Errorf("failed to count trades: %w", err)
	}
	if err := m.db.Model(&models.TradeRecord{}).
		Where("outcome IN ?", []string{models.OutcomeExecuted, models.OutcomeClosed, models.OutcomeUpdated}).
		Count(&stats.Executed).Error; err != nil {
		return stats, fmt.Errorf("failed to count executed trades: %w", err)
	}
	stats.Failed = stats.Total - stats.Executed
	return stats, nil
}
