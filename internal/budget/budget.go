package budget

import (
	"fmt"
	"sync"
	"time"

	"github.com/connormilton/forest/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Gate decides whether an agent may spend on an LLM call and records what it
// actually spent.
type Gate interface {
	CanSpend(estimate float64) bool
	LogUsage(agent string, promptTokens, completionTokens int, cost float64)
}

// Manager tracks LLM spend against a daily limit. Usage rows are persisted so
// a restart mid-day keeps counting from where it left off.
type Manager struct {
	db         *gorm.DB
	logger     *zap.Logger
	dailyLimit float64

	mu         sync.Mutex
	spentToday float64
	day        string
}

var _ Gate = (*Manager)(nil)

// NewManager creates a budget manager and loads today's spend from the database.
func NewManager(db *gorm.DB, dailyLimit float64, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		db:         db,
		logger:     logger,
		dailyLimit: dailyLimit,
		day:        today(),
	}

	var spent *float64
	err := db.Model(&models.LLMUsage{}).
		Where("day = ?", m.day).
		Select("SUM(cost)").
		Scan(&spent).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load today's LLM spend: %w", err)
	}
	if spent != nil {
		m.spentToday = *spent
	}

	logger.Info("Budget manager initialized",
		zap.Float64("daily_limit", dailyLimit),
		zap.Float64("spent_today", m.spentToday),
	)
	return m, nil
}

// CanSpend reports whether an estimated cost fits in what is left of today's
// budget.
func (m *Manager) CanSpend(estimate float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollover()
	return m.spentToday+estimate <= m.dailyLimit
}

// LogUsage records one billed call and adds its cost to today's total.
// A failed insert still counts the spend in memory, so the gate stays honest.
func (m *Manager) LogUsage(agent string, promptTokens, completionTokens int, cost float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollover()
	m.spentToday += cost

	usage := models.LLMUsage{
		Agent:            agent,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		Cost:             cost,
		Day:              m.day,
	}
	if err := m.db.Create(&usage).Error; err != nil {
		m.logger.Error("Failed to save LLM usage record", zap.Error(err))
	}

	m.logger.Info("LLM usage logged",
		zap.String("agent", agent),
		zap.Int("prompt_tokens", promptTokens),
		zap.Int("completion_tokens", completionTokens),
		zap.Float64("cost", cost),
		zap.Float64("spent_today", m.spentToday),
	)
}

// SpentToday returns today's accumulated spend.
func (m *Manager) SpentToday() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollover()
	return m.spentToday
}

// rollover resets the counter when the UTC day changes. Callers must hold mu.
func (m *Manager) rollover() {
	if d := today(); d != m.day {
		m.day = d
		m.spentToday = 0
	}
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}
