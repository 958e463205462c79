package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/connormilton/forest/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log *zap.Logger
	db  *gorm.DB
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, db *gorm.DB) *APIHandler {
	return &APIHandler{log: log, db: db}
}

// TradesHandler returns the trade log, most recent first.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	var trades []models.TradeRecord
	if err := h.db.Order("id desc").Find(&trades).Error; err != nil {
		h.log.Error("Failed to get trades from database", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trades)
}

// StatsDetail holds outcome counts for a given period.
type StatsDetail struct {
	TotalActions int64 `json:"total_actions"`
	Executed     int64 `json:"executed"`
	Closed       int64 `json:"closed"`
	Updated      int64 `json:"updated"`
	Failed       int64 `json:"failed"`
	Errors       int64 `json:"errors"`
}

// StatisticsResponse is the structure for the /api/statistics endpoint.
type StatisticsResponse struct {
	Since24h StatsDetail `json:"since_24h"`
	AllTime  StatsDetail `json:"all_time"`
}

// StatisticsHandler calculates and returns trade outcome statistics.
func (h *APIHandler) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	var allTrades []models.TradeRecord
	if err := h.db.Find(&allTrades).Error; err != nil {
		h.log.Error("Failed to get trades for statistics", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}

	since24h := time.Now().UTC().Add(-24 * time.Hour)

	stats24h := StatsDetail{}
	statsAllTime := StatsDetail{}

	for _, trade := range allTrades {
		tally(&statsAllTime, trade)

		tradeTime, err := time.Parse(time.RFC3339, trade.Timestamp)
		if err == nil && tradeTime.After(since24h) {
			tally(&stats24h, trade)
		}
	}

	response := StatisticsResponse{
		Since24h: stats24h,
		AllTime:  statsAllTime,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func tally(s *StatsDetail, trade models.TradeRecord) {
	s.TotalActions++
	switch trade.Outcome {
	case models.OutcomeExecuted:
		s.Executed++
	case models.OutcomeClosed:
		s.Closed++
	case models.OutcomeUpdated:
		s.Updated++
	case models.OutcomeFailed:
		s.Failed++
	case models.OutcomeError:
		s.Errors++
	}
}

// UsageResponse is the structure for the /api/usage endpoint.
type UsageResponse struct {
	TotalCost float64          `json:"total_cost"`
	Calls     []models.LLMUsage `json:"calls"`
}

// UsageHandler returns the LLM usage ledger, most recent first.
func (h *APIHandler) UsageHandler(w http.ResponseWriter, r *http.Request) {
	var calls []models.LLMUsage
	if err := h.db.Order("id desc").Find(&calls).Error; err != nil {
		h.log.Error("Failed to get LLM usage from database", zap.Error(err))
		http.Error(w, "Failed to get usage", http.StatusInternalServerError)
		return
	}

	var total float64
	for _, c := range calls {
		total += c.Cost
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(UsageResponse{TotalCost: total, Calls: calls})
}
