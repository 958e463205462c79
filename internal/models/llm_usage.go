package models

import "gorm.io/gorm"

// LLMUsage records one billed call to the decision model.
type LLMUsage struct {
	gorm.Model
	Agent            string  `json:"agent"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	Cost             float64 `json:"cost"` // USD
	Day              string  `gorm:"index" json:"day"` // 2006-01-02, UTC; indexed for the daily gate
}
