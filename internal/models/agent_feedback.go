package models

import "gorm.io/gorm"

// AgentFeedback stores the latest self-improvement note per agent.
// There is one row per agent name.
type AgentFeedback struct {
	gorm.Model
	Agent    string `gorm:"uniqueIndex" json:"agent"`
	Feedback string `json:"feedback"`
}
