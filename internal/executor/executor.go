// Package executor implements the decision step: one stateless LLM
// request/response per cycle, gated by budget and parsed into structured
// trade and position actions.
package executor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/connormilton/forest/internal/budget"
	"github.com/connormilton/forest/internal/collector"
	"github.com/connormilton/forest/internal/ig"
	"github.com/connormilton/forest/internal/llm"
	"github.com/connormilton/forest/internal/memory"
	"github.com/connormilton/forest/internal/prompts"
	"go.uber.org/zap"
)

const (
	agentName    = "executor"
	systemPrompt = "You are a forex trading executor that works in a collaborative team of trading agents."

	// How many recent trades go into the prompt verbatim.
	recentTradeCount = 5
)

// fencedJSON matches a ```json ... ``` (or bare ```) block; used as a
// fallback when the model wraps its JSON in a code fence.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// Agent makes the final trading decision for a cycle. It never returns an
// error to its caller: every failure path logs and yields a nil Result.
type Agent struct {
	llm          llm.ChatClient
	budget       budget.Gate
	memory       memory.Store
	logger       *zap.Logger
	costEstimate float64
	resultsPath  string
}

// New creates a new executor agent. costEstimate is the pre-call budget
// estimate in USD; resultsPath is the JSONL audit log of raw decisions.
func New(chat llm.ChatClient, gate budget.Gate, store memory.Store, costEstimate float64, resultsPath string, logger *zap.Logger) *Agent {
	return &Agent{
		llm:          chat,
		budget:       gate,
		memory:       store,
		logger:       logger,
		costEstimate: costEstimate,
		resultsPath:  resultsPath,
	}
}

// Run assembles the decision prompt, calls the model and parses its reply.
// A nil return means "no decision this cycle"; the reason is in the log.
func (a *Agent) Run(
	analysis map[string]interface{},
	market map[string]collector.MarketData,
	account ig.Account,
	positions []ig.Position,
) *Result {
	a.logger.Info("Running executor agent")

	if len(analysis) == 0 {
		a.logger.Warn("No analysis results for execution")
		return nil
	}

	recent := a.memory.RecentTrades(recentTradeCount)
	all := a.memory.AllTrades()
	prompt := prompts.DecisionMaker(analysis, account, positions, a.memory.Feedback(), market, recent, all)

	if !a.budget.CanSpend(a.costEstimate) {
		a.logger.Warn("Insufficient budget for executor agent", zap.Float64("estimate", a.costEstimate))
		return nil
	}

	content, usage, err := a.llm.ChatJSON(systemPrompt, prompt)
	if err != nil {
		a.logger.Error("LLM API error", zap.Error(err))
		return nil
	}

	cost := calculateCost(usage)
	a.budget.LogUsage(agentName, usage.PromptTokens, usage.CompletionTokens, cost)

	result, err := parseResult(content)
	if err != nil {
		a.logger.Error("Failed to extract JSON from response", zap.Error(err))
		return nil
	}

	a.logger.Info("Executor generated decision",
		zap.Int("trade_actions", len(result.TradeActions)),
		zap.Int("position_actions", len(result.PositionActions)),
	)

	if result.SelfImprovement != "" {
		a.memory.UpdateFeedback(agentName, result.SelfImprovement)
	}

	a.saveResult(result)
	return result
}

// calculateCost converts token usage into USD at GPT-4 list pricing.
func calculateCost(u llm.Usage) float64 {
	return (float64(u.PromptTokens)*0.03 + float64(u.CompletionTokens)*0.06) / 1000
}

// parseResult parses the raw response as JSON, falling back to the contents
// of a fenced code block when the direct parse fails.
func parseResult(raw string) (*Result, error) {
	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err == nil {
		return &result, nil
	}

	match := fencedJSON.FindStringSubmatch(raw)
	if match == nil {
		return nil, fmt.Errorf("response is not JSON and contains no fenced JSON block")
	}
	if err := json.Unmarshal([]byte(match[1]), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON from fenced block: %w", err)
	}
	return &result, nil
}

// saveResult appends the decision to the JSONL audit log. Audit failures are
// logged only; the decision itself still stands.
func (a *Agent) saveResult(result *Result) {
	entry := struct {
		Timestamp string  `json:"timestamp"`
		Result    *Result `json:"result"`
	}{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Result:    result,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		a.logger.Error("Error saving executor result", zap.Error(err))
		return
	}

	if err := os.MkdirAll(filepath.Dir(a.resultsPath), 0o755); err != nil {
		a.logger.Error("Error saving executor result", zap.Error(err))
		return
	}
	f, err := os.OpenFile(a.resultsPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		a.logger.Error("Error saving executor result", zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, string(line)); err != nil {
		a.logger.Error("Error saving executor result", zap.Error(err))
	}
}
