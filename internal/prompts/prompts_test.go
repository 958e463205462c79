package prompts

import (
	"strings"
	"testing"

	"github.com/connormilton/forest/internal/collector"
	"github.com/connormilton/forest/internal/ig"
	"github.com/connormilton/forest/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDecisionMaker(t *testing.T) {
	analysis := map[string]interface{}{"bias": "bullish"}
	account := ig.Account{AccountID: "ABC123", Currency: "GBP", Balance: ig.AccountBalance{Balance: 1000}}
	positions := []ig.Position{{DealID: "DIAAAA1", Epic: "CS.D.EURUSD.TODAY.IP", Direction: "BUY", Size: 1.0}}
	bid := 1.085
	market := map[string]collector.MarketData{
		"CS.D.EURUSD.TODAY.IP": {
			Timeframes: map[string][]collector.Bar{"h1": {{Timestamp: "2025-05-01T08:00:00Z", Close: 1.0845}}},
			Current:    &collector.PriceSnapshot{Epic: "CS.D.EURUSD.TODAY.IP", Bid: &bid},
		},
	}
	recent := []models.TradeRecord{{Epic: "CS.D.GBPUSD.TODAY.IP", Outcome: models.OutcomeExecuted}}
	all := []models.TradeRecord{
		{Outcome: models.OutcomeExecuted},
		{Outcome: models.OutcomeExecuted},
		{Outcome: models.OutcomeFailed},
	}

	prompt := DecisionMaker(analysis, account, positions, map[string]string{"executor": "be patient"}, market, recent, all)

	// Every input section is embedded.
	assert.Contains(t, prompt, `"bias":"bullish"`)
	assert.Contains(t, prompt, `"accountId":"ABC123"`)
	assert.Contains(t, prompt, `"dealId":"DIAAAA1"`)
	assert.Contains(t, prompt, `"bid":1.085`)
	assert.Contains(t, prompt, "be patient")

	// History is summarized by outcome, not dumped verbatim.
	assert.Contains(t, prompt, `"EXECUTED":2`)
	assert.Contains(t, prompt, `"FAILED":1`)
	assert.Contains(t, prompt, `"total":3`)

	// The response contract is stated once, up front.
	assert.True(t, strings.HasPrefix(prompt, "You are the final decision maker"))
	assert.Contains(t, prompt, `"trade_actions"`)
	assert.Contains(t, prompt, `"position_actions"`)
	assert.Contains(t, prompt, `"self_improvement"`)
}

func TestDecisionMakerOmitsEmptyFeedback(t *testing.T) {
	prompt := DecisionMaker(map[string]interface{}{"x": 1}, ig.Account{}, nil, nil, nil, nil, nil)
	assert.NotContains(t, prompt, "PRIOR FEEDBACK")
}
