// Package prompts assembles the natural-language prompts sent to the
// decision model. Input sections are embedded as compact JSON so the model
// sees exactly what the collectors produced.
package prompts

import (
	"encoding/json"
	"strings"

	"github.com/connormilton/forest/internal/collector"
	"github.com/connormilton/forest/internal/ig"
	"github.com/connormilton/forest/internal/models"
)

const decisionInstructions = `You are the final decision maker in a collaborative forex trading team.
Review the analysis, account state, open positions, market data and trade history below,
then decide which new trades to open and what to do with the open positions.

Respond ONLY with a single JSON object of this shape:
{
  "trade_actions": [
    {
      "epic": "CS.D.EURUSD.TODAY.IP",
      "direction": "BUY" or "SELL",
      "size": 1.0,
      "entry_price": 1.0850,
      "initial_stop_loss": 1.0800,
      "take_profit_levels": [1.0900, 1.0950],
      "risk_percent": 1.0,
      "risk_reward": 2.0,
      "pattern": "short description of the setup",
      "reason": "why this trade"
    }
  ],
  "position_actions": [
    {
      "dealId": "DIAAAA...",
      "epic": "CS.D.EURUSD.TODAY.IP",
      "action": "CLOSE" or "UPDATE_STOP",
      "new_level": 1.0820,
      "reason": "why"
    }
  ],
  "self_improvement": "optional feedback on how to improve your own decisions"
}

Only trade instruments present in the market data. Leave both action lists empty
if nothing meets your criteria.`

// DecisionMaker builds the executor agent prompt from the cycle's inputs.
func DecisionMaker(
	analysis map[string]interface{},
	account ig.Account,
	positions []ig.Position,
	feedback map[string]string,
	market map[string]collector.MarketData,
	recentTrades []models.TradeRecord,
	allTrades []models.TradeRecord,
) string {
	var b strings.Builder
	b.WriteString(decisionInstructions)

	writeSection(&b, "ANALYSIS RESULTS", analysis)
	writeSection(&b, "ACCOUNT", account)
	writeSection(&b, "OPEN POSITIONS", positions)
	writeSection(&b, "MARKET DATA", market)
	writeSection(&b, "RECENT TRADES", recentTrades)
	writeSection(&b, "TRADE HISTORY SUMMARY", summarizeTrades(allTrades))
	if len(feedback) > 0 {
		writeSection(&b, "PRIOR FEEDBACK", feedback)
	}

	return b.String()
}

func writeSection(b *strings.Builder, title string, v interface{}) {
	b.WriteString("\n\n## ")
	b.WriteString(title)
	b.WriteString("\n")

	data, err := json.Marshal(v)
	if err != nil {
		b.WriteString("{}")
		return
	}
	b.Write(data)
}

// summarizeTrades condenses the full history into outcome counts so the
// prompt does not grow without bound as the log does.
func summarizeTrades(trades []models.TradeRecord) map[string]int {
	summary := map[string]int{}
	for _, t := range trades {
		summary[t.Outcome]++
		summary["total"]++
	}
	return summary
}
