package trader

import (
	"testing"

	"github.com/connormilton/forest/internal/collector"
	"github.com/stretchr/testify/assert"
)

func TestBuildAnalysis(t *testing.T) {
	t.Run("EmptyMarketYieldsEmptyAnalysis", func(t *testing.T) {
		analysis := buildAnalysis(map[string]collector.MarketData{})
		assert.Empty(t, analysis)
	})

	t.Run("SummarizesPricesAndCloses", func(t *testing.T) {
		bid, offer := 1.0850, 1.0853
		market := map[string]collector.MarketData{
			"CS.D.EURUSD.TODAY.IP": {
				Timeframes: map[string][]collector.Bar{
					"h1": {
						{Close: 1.0810},
						{Close: 1.0845},
					},
				},
				Current: &collector.PriceSnapshot{Bid: &bid, Offer: &offer},
			},
		}

		analysis := buildAnalysis(market)

		assert.NotEmpty(t, analysis["timestamp"])
		instruments := analysis["instruments"].(map[string]interface{})
		entry := instruments["CS.D.EURUSD.TODAY.IP"].(map[string]interface{})
		assert.Equal(t, 1.0850, entry["bid"])
		assert.Equal(t, 1.0853, entry["offer"])
		assert.Equal(t, 1.0845, entry["last_close_h1"], "latest bar wins")
	})

	t.Run("MissingSnapshotStillSummarizesBars", func(t *testing.T) {
		market := map[string]collector.MarketData{
			"CS.D.USDJPY.TODAY.IP": {
				Timeframes: map[string][]collector.Bar{"m15": {{Close: 150.12}}},
			},
		}

		analysis := buildAnalysis(market)

		instruments := analysis["instruments"].(map[string]interface{})
		entry := instruments["CS.D.USDJPY.TODAY.IP"].(map[string]interface{})
		assert.Equal(t, 150.12, entry["last_close_m15"])
		assert.NotContains(t, entry, "bid")
	})
}
