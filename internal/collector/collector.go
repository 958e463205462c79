package collector

import (
	"strings"
	"time"

	"github.com/connormilton/forest/internal/ig"
	"github.com/connormilton/forest/internal/polygon"
	"go.uber.org/zap"
)

// epicTickers maps IG instrument epics to Polygon forex tickers.
// Epics outside this table are unsupported.
var epicTickers = map[string]string{
	"CS.D.EURUSD.TODAY.IP": "C:EURUSD",
	"CS.D.USDJPY.TODAY.IP": "C:USDJPY",
	"CS.D.GBPUSD.TODAY.IP": "C:GBPUSD",
	"CS.D.AUDUSD.TODAY.IP": "C:AUDUSD",
	"CS.D.USDCAD.TODAY.IP": "C:USDCAD",
	"CS.D.USDCHF.TODAY.IP": "C:USDCHF",
	"CS.D.NZDUSD.TODAY.IP": "C:NZDUSD",
	"CS.D.EURJPY.TODAY.IP": "C:EURJPY",
	"CS.D.EURGBP.TODAY.IP": "C:EURGBP",
	"CS.D.GBPJPY.TODAY.IP": "C:GBPJPY",
	"CS.D.AUDJPY.TODAY.IP": "C:AUDJPY",
	"CS.D.AUDNZD.TODAY.IP": "C:AUDNZD",
}

// SupportedEpics returns the epics the collector can resolve to a data ticker.
func SupportedEpics() []string {
	epics := make([]string, 0, len(epicTickers))
	for epic := range epicTickers {
		epics = append(epics, epic)
	}
	return epics
}

// Timeframe describes one aggregate-bar request: bar width and lookback window.
type Timeframe struct {
	Multiplier   int
	Timespan     string // minute, hour, day
	LookbackDays int
}

// DefaultTimeframes returns the standard three-timeframe request set.
func DefaultTimeframes() map[string]Timeframe {
	return map[string]Timeframe{
		"m15": {Multiplier: 15, Timespan: "minute", LookbackDays: 1},
		"h1":  {Multiplier: 1, Timespan: "hour", LookbackDays: 2},
		"h4":  {Multiplier: 4, Timespan: "hour", LookbackDays: 5},
	}
}

// Bar is one normalized OHLCV candle.
type Bar struct {
	Timestamp string  `json:"timestamp"` // RFC3339 UTC
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// PriceSnapshot is the current decimal-priced market state of an instrument.
type PriceSnapshot struct {
	Epic      string   `json:"epic"`
	Bid       *float64 `json:"bid"`
	Offer     *float64 `json:"offer"`
	Timestamp string   `json:"timestamp"`
}

// MarketData is the per-instrument snapshot consumed by the decision step:
// bars keyed by timeframe plus the current bid/offer.
type MarketData struct {
	Timeframes map[string][]Bar `json:"timeframes"`
	Current    *PriceSnapshot   `json:"current,omitempty"`
}

// Collector composes the brokerage and market-data connectors into the
// normalized inputs of the decision step. Every fetch is synchronous and
// degrades to an empty value of the right shape on failure.
type Collector struct {
	ig        ig.ClientInterface
	polygon   polygon.ClientInterface
	accountID string
	logger    *zap.Logger
}

// New creates a new Collector. accountID selects which account
// GetAccountData prefers; empty means "first available".
func New(igClient ig.ClientInterface, polygonClient polygon.ClientInterface, accountID string, logger *zap.Logger) *Collector {
	return &Collector{
		ig:        igClient,
		polygon:   polygonClient,
		accountID: accountID,
		logger:    logger,
	}
}

// GetAccountData returns the configured account, or the first one if no
// account id is configured. A zero Account is returned on any failure.
func (c *Collector) GetAccountData() ig.Account {
	accounts, err := c.ig.FetchAccounts()
	if err != nil {
		c.logger.Error("Error getting account", zap.Error(err))
		return ig.Account{}
	}
	if len(accounts) == 0 {
		c.logger.Error("Error getting account: no accounts returned")
		return ig.Account{}
	}

	if c.accountID != "" {
		for _, a := range accounts {
			if a.AccountID == c.accountID {
				return a
			}
		}
	}
	return accounts[0]
}

// GetPositions returns the open positions, or an empty slice on failure.
func (c *Collector) GetPositions() []ig.Position {
	positions, err := c.ig.FetchOpenPositions()
	if err != nil {
		c.logger.Error("Error getting positions", zap.Error(err))
		return []ig.Position{}
	}
	return positions
}

// GetMarketData collects multi-timeframe bars plus a current snapshot for an
// instrument. Unknown epics and provider failures both yield an empty result.
func (c *Collector) GetMarketData(epic string, timeframes map[string]Timeframe) MarketData {
	if timeframes == nil {
		timeframes = DefaultTimeframes()
	}

	result := MarketData{Timeframes: map[string][]Bar{}}

	ticker, ok := epicTickers[epic]
	if !ok {
		return result
	}

	end := time.Now().UTC()
	for key, tf := range timeframes {
		start := end.AddDate(0, 0, -tf.LookbackDays)

		aggs, err := c.polygon.GetAggs(ticker, tf.Multiplier, tf.Timespan,
			start.Format("2006-01-02"), end.Format("2006-01-02"), 100)
		if err != nil {
			c.logger.Error("Error collecting market data",
				zap.String("epic", epic),
				zap.String("timeframe", key),
				zap.Error(err),
			)
			return MarketData{Timeframes: map[string][]Bar{}}
		}
		if len(aggs) == 0 {
			continue
		}

		bars := make([]Bar, 0, len(aggs))
		for _, a := range aggs {
			bars = append(bars, Bar{
				Timestamp: time.UnixMilli(a.Timestamp).UTC().Format(time.RFC3339),
				Open:      a.Open,
				High:      a.High,
				Low:       a.Low,
				Close:     a.Close,
				Volume:    a.Volume,
			})
		}
		result.Timeframes[key] = bars
	}

	if snapshot := c.GetPriceSnapshot(epic); snapshot != nil {
		result.Current = snapshot
	}

	return result
}

// GetPriceSnapshot fetches the broker snapshot for an epic and converts its
// point-valued bid/offer into decimal prices. Returns nil on failure.
func (c *Collector) GetPriceSnapshot(epic string) *PriceSnapshot {
	snapshot, err := c.ig.FetchMarketByEpic(epic)
	if err != nil {
		c.logger.Error("Error getting snapshot", zap.String("epic", epic), zap.Error(err))
		return nil
	}
	if snapshot == nil {
		return nil
	}

	divisor := pointDivisor(epic)
	return &PriceSnapshot{
		Epic:      epic,
		Bid:       scalePoints(snapshot.Bid, divisor),
		Offer:     scalePoints(snapshot.Offer, divisor),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// pointDivisor returns the scale factor between broker points and decimal
// price: 100 for JPY crosses, 10000 for everything else.
func pointDivisor(epic string) float64 {
	if strings.Contains(epic, "JPY") {
		return 100.0
	}
	return 10000.0
}

func scalePoints(raw *float64, divisor float64) *float64 {
	if raw == nil {
		return nil
	}
	scaled := *raw / divisor
	return &scaled
}
