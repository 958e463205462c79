package collector

import (
	"errors"
	"testing"

	"github.com/connormilton/forest/internal/ig"
	"github.com/connormilton/forest/internal/polygon"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeIG implements ig.ClientInterface for collector tests.
type fakeIG struct {
	accounts     []ig.Account
	accountsErr  error
	positions    []ig.Position
	positionsErr error
	snapshot     *ig.MarketSnapshot
	snapshotErr  error
}

func (f *fakeIG) FetchAccounts() ([]ig.Account, error)       { return f.accounts, f.accountsErr }
func (f *fakeIG) FetchOpenPositions() ([]ig.Position, error) { return f.positions, f.positionsErr }
func (f *fakeIG) FetchMarketByEpic(epic string) (*ig.MarketSnapshot, error) {
	return f.snapshot, f.snapshotErr
}
func (f *fakeIG) CreateOpenPosition(order ig.CreateOrderRequest) (*ig.DealConfirmation, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeIG) ClosePosition(dealID, direction string, size float64) (*ig.DealConfirmation, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeIG) UpdatePosition(dealID string, stopLevel float64) (*ig.DealConfirmation, error) {
	return nil, errors.New("not implemented")
}

// fakePolygon implements polygon.ClientInterface for collector tests.
type fakePolygon struct {
	aggs  []polygon.Agg
	err   error
	calls []string
}

func (f *fakePolygon) GetAggs(ticker string, multiplier int, timespan, from, to string, limit int) ([]polygon.Agg, error) {
	f.calls = append(f.calls, ticker)
	return f.aggs, f.err
}

func floatPtr(v float64) *float64 { return &v }

func TestGetMarketData(t *testing.T) {
	t.Run("UnknownEpicReturnsEmpty", func(t *testing.T) {
		p := &fakePolygon{}
		c := New(&fakeIG{}, p, "", zap.NewNop())

		data := c.GetMarketData("CS.D.XAUUSD.TODAY.IP", nil)

		assert.Empty(t, data.Timeframes)
		assert.Nil(t, data.Current)
		assert.Empty(t, p.calls, "unknown epics must not hit the data provider")
	})

	t.Run("CollectsAllTimeframes", func(t *testing.T) {
		p := &fakePolygon{aggs: []polygon.Agg{
			{Timestamp: 1746086400000, Open: 1.084, High: 1.085, Low: 1.0835, Close: 1.0845, Volume: 1200},
		}}
		igc := &fakeIG{snapshot: &ig.MarketSnapshot{Bid: floatPtr(10850), Offer: floatPtr(10853)}}
		c := New(igc, p, "", zap.NewNop())

		data := c.GetMarketData("CS.D.EURUSD.TODAY.IP", nil)

		assert.Len(t, data.Timeframes, 3)
		for _, key := range []string{"m15", "h1", "h4"} {
			assert.Len(t, data.Timeframes[key], 1, key)
			assert.Equal(t, 1.0845, data.Timeframes[key][0].Close, key)
			assert.Equal(t, "2025-05-01T08:00:00Z", data.Timeframes[key][0].Timestamp, key)
		}
		assert.NotNil(t, data.Current)
		assert.Equal(t, 1.0850, *data.Current.Bid)
		assert.Equal(t, 1.0853, *data.Current.Offer)
	})

	t.Run("ProviderFailureDegradesToEmpty", func(t *testing.T) {
		p := &fakePolygon{err: errors.New("rate limited")}
		c := New(&fakeIG{snapshotErr: errors.New("down")}, p, "", zap.NewNop())

		data := c.GetMarketData("CS.D.GBPUSD.TODAY.IP", nil)

		assert.Empty(t, data.Timeframes)
		assert.Nil(t, data.Current)
	})
}

func TestGetPriceSnapshot(t *testing.T) {
	t.Run("JPYCrossScalesBy100", func(t *testing.T) {
		igc := &fakeIG{snapshot: &ig.MarketSnapshot{Bid: floatPtr(10000), Offer: floatPtr(10003)}}
		c := New(igc, &fakePolygon{}, "", zap.NewNop())

		snapshot := c.GetPriceSnapshot("CS.D.USDJPY.TODAY.IP")

		assert.NotNil(t, snapshot)
		assert.Equal(t, 100.00, *snapshot.Bid)
		assert.Equal(t, 100.03, *snapshot.Offer)
	})

	t.Run("NonJPYScalesBy10000", func(t *testing.T) {
		igc := &fakeIG{snapshot: &ig.MarketSnapshot{Bid: floatPtr(10000), Offer: floatPtr(10004)}}
		c := New(igc, &fakePolygon{}, "", zap.NewNop())

		snapshot := c.GetPriceSnapshot("CS.D.EURUSD.TODAY.IP")

		assert.NotNil(t, snapshot)
		assert.Equal(t, 1.00, *snapshot.Bid)
		assert.Equal(t, 1.0004, *snapshot.Offer)
	})

	t.Run("NilQuotesStayNil", func(t *testing.T) {
		igc := &fakeIG{snapshot: &ig.MarketSnapshot{Bid: nil, Offer: floatPtr(10004)}}
		c := New(igc, &fakePolygon{}, "", zap.NewNop())

		snapshot := c.GetPriceSnapshot("CS.D.EURUSD.TODAY.IP")

		assert.NotNil(t, snapshot)
		assert.Nil(t, snapshot.Bid)
		assert.NotNil(t, snapshot.Offer)
	})

	t.Run("BrokerFailureReturnsNil", func(t *testing.T) {
		igc := &fakeIG{snapshotErr: errors.New("session expired")}
		c := New(igc, &fakePolygon{}, "", zap.NewNop())

		assert.Nil(t, c.GetPriceSnapshot("CS.D.EURUSD.TODAY.IP"))
	})
}

func TestGetAccountData(t *testing.T) {
	t.Run("PrefersConfiguredAccount", func(t *testing.T) {
		igc := &fakeIG{accounts: []ig.Account{
			{AccountID: "FIRST", Currency: "GBP"},
			{AccountID: "WANTED", Currency: "USD"},
		}}
		c := New(igc, &fakePolygon{}, "WANTED", zap.NewNop())

		account := c.GetAccountData()

		assert.Equal(t, "WANTED", account.AccountID)
	})

	t.Run("FallsBackToFirstAccount", func(t *testing.T) {
		igc := &fakeIG{accounts: []ig.Account{{AccountID: "FIRST"}}}
		c := New(igc, &fakePolygon{}, "MISSING", zap.NewNop())

		assert.Equal(t, "FIRST", c.GetAccountData().AccountID)
	})

	t.Run("FailureReturnsZeroAccount", func(t *testing.T) {
		igc := &fakeIG{accountsErr: errors.New("network")}
		c := New(igc, &fakePolygon{}, "", zap.NewNop())

		assert.Equal(t, ig.Account{}, c.GetAccountData())
	})
}

func TestGetPositions(t *testing.T) {
	t.Run("FailureReturnsEmptySlice", func(t *testing.T) {
		igc := &fakeIG{positionsErr: errors.New("network")}
		c := New(igc, &fakePolygon{}, "", zap.NewNop())

		positions := c.GetPositions()

		assert.NotNil(t, positions)
		assert.Empty(t, positions)
	})
}

func TestDefaultTimeframes(t *testing.T) {
	tfs := DefaultTimeframes()

	assert.Equal(t, Timeframe{Multiplier: 15, Timespan: "minute", LookbackDays: 1}, tfs["m15"])
	assert.Equal(t, Timeframe{Multiplier: 1, Timespan: "hour", LookbackDays: 2}, tfs["h1"])
	assert.Equal(t, Timeframe{Multiplier: 4, Timespan: "hour", LookbackDays: 5}, tfs["h4"])
}
