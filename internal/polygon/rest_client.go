package polygon

import (
	"context"
	"fmt"

	"github.com/connormilton/forest/internal/config"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const baseURL = "https://api.polygon.io"

// Agg is one OHLCV aggregate bar as returned by the Polygon aggregates endpoint.
type Agg struct {
	Timestamp int64   `json:"t"` // start of the bar, Unix milliseconds
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

type aggsResponse struct {
	Ticker       string `json:"ticker"`
	ResultsCount int    `json:"resultsCount"`
	Results      []Agg  `json:"results"`
	Status       string `json:"status"`
}

// ClientInterface defines the interface for the Polygon REST API client.
type ClientInterface interface {
	GetAggs(ticker string, multiplier int, timespan, from, to string, limit int) ([]Agg, error)
}

// Client is a client for the Polygon.io REST API.
type Client struct {
	client  *resty.Client
	apiKey  string
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Polygon REST API client.
func NewClient(cfg *config.Polygon, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(baseURL)
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:  client,
		apiKey:  cfg.APIKey,
		logger:  logger,
		limiter: limiter,
	}
}

// GetAggs fetches aggregate bars for a ticker over a date range.
// from and to are dates in 2006-01-02 form.
func (c *Client) GetAggs(ticker string, multiplier int, timespan, from, to string, limit int) ([]Agg, error) {
	if err := c.limiter.Wait(context.Background()); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	url := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s", ticker, multiplier, timespan, from, to)

	req := c.client.R().
		SetQueryParam("adjusted", "true").
		SetQueryParam("sort", "asc").
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetQueryParam("apiKey", c.apiKey).
		SetResult(&aggsResponse{})

	c.logger.Debug("Executing Polygon request", zap.String("url", url))
	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to get aggs for %s: %w", ticker, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("aggs request for %s failed with status %s: %s", ticker, resp.Status(), resp.String())
	}

	result := resp.Result().(*aggsResponse)
	return result.Results, nil
}
