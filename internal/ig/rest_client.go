package ig

import (
	"context"
	"fmt"
	"strings"

	"github.com/connormilton/forest/internal/config"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	demoBaseURL = "https://demo-api.ig.com/gateway/deal"
	liveBaseURL = "https://api.ig.com/gateway/deal"

	DirectionBuy  = "BUY"
	DirectionSell = "SELL"

	OrderTypeMarket = "MARKET"

	DealStatusAccepted = "ACCEPTED"
)

// ClientInterface defines the interface for the IG REST API client.
type ClientInterface interface {
	FetchAccounts() ([]Account, error)
	FetchOpenPositions() ([]Position, error)
	FetchMarketByEpic(epic string) (*MarketSnapshot, error)
	CreateOpenPosition(order CreateOrderRequest) (*DealConfirmation, error)
	ClosePosition(dealID, direction string, size float64) (*DealConfirmation, error)
	UpdatePosition(dealID string, stopLevel float64) (*DealConfirmation, error)
}

// Client is a client for the IG REST API.
// It implements the ClientInterface.
type Client struct {
	client  *resty.Client
	cfg     *config.IG
	logger  *zap.Logger
	limiter *rate.Limiter

	// Session tokens captured from POST /session response headers.
	cst           string
	securityToken string
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new IG REST API client. Call Login before using it.
func NewClient(cfg *config.IG, logger *zap.Logger) *Client {
	var url string
	if strings.EqualFold(cfg.AccType, "LIVE") {
		url = liveBaseURL
		logger.Warn("Using IG LIVE account API")
	} else {
		url = demoBaseURL
		logger.Info("Using IG DEMO account API")
	}

	client := resty.New().SetBaseURL(url)
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:  client,
		cfg:     cfg,
		logger:  logger,
		limiter: limiter,
	}
}

// doRequest executes a single rate-limited request with the IG auth headers.
// One attempt only: a failed call is this cycle's loss, the engine moves on.
func (c *Client) doRequest(ctx context.Context, method, url, version string, req *resty.Request) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	req.SetHeader("X-IG-API-KEY", c.cfg.APIKey).
		SetHeader("Version", version).
		SetHeader("Content-Type", "application/json; charset=UTF-8").
		SetHeader("Accept", "application/json; charset=UTF-8")
	if c.cst != "" {
		req.SetHeader("CST", c.cst)
		req.SetHeader("X-SECURITY-TOKEN", c.securityToken)
	}

	c.logger.Debug("Executing IG request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
	}
	return resp, nil
}

// Login creates an IG trading session and captures the CST and
// X-SECURITY-TOKEN headers used to authenticate all subsequent requests.
// It then logs the account roster and warns when the active account is not
// the configured one or carries a non-positive balance.
func (c *Client) Login() error {
	body := map[string]string{
		"identifier": c.cfg.Username,
		"password":   c.cfg.Password,
	}

	req := c.client.R().SetBody(body)
	resp, err := c.doRequest(context.Background(), "POST", "/session", "2", req)
	if err != nil {
		return fmt.Errorf("failed to create IG session: %w", err)
	}

	c.cst = resp.Header().Get("CST")
	c.securityToken = resp.Header().Get("X-SECURITY-TOKEN")
	if c.cst == "" || c.securityToken == "" {
		return fmt.Errorf("IG session response missing security tokens")
	}
	c.logger.Info("IG API connected successfully")

	c.checkActiveAccount()
	return nil
}

// checkActiveAccount logs the available accounts and flags mismatches between
// the active account and the configured one. Failures here are logged only:
// a session with an unverified account is still usable.
func (c *Client) checkActiveAccount() {
	accounts, err := c.FetchAccounts()
	if err != nil || len(accounts) == 0 {
		c.logger.Error("Error checking account details", zap.Error(err))
		return
	}
	c.logger.Info("Found accounts", zap.Int("count", len(accounts)))

	for _, a := range accounts {
		c.logger.Info("Account",
			zap.String("account_id", a.AccountID),
			zap.String("type", a.AccountType),
			zap.Float64("balance", a.Balance.Balance),
			zap.String("currency", a.Currency),
		)
	}

	active := accounts[0]
	for _, a := range accounts {
		if a.Preferred {
			active = a
			break
		}
	}
	c.logger.Info("Active account", zap.String("account_id", active.AccountID))

	if c.cfg.AccountID != "" && active.AccountID != c.cfg.AccountID {
		c.logger.Warn("Using account instead of desired account",
			zap.String("active", active.AccountID),
			zap.String("desired", c.cfg.AccountID),
		)
		c.logger.Warn("IG API is not connecting to the requested account, proceeding with available account",
			zap.String("account_id", active.AccountID))
	}

	c.logger.Info("Active account balance",
		zap.Float64("balance", active.Balance.Balance),
		zap.String("currency", active.Currency),
	)
	if active.Balance.Balance <= 0 {
		c.logger.Warn("Account has insufficient balance, the system may not be able to execute trades",
			zap.String("account_id", active.AccountID),
			zap.Float64("balance", active.Balance.Balance),
		)
	}
}

// FetchAccounts fetches all accounts attached to the session.
func (c *Client) FetchAccounts() ([]Account, error) {
	req := c.client.R().SetResult(&accountsResponse{})

	resp, err := c.doRequest(context.Background(), "GET", "/accounts", "1", req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	result := resp.Result().(*accountsResponse)
	return result.Accounts, nil
}

// FetchOpenPositions fetches all open positions, flattened to one record per deal.
func (c *Client) FetchOpenPositions() ([]Position, error) {
	req := c.client.R().SetResult(&positionsResponse{})

	resp, err := c.doRequest(context.Background(), "GET", "/positions", "2", req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open positions: %w", err)
	}

	result := resp.Result().(*positionsResponse)
	positions := make([]Position, 0, len(result.Positions))
	for _, p := range result.Positions {
		positions = append(positions, Position{
			DealID:      p.Position.DealID,
			Epic:        p.Market.Epic,
			Direction:   p.Position.Direction,
			Size:        p.Position.Size,
			OpenLevel:   p.Position.Level,
			StopLevel:   p.Position.StopLevel,
			LimitLevel:  p.Position.LimitLevel,
			Currency:    p.Position.Currency,
			CreatedDate: p.Position.CreatedDateUTC,
		})
	}
	return positions, nil
}

// FetchMarketByEpic fetches the market snapshot for an instrument.
// Bid and Offer come back in broker points, not decimal prices.
func (c *Client) FetchMarketByEpic(epic string) (*MarketSnapshot, error) {
	req := c.client.R().SetResult(&marketResponse{})

	resp, err := c.doRequest(context.Background(), "GET", "/markets/"+epic, "3", req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market %s: %w", epic, err)
	}

	result := resp.Result().(*marketResponse)
	return &result.Snapshot, nil
}

// confirm resolves a deal reference into its confirmation.
func (c *Client) confirm(dealReference string) (*DealConfirmation, error) {
	req := c.client.R().SetResult(&DealConfirmation{})

	resp, err := c.doRequest(context.Background(), "GET", "/confirms/"+dealReference, "1", req)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm deal %s: %w", dealReference, err)
	}

	return resp.Result().(*DealConfirmation), nil
}

// CreateOpenPosition places a new OTC position order and resolves its confirmation.
func (c *Client) CreateOpenPosition(order CreateOrderRequest) (*DealConfirmation, error) {
	req := c.client.R().
		SetBody(order).
		SetResult(&dealReferenceResponse{})

	resp, err := c.doRequest(context.Background(), "POST", "/positions/otc", "2", req)
	if err != nil {
		c.logger.Error("Failed to create open position",
			zap.Error(err),
			zap.String("epic", order.Epic),
			zap.String("direction", order.Direction),
		)
		return nil, fmt.Errorf("failed to create open position: %w", err)
	}

	ref := resp.Result().(*dealReferenceResponse)
	return c.confirm(ref.DealReference)
}

// ClosePosition closes an open position. IG closes OTC positions with a POST
// carrying a "_method: DELETE" header rather than a real DELETE request.
func (c *Client) ClosePosition(dealID, direction string, size float64) (*DealConfirmation, error) {
	body := map[string]interface{}{
		"dealId":    dealID,
		"direction": direction,
		"size":      size,
		"orderType": OrderTypeMarket,
	}

	req := c.client.R().
		SetHeader("_method", "DELETE").
		SetBody(body).
		SetResult(&dealReferenceResponse{})

	resp, err := c.doRequest(context.Background(), "POST", "/positions/otc", "1", req)
	if err != nil {
		c.logger.Error("Failed to close position", zap.Error(err), zap.String("deal_id", dealID))
		return nil, fmt.Errorf("failed to close position: %w", err)
	}

	ref := resp.Result().(*dealReferenceResponse)
	return c.confirm(ref.DealReference)
}

// UpdatePosition changes the stop level of an open position.
func (c *Client) UpdatePosition(dealID string, stopLevel float64) (*DealConfirmation, error) {
	body := map[string]interface{}{
		"stopLevel":    stopLevel,
		"trailingStop": false,
	}

	req := c.client.R().
		SetBody(body).
		SetResult(&dealReferenceResponse{})

	resp, err := c.doRequest(context.Background(), "PUT", "/positions/otc/"+dealID, "2", req)
	if err != nil {
		c.logger.Error("Failed to update position", zap.Error(err), zap.String("deal_id", dealID))
		return nil, fmt.Errorf("failed to update position: %w", err)
	}

	ref := resp.Result().(*dealReferenceResponse)
	return c.confirm(ref.DealReference)
}
