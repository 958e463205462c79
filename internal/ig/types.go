package ig

// Account is one entry from GET /accounts.
type Account struct {
	AccountID   string         `json:"accountId"`
	AccountName string         `json:"accountName"`
	AccountType string         `json:"accountType"`
	Currency    string         `json:"currency"`
	Preferred   bool           `json:"preferred"`
	Balance     AccountBalance `json:"balance"`
}

// AccountBalance holds the funds breakdown of an account.
type AccountBalance struct {
	Balance    float64 `json:"balance"`
	Deposit    float64 `json:"deposit"`
	ProfitLoss float64 `json:"profitLoss"`
	Available  float64 `json:"available"`
}

type accountsResponse struct {
	Accounts []Account `json:"accounts"`
}

// Position is a flattened open position: IG nests the deal under "position"
// and the instrument under "market".
type Position struct {
	DealID      string   `json:"dealId"`
	Epic        string   `json:"epic"`
	Direction   string   `json:"direction"` // BUY or SELL
	Size        float64  `json:"size"`
	OpenLevel   float64  `json:"level"`
	StopLevel   *float64 `json:"stopLevel,omitempty"`
	LimitLevel  *float64 `json:"limitLevel,omitempty"`
	Currency    string   `json:"currency"`
	CreatedDate string   `json:"createdDateUTC"`
}

type positionsResponse struct {
	Positions []struct {
		Position struct {
			DealID         string   `json:"dealId"`
			Direction      string   `json:"direction"`
			Size           float64  `json:"size"`
			Level          float64  `json:"level"`
			StopLevel      *float64 `json:"stopLevel"`
			LimitLevel     *float64 `json:"limitLevel"`
			Currency       string   `json:"currency"`
			CreatedDateUTC string   `json:"createdDateUTC"`
		} `json:"position"`
		Market struct {
			Epic string `json:"epic"`
		} `json:"market"`
	} `json:"positions"`
}

// MarketSnapshot is the snapshot section of GET /markets/{epic}. Bid and Offer
// are raw point values; the collector converts them to decimal prices.
type MarketSnapshot struct {
	Bid          *float64 `json:"bid"`
	Offer        *float64 `json:"offer"`
	MarketStatus string   `json:"marketStatus"`
	UpdateTime   string   `json:"updateTime"`
}

type marketResponse struct {
	Instrument struct {
		Epic string `json:"epic"`
		Name string `json:"name"`
	} `json:"instrument"`
	Snapshot MarketSnapshot `json:"snapshot"`
}

// CreateOrderRequest describes a new OTC market order.
type CreateOrderRequest struct {
	Epic           string   `json:"epic"`
	Direction      string   `json:"direction"`
	Size           float64  `json:"size"`
	OrderType      string   `json:"orderType"`
	CurrencyCode   string   `json:"currencyCode"`
	Expiry         string   `json:"expiry"`
	ForceOpen      bool     `json:"forceOpen"`
	GuaranteedStop bool     `json:"guaranteedStop"`
	StopLevel      *float64 `json:"stopLevel,omitempty"`
	LimitLevel     *float64 `json:"limitLevel,omitempty"`
}

type dealReferenceResponse struct {
	DealReference string `json:"dealReference"`
}

// DealConfirmation is the result of GET /confirms/{dealReference}.
// DealStatus "ACCEPTED" means the order went through; anything else is a
// rejection with Reason set.
type DealConfirmation struct {
	DealReference string  `json:"dealReference"`
	DealID        string  `json:"dealId"`
	DealStatus    string  `json:"dealStatus"`
	Reason        string  `json:"reason"`
	Epic          string  `json:"epic"`
	Level         float64 `json:"level"`
}

// Accepted reports whether the broker accepted the deal.
func (c *DealConfirmation) Accepted() bool {
	return c != nil && c.DealStatus == DealStatusAccepted
}
