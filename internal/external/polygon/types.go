package polygon

import (
	"encoding/json"
	"strings"
	"time"
)

// ContractSnapshot is one contract entry from the options-chain snapshot
// endpoint. The upstream payload comes in two known variants: the current
// shape nests contract identity and analytics under sub-objects (details,
// greeks, last_quote, last_trade, day), while the legacy flat shape exposes
// the same fields at the top level. Both variants are modeled explicitly and
// every Resolve* accessor applies a fixed precedence: nested block first,
// flat field second.
type ContractSnapshot struct {
	Details         *ContractDetails `json:"details,omitempty"`
	Greeks          *GreeksBlock     `json:"greeks,omitempty"`
	LastQuote       *QuoteBlock      `json:"last_quote,omitempty"`
	LastTrade       *TradeBlock      `json:"last_trade,omitempty"`
	Day             *DayBlock        `json:"day,omitempty"`
	UnderlyingAsset *UnderlyingRef   `json:"underlying_asset,omitempty"`

	ImpliedVolatility *float64 `json:"implied_volatility,omitempty"`
	OpenInterest      *float64 `json:"open_interest,omitempty"`

	// Legacy flat variant
	Ticker            *string  `json:"ticker,omitempty"`
	ContractType      *string  `json:"contract_type,omitempty"`
	StrikePrice       *float64 `json:"strike_price,omitempty"`
	ExpirationDate    *string  `json:"expiration_date,omitempty"`
	ExerciseStyle     *string  `json:"exercise_style,omitempty"`
	SharesPerContract *float64 `json:"shares_per_contract,omitempty"`
	Delta             *float64 `json:"delta,omitempty"`
	Gamma             *float64 `json:"gamma,omitempty"`
	Theta             *float64 `json:"theta,omitempty"`
	Vega              *float64 `json:"vega,omitempty"`
	Rho               *float64 `json:"rho,omitempty"`
	Bid               *float64 `json:"bid,omitempty"`
	Ask               *float64 `json:"ask,omitempty"`
	BidSize           *float64 `json:"bid_size,omitempty"`
	AskSize           *float64 `json:"ask_size,omitempty"`
	Volume            *float64 `json:"volume,omitempty"`

	// Raw holds the contract payload exactly as received, for audit/debug.
	Raw json.RawMessage `json:"-"`
}

// ContractDetails is the nested contract identity block.
type ContractDetails struct {
	Ticker            *string  `json:"ticker,omitempty"`
	ContractType      *string  `json:"contract_type,omitempty"`
	StrikePrice       *float64 `json:"strike_price,omitempty"`
	ExpirationDate    *string  `json:"expiration_date,omitempty"`
	ExerciseStyle     *string  `json:"exercise_style,omitempty"`
	SharesPerContract *float64 `json:"shares_per_contract,omitempty"`
}

// GreeksBlock is the nested sensitivity block.
type GreeksBlock struct {
	Delta *float64 `json:"delta,omitempty"`
	Gamma *float64 `json:"gamma,omitempty"`
	Theta *float64 `json:"theta,omitempty"`
	Vega  *float64 `json:"vega,omitempty"`
	Rho   *float64 `json:"rho,omitempty"`
}

// QuoteBlock is the nested NBBO quote block.
type QuoteBlock struct {
	Bid         *float64 `json:"bid,omitempty"`
	Ask         *float64 `json:"ask,omitempty"`
	BidSize     *float64 `json:"bid_size,omitempty"`
	AskSize     *float64 `json:"ask_size,omitempty"`
	Midpoint    *float64 `json:"midpoint,omitempty"`
	LastUpdated *int64   `json:"last_updated,omitempty"`
}

// TradeBlock is the nested last-trade block.
type TradeBlock struct {
	Price      *float64 `json:"price,omitempty"`
	Size       *float64 `json:"size,omitempty"`
	Exchange   *int64   `json:"exchange,omitempty"`
	Conditions []int64  `json:"conditions,omitempty"`
}

// DayBlock is the nested previous-session aggregate block.
type DayBlock struct {
	Open          *float64 `json:"open,omitempty"`
	High          *float64 `json:"high,omitempty"`
	Low           *float64 `json:"low,omitempty"`
	Close         *float64 `json:"close,omitempty"`
	VWAP          *float64 `json:"vwap,omitempty"`
	Volume        *float64 `json:"volume,omitempty"`
	PreviousClose *float64 `json:"previous_close,omitempty"`
}

// UnderlyingRef is the nested underlying-asset reference.
type UnderlyingRef struct {
	Ticker *string  `json:"ticker,omitempty"`
	Price  *float64 `json:"price,omitempty"`
}

// UnmarshalJSON decodes the snapshot and keeps the original payload bytes.
func (c *ContractSnapshot) UnmarshalJSON(data []byte) error {
	type alias ContractSnapshot
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = ContractSnapshot(a)
	c.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// ResolveTicker returns the contract ticker: details block first, flat second.
func (c *ContractSnapshot) ResolveTicker() string {
	if c.Details != nil && c.Details.Ticker != nil {
		return *c.Details.Ticker
	}
	if c.Ticker != nil {
		return *c.Ticker
	}
	return ""
}

// ResolveContractType returns the normalized contract type ("call"/"put").
func (c *ContractSnapshot) ResolveContractType() string {
	var raw string
	if c.Details != nil && c.Details.ContractType != nil {
		raw = *c.Details.ContractType
	} else if c.ContractType != nil {
		raw = *c.ContractType
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// ResolveStrikePrice returns the strike: details block first, flat second.
func (c *ContractSnapshot) ResolveStrikePrice() *float64 {
	if c.Details != nil && c.Details.StrikePrice != nil {
		return c.Details.StrikePrice
	}
	return c.StrikePrice
}

// ResolveExpirationDate parses the expiration calendar date, if present.
func (c *ContractSnapshot) ResolveExpirationDate() *time.Time {
	var raw string
	if c.Details != nil && c.Details.ExpirationDate != nil {
		raw = *c.Details.ExpirationDate
	} else if c.ExpirationDate != nil {
		raw = *c.ExpirationDate
	}
	if raw == "" {
		return nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &d
}

// ExpirationString returns the expiration date exactly as sent upstream.
func (c *ContractSnapshot) ExpirationString() string {
	if c.Details != nil && c.Details.ExpirationDate != nil {
		return *c.Details.ExpirationDate
	}
	if c.ExpirationDate != nil {
		return *c.ExpirationDate
	}
	return ""
}

// ResolveExerciseStyle returns the exercise style, if present.
func (c *ContractSnapshot) ResolveExerciseStyle() *string {
	if c.Details != nil && c.Details.ExerciseStyle != nil {
		return c.Details.ExerciseStyle
	}
	return c.ExerciseStyle
}

// ResolveSharesPerContract returns the contract multiplier, if present.
func (c *ContractSnapshot) ResolveSharesPerContract() *float64 {
	if c.Details != nil && c.Details.SharesPerContract != nil {
		return c.Details.SharesPerContract
	}
	return c.SharesPerContract
}

// ResolveDelta returns delta: greeks block first, flat second.
func (c *ContractSnapshot) ResolveDelta() *float64 {
	if c.Greeks != nil && c.Greeks.Delta != nil {
		return c.Greeks.Delta
	}
	return c.Delta
}

// ResolveGamma returns gamma: greeks block first, flat second.
func (c *ContractSnapshot) ResolveGamma() *float64 {
	if c.Greeks != nil && c.Greeks.Gamma != nil {
		return c.Greeks.Gamma
	}
	return c.Gamma
}

// ResolveTheta returns theta: greeks block first, flat second.
func (c *ContractSnapshot) ResolveTheta() *float64 {
	if c.Greeks != nil && c.Greeks.Theta != nil {
		return c.Greeks.Theta
	}
	return c.Theta
}

// ResolveVega returns vega: greeks block first, flat second.
func (c *ContractSnapshot) ResolveVega() *float64 {
	if c.Greeks != nil && c.Greeks.Vega != nil {
		return c.Greeks.Vega
	}
	return c.Vega
}

// ResolveRho returns rho: greeks block first, flat second.
func (c *ContractSnapshot) ResolveRho() *float64 {
	if c.Greeks != nil && c.Greeks.Rho != nil {
		return c.Greeks.Rho
	}
	return c.Rho
}

// ResolveBid returns the bid: last_quote block first, flat second.
func (c *ContractSnapshot) ResolveBid() *float64 {
	if c.LastQuote != nil && c.LastQuote.Bid != nil {
		return c.LastQuote.Bid
	}
	return c.Bid
}

// ResolveAsk returns the ask: last_quote block first, flat second.
func (c *ContractSnapshot) ResolveAsk() *float64 {
	if c.LastQuote != nil && c.LastQuote.Ask != nil {
		return c.LastQuote.Ask
	}
	return c.Ask
}

// ResolveBidSize returns the bid size: last_quote block first, flat second.
func (c *ContractSnapshot) ResolveBidSize() *float64 {
	if c.LastQuote != nil && c.LastQuote.BidSize != nil {
		return c.LastQuote.BidSize
	}
	return c.BidSize
}

// ResolveAskSize returns the ask size: last_quote block first, flat second.
func (c *ContractSnapshot) ResolveAskSize() *float64 {
	if c.LastQuote != nil && c.LastQuote.AskSize != nil {
		return c.LastQuote.AskSize
	}
	return c.AskSize
}

// ResolveVolume returns session volume: day block first, flat second.
func (c *ContractSnapshot) ResolveVolume() *float64 {
	if c.Day != nil && c.Day.Volume != nil {
		return c.Day.Volume
	}
	return c.Volume
}
