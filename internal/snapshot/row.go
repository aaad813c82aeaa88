package snapshot

import (
	"encoding/json"
	"time"
)

// Contract types as reported by the quote provider
const (
	TypeCall = "call"
	TypePut  = "put"
)

// Row is the persisted state of one options contract for one trading date.
// The composite key is (Date, ContractID); repeated ingestion of the same
// key replaces every mutable field and advances LastUpdated.
//
// Nullable attributes are pointers: a missing quote or greek is stored as
// NULL, never as zero.
type Row struct {
	// Key
	Date       time.Time `json:"date"`
	ContractID string    `json:"contract_id"`

	// Contract identity
	UnderlyingAsset   string     `json:"underlying_asset"`
	ContractType      string     `json:"contract_type"`
	StrikePrice       *float64   `json:"strike_price"`
	ExpirationDate    *time.Time `json:"expiration_date"`
	ExerciseStyle     *string    `json:"exercise_style"`
	SharesPerContract *float64   `json:"shares_per_contract"`

	// Quote
	Bid               *float64 `json:"bid"`
	Ask               *float64 `json:"ask"`
	BidSize           *float64 `json:"bid_size"`
	AskSize           *float64 `json:"ask_size"`
	MidPrice          *float64 `json:"mid_price"`
	Spread            *float64 `json:"spread"`
	SpreadPercentage  *float64 `json:"spread_percentage"`

	// Trade
	LastPrice  *float64 `json:"last_price"`
	LastSize   *float64 `json:"last_size"`
	Exchange   *int64   `json:"exchange"`
	Conditions []int64  `json:"conditions"`

	// Market
	Volume            *float64 `json:"volume"`
	OpenInterest      *float64 `json:"open_interest"`
	ImpliedVolatility *float64 `json:"implied_volatility"`

	// Greeks
	Delta *float64 `json:"delta"`
	Gamma *float64 `json:"gamma"`
	Theta *float64 `json:"theta"`
	Vega  *float64 `json:"vega"`
	Rho   *float64 `json:"rho"`

	// Previous session
	PrevOpen  *float64 `json:"prev_open"`
	PrevHigh  *float64 `json:"prev_high"`
	PrevLow   *float64 `json:"prev_low"`
	PrevClose *float64 `json:"prev_close"`
	PrevVWAP  *float64 `json:"prev_vwap"`

	// Computed analytics
	DaysToExpiration *int     `json:"days_to_expiration"`
	Score            *float64 `json:"score"`

	// Bookkeeping
	InsertTimestamp time.Time       `json:"insert_timestamp"`
	LastUpdated     time.Time       `json:"last_updated"`
	RawData         json.RawMessage `json:"-"`
}
