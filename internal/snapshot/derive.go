package snapshot

import (
	"math"
	"time"

	"github.com/DevMandalia/direction-sky-ingest/internal/external/polygon"
)

// Derive normalizes one raw contract snapshot into a canonical Row for the
// given trading date. It returns nil for expired contracts: a contract whose
// expiration date is strictly before the trading date never reaches storage.
//
// contractType may be empty, in which case the payload's own type is used.
// Per-row anomalies (missing greeks, missing bid) degrade to NULL fields and
// a nil score; they never fail the batch.
func Derive(c *polygon.ContractSnapshot, contractType, underlyingAsset string, tradingDate time.Time) *Row {
	if c == nil {
		return nil
	}

	expiration := c.ResolveExpirationDate()
	if expiration != nil && tradingDate.After(*expiration) {
		return nil
	}

	if contractType == "" {
		contractType = c.ResolveContractType()
	}

	now := time.Now().UTC()

	row := &Row{
		Date:       tradingDate,
		ContractID: c.ResolveTicker(),

		UnderlyingAsset:   underlyingAsset,
		ContractType:      contractType,
		StrikePrice:       c.ResolveStrikePrice(),
		ExpirationDate:    expiration,
		ExerciseStyle:     c.ResolveExerciseStyle(),
		SharesPerContract: c.ResolveSharesPerContract(),

		Bid:     c.ResolveBid(),
		Ask:     c.ResolveAsk(),
		BidSize: c.ResolveBidSize(),
		AskSize: c.ResolveAskSize(),

		Volume:            c.ResolveVolume(),
		OpenInterest:      c.OpenInterest,
		ImpliedVolatility: c.ImpliedVolatility,

		Delta: c.ResolveDelta(),
		Gamma: c.ResolveGamma(),
		Theta: c.ResolveTheta(),
		Vega:  c.ResolveVega(),
		Rho:   c.ResolveRho(),

		InsertTimestamp: now,
		LastUpdated:     now,
		RawData:         c.Raw,
	}

	if c.LastTrade != nil {
		row.LastPrice = c.LastTrade.Price
		row.LastSize = c.LastTrade.Size
		row.Exchange = c.LastTrade.Exchange
		row.Conditions = c.LastTrade.Conditions
	}

	if c.Day != nil {
		row.PrevOpen = c.Day.Open
		row.PrevHigh = c.Day.High
		row.PrevLow = c.Day.Low
		row.PrevClose = c.Day.Close
		row.PrevVWAP = c.Day.VWAP
	}

	row.MidPrice = midPrice(row.Bid, row.Ask)
	row.Spread, row.SpreadPercentage = spread(row.Bid, row.Ask)

	if expiration != nil {
		dte := DaysToExpiration(*expiration, tradingDate)
		row.DaysToExpiration = &dte
	}

	row.Score = Score(row.Theta, row.Gamma, row.Delta, row.Vega, row.Bid, row.StrikePrice, row.DaysToExpiration)

	return row
}

// DaysToExpiration returns the whole days remaining until expiration,
// rounded up and floored at zero.
func DaysToExpiration(expiration, currentDate time.Time) int {
	days := int(math.Ceil(expiration.Sub(currentDate).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// midPrice is (bid+ask)/2 when both sides are quoted, NULL otherwise.
func midPrice(bid, ask *float64) *float64 {
	if bid == nil || ask == nil {
		return nil
	}
	mid := (*bid + *ask) / 2
	return &mid
}

// spread is ask-bid; the percentage form is relative to the bid and only
// defined for a positive bid.
func spread(bid, ask *float64) (*float64, *float64) {
	if bid == nil || ask == nil {
		return nil, nil
	}

	s := *ask - *bid

	var pct *float64
	if *bid > 0 {
		p := s / *bid * 100
		pct = &p
	}

	return &s, pct
}
