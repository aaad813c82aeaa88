package snapshot

import "math"

// Score weights. The score surfaces contracts whose time-decay income and
// premium yield outweigh their directional, convexity, and volatility risk.
const (
	thetaIncomeWeight  = 100
	premiumYieldWeight = 2
	deltaRiskWeight    = 50
	gammaRiskWeight    = 1000
	vegaRiskWeight     = 10
)

// Score computes the deterministic ranking score for one contract:
//
//	|theta|*100 + (bid/strike)*(365/max(dte,1))*2 - delta*50 - gamma*1000 - vega*10
//
// rounded to two decimals. The result is nil, meaning "undefined" rather
// than zero, when any input is missing or bid/strike are not finite
// positive numbers; incomplete data must never be ranked.
func Score(theta, gamma, delta, vega, bid, strikePrice *float64, daysToExpiration *int) *float64 {
	if theta == nil || gamma == nil || delta == nil || vega == nil {
		return nil
	}
	if bid == nil || strikePrice == nil || daysToExpiration == nil {
		return nil
	}
	if !isFinite(*bid) || !isFinite(*strikePrice) || *strikePrice <= 0 {
		return nil
	}

	dte := *daysToExpiration
	if dte < 1 {
		dte = 1
	}

	thetaIncome := math.Abs(*theta) * thetaIncomeWeight
	premiumYield := (*bid / *strikePrice) * (365 / float64(dte)) * premiumYieldWeight
	deltaRisk := *delta * deltaRiskWeight
	gammaRisk := *gamma * gammaRiskWeight
	vegaRisk := *vega * vegaRiskWeight

	score := thetaIncome + premiumYield - deltaRisk - gammaRisk - vegaRisk
	if !isFinite(score) {
		return nil
	}

	rounded := math.Round(score*100) / 100
	return &rounded
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
