package snapshot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }

func TestScoreReferenceContract(t *testing.T) {
	// Hand-computable reference: thetaIncome=15, premiumYield≈11.07,
	// deltaRisk=25, gammaRisk=20, vegaRisk=0.8
	got := Score(f64(-0.15), f64(0.02), f64(0.5), f64(0.08), f64(45.50), f64(100), i(30))

	require.NotNil(t, got)
	assert.InDelta(t, -19.73, *got, 1e-9)
}

func TestScoreIsRoundedToTwoDecimals(t *testing.T) {
	got := Score(f64(-0.111111), f64(0), f64(0), f64(0), f64(1), f64(100), i(365))

	require.NotNil(t, got)
	// 11.1111 + (0.01)*(1)*2 = 11.1311
	assert.InDelta(t, 11.13, *got, 1e-9)
	assert.Equal(t, *got, math.Round(*got*100)/100)
}

func TestScoreUndefinedInputs(t *testing.T) {
	theta, gamma, delta, vega := f64(-0.15), f64(0.02), f64(0.5), f64(0.08)

	tests := []struct {
		name   string
		theta  *float64
		gamma  *float64
		delta  *float64
		vega   *float64
		bid    *float64
		strike *float64
		dte    *int
	}{
		{name: "missing bid", theta: theta, gamma: gamma, delta: delta, vega: vega, strike: f64(100), dte: i(30)},
		{name: "missing strike", theta: theta, gamma: gamma, delta: delta, vega: vega, bid: f64(45.5), dte: i(30)},
		{name: "missing expiration", theta: theta, gamma: gamma, delta: delta, vega: vega, bid: f64(45.5), strike: f64(100)},
		{name: "missing theta", gamma: gamma, delta: delta, vega: vega, bid: f64(45.5), strike: f64(100), dte: i(30)},
		{name: "missing gamma", theta: theta, delta: delta, vega: vega, bid: f64(45.5), strike: f64(100), dte: i(30)},
		{name: "missing delta", theta: theta, gamma: gamma, vega: vega, bid: f64(45.5), strike: f64(100), dte: i(30)},
		{name: "missing vega", theta: theta, gamma: gamma, delta: delta, bid: f64(45.5), strike: f64(100), dte: i(30)},
		{name: "nan bid", theta: theta, gamma: gamma, delta: delta, vega: vega, bid: f64(math.NaN()), strike: f64(100), dte: i(30)},
		{name: "infinite bid", theta: theta, gamma: gamma, delta: delta, vega: vega, bid: f64(math.Inf(1)), strike: f64(100), dte: i(30)},
		{name: "zero strike", theta: theta, gamma: gamma, delta: delta, vega: vega, bid: f64(45.5), strike: f64(0), dte: i(30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.theta, tt.gamma, tt.delta, tt.vega, tt.bid, tt.strike, tt.dte)
			assert.Nil(t, got, "score must be undefined, not zero")
		})
	}
}

func TestScoreClampsDaysToExpiration(t *testing.T) {
	// Same-day expiration annualizes as one day, not a division by zero
	zeroDTE := Score(f64(0), f64(0), f64(0), f64(0), f64(1), f64(100), i(0))
	oneDTE := Score(f64(0), f64(0), f64(0), f64(0), f64(1), f64(100), i(1))

	require.NotNil(t, zeroDTE)
	require.NotNil(t, oneDTE)
	assert.Equal(t, *oneDTE, *zeroDTE)
	assert.InDelta(t, 7.3, *zeroDTE, 1e-9) // (1/100)*365*2
}
