// Package stats summarizes price series for terminal display.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a closing-price series.
type Summary struct {
	Count     int     `json:"count"`
	First     float64 `json:"first"`
	Last      float64 `json:"last"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
	// Volatility is the sample standard deviation of period returns, in percent.
	Volatility float64 `json:"volatility_pct"`
}

// Summarize computes a Summary. An empty series yields the zero Summary.
func Summarize(closes []float64) Summary {
	if len(closes) == 0 {
		return Summary{}
	}

	summary := Summary{
		Count: len(closes),
		First: closes[0],
		Last:  closes[len(closes)-1],
		Min:   floats.Min(closes),
		Max:   floats.Max(closes),
	}
	summary.Mean, summary.StdDev = stat.MeanStdDev(closes, nil)
	if len(closes) < 2 {
		summary.StdDev = 0
	}

	summary.Change = summary.Last - summary.First
	if summary.First != 0 {
		summary.ChangePct = summary.Change / summary.First * 100
	}

	if returns := periodReturns(closes); len(returns) > 1 {
		summary.Volatility = stat.StdDev(returns, nil) * 100
	}

	return summary
}

func periodReturns(closes []float64) []float64 {
	returns := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			continue
		}
		r := (closes[i] - prev) / prev
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		returns = append(returns, r)
	}
	return returns
}
