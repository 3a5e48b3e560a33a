package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	summary := Summarize([]float64{100, 110, 105, 120})

	require.Equal(t, 4, summary.Count)
	require.Equal(t, 100.0, summary.First)
	require.Equal(t, 120.0, summary.Last)
	require.Equal(t, 100.0, summary.Min)
	require.Equal(t, 120.0, summary.Max)
	require.InDelta(t, 108.75, summary.Mean, 1e-9)
	require.InDelta(t, 8.539125, summary.StdDev, 1e-6)
	require.InDelta(t, 20.0, summary.Change, 1e-9)
	require.InDelta(t, 20.0, summary.ChangePct, 1e-9)
	require.Greater(t, summary.Volatility, 0.0)
}

func TestSummarizeSinglePoint(t *testing.T) {
	summary := Summarize([]float64{42})

	require.Equal(t, 1, summary.Count)
	require.Equal(t, 42.0, summary.Mean)
	require.Equal(t, 0.0, summary.StdDev)
	require.Equal(t, 0.0, summary.ChangePct)
	require.Equal(t, 0.0, summary.Volatility)
}

func TestSummarizeEmpty(t *testing.T) {
	require.Equal(t, Summary{}, Summarize(nil))
}

func TestSummarizeZeroStart(t *testing.T) {
	summary := Summarize([]float64{0, 5, 10})
	require.Equal(t, 10.0, summary.Change)
	require.Equal(t, 0.0, summary.ChangePct)
}
