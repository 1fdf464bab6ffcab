package reconcile

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/deribit-marks/internal/model"
)

// MinValuedAssets is the number of valued assets a row must exceed to be scored.
const MinValuedAssets = 2

// outputPlaces is the rounding applied to reported prices and scores.
const outputPlaces = 6

// ErrNoQualifyingRows means no row had enough valued assets to be scored.
var ErrNoQualifyingRows = errors.New("no row has more than two valued assets")

// Reconcile selects the row of t whose weighted valuations have the lowest
// dispersion under metric. Ties go to the earliest row. Assets without a
// weight are treated as missing.
func Reconcile(t *Table, weights map[string]float64, metric Metric, label string) (model.BestMatch, error) {
	if _, err := ParseMetric(string(metric)); err != nil {
		return model.BestMatch{}, err
	}

	best := -1
	bestScore := math.Inf(1)
	var bestValues []float64

	for i, row := range t.Prices {
		values := valuations(t.Assets, row, weights)
		valid := present(values)
		if len(valid) <= MinValuedAssets {
			continue
		}

		score := metric.Score(valid)
		if math.IsNaN(score) {
			continue
		}
		if best < 0 || score < bestScore {
			best = i
			bestScore = score
			bestValues = values
		}
	}

	if best < 0 {
		return model.BestMatch{}, fmt.Errorf("%s: %w (%d rows)", label, ErrNoQualifyingRows, len(t.Timestamps))
	}

	prices := make(map[string]*float64, len(t.Assets))
	for j, asset := range t.Assets {
		if math.IsNaN(bestValues[j]) {
			prices[asset] = nil
			continue
		}
		prices[asset] = model.Float(round(bestValues[j]))
	}

	ts := t.Timestamps[best]
	return model.BestMatch{
		Timestamp: ts,
		Date:      time.UnixMilli(ts).UTC().Format(time.RFC3339),
		PriceUSD:  round(mean(present(bestValues))),
		Metric:    string(metric),
		Score:     round(bestScore),
		Prices:    prices,
		Label:     label,
	}, nil
}

// Better returns the match with the lower score; a wins ties.
func Better(a, b model.BestMatch) model.BestMatch {
	if b.Score < a.Score {
		return b
	}
	return a
}

// valuations multiplies each price by its asset's weight. Missing prices and
// unweighted assets become NaN.
func valuations(assets []string, row []float64, weights map[string]float64) []float64 {
	out := make([]float64, len(row))
	for j, p := range row {
		w, ok := weights[assets[j]]
		if p == 0 || !ok {
			out[j] = math.NaN()
			continue
		}
		out[j] = p * w
	}
	return out
}

func present(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(outputPlaces).InexactFloat64()
}
