package reconcile

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/rickgao/deribit-marks/internal/model"
)

// unitTable builds a table with unit weights from rows of valuations.
func unitTable(assets []string, rows ...[]float64) (*Table, map[string]float64) {
	tbl := &Table{Assets: assets}
	for i, row := range rows {
		ts := jan1 + int64(i)*day
		tbl.Timestamps = append(tbl.Timestamps, ts)
		tbl.Dates = append(tbl.Dates, model.DateOf(ts))
		tbl.Prices = append(tbl.Prices, append([]float64(nil), row...))
	}
	weights := make(map[string]float64, len(assets))
	for _, a := range assets {
		weights[a] = 1
	}
	return tbl, weights
}

func TestReconcile_SelectsLeastDispersedRow(t *testing.T) {
	assets := []string{"A", "B", "C"}

	for _, metric := range Metrics {
		t.Run(string(metric), func(t *testing.T) {
			tbl, w := unitTable(assets,
				[]float64{100, 150, 50},
				[]float64{100, 101, 99},
			)

			got, err := Reconcile(tbl, w, metric, "mainnet")
			if err != nil {
				t.Fatalf("Reconcile failed: %v", err)
			}
			if got.Timestamp != jan1+day {
				t.Errorf("Timestamp = %d, want %d", got.Timestamp, jan1+day)
			}
			if got.PriceUSD != 100 {
				t.Errorf("PriceUSD = %v, want 100", got.PriceUSD)
			}
			if got.Metric != string(metric) {
				t.Errorf("Metric = %q, want %q", got.Metric, metric)
			}
			if got.Label != "mainnet" {
				t.Errorf("Label = %q, want mainnet", got.Label)
			}
		})
	}
}

func TestReconcile_Scores(t *testing.T) {
	tests := []struct {
		metric Metric
		want   float64
	}{
		{MetricStd, 0.816497}, // sqrt(2/3)
		{MetricMAD, 0.666667}, // 2/3
		{MetricMinMax, 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			tbl, w := unitTable([]string{"A", "B", "C"}, []float64{100, 101, 99})
			got, err := Reconcile(tbl, w, tt.metric, "x")
			if err != nil {
				t.Fatalf("Reconcile failed: %v", err)
			}
			if got.Score != tt.want {
				t.Errorf("Score = %v, want %v", got.Score, tt.want)
			}
		})
	}
}

func TestReconcile_Weights(t *testing.T) {
	tbl := &Table{
		Assets:     []string{"BTC", "ETH", "XRP"},
		Timestamps: []int64{jan1},
		Dates:      []string{"2024-01-01"},
		Prices:     [][]float64{{40000, 2000, 0.5}},
	}
	weights := map[string]float64{"BTC": 0.0001, "ETH": 0.002, "XRP": 8}

	got, err := Reconcile(tbl, weights, MetricStd, "x")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	// Valuations: 4, 4, 4.
	if got.PriceUSD != 4 {
		t.Errorf("PriceUSD = %v, want 4", got.PriceUSD)
	}
	if got.Score != 0 {
		t.Errorf("Score = %v, want 0", got.Score)
	}
	if got.Date != "2024-01-01T00:00:00Z" {
		t.Errorf("Date = %q", got.Date)
	}
}

func TestReconcile_RowWithTwoAssetsNeverSelected(t *testing.T) {
	assets := []string{"BTC", "ETH", "PAXG", "SOL", "XRP", "ADA"}
	tbl, w := unitTable(assets,
		[]float64{5, 5, 0, 0, 0, 0},   // perfect agreement, only 2 valued
		[]float64{5, 9, 1, 0, 0, 0},   // dispersed, 3 valued
		[]float64{0, 0, 0, 0, 7, 7.1}, // 2 valued
	)

	got, err := Reconcile(tbl, w, MetricMinMax, "x")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if got.Timestamp != jan1+day {
		t.Errorf("Timestamp = %d, want the 3-asset row %d", got.Timestamp, jan1+day)
	}
	if got.Prices["SOL"] != nil {
		t.Errorf("Prices[SOL] = %v, want nil", *got.Prices["SOL"])
	}
	if got.Prices["PAXG"] == nil || *got.Prices["PAXG"] != 1 {
		t.Errorf("Prices[PAXG] = %v, want 1", got.Prices["PAXG"])
	}
	if got.PriceUSD != 5 {
		t.Errorf("PriceUSD = %v, want 5", got.PriceUSD)
	}
}

func TestReconcile_NoQualifyingRows(t *testing.T) {
	tbl, w := unitTable([]string{"A", "B", "C"},
		[]float64{1, 1, 0},
		[]float64{0, 0, 3},
	)

	_, err := Reconcile(tbl, w, MetricStd, "testnet")
	if !errors.Is(err, ErrNoQualifyingRows) {
		t.Errorf("err = %v, want ErrNoQualifyingRows", err)
	}

	_, err = Reconcile(&Table{}, w, MetricStd, "testnet")
	if !errors.Is(err, ErrNoQualifyingRows) {
		t.Errorf("empty table: err = %v, want ErrNoQualifyingRows", err)
	}
}

func TestReconcile_UnweightedAssetIsMissing(t *testing.T) {
	tbl, w := unitTable([]string{"A", "B", "C"}, []float64{1, 1, 1})
	delete(w, "C")

	_, err := Reconcile(tbl, w, MetricStd, "x")
	if !errors.Is(err, ErrNoQualifyingRows) {
		t.Errorf("err = %v, want ErrNoQualifyingRows", err)
	}
}

func TestReconcile_TieGoesToFirstRow(t *testing.T) {
	tbl, w := unitTable([]string{"A", "B", "C"},
		[]float64{10, 11, 12},
		[]float64{20, 21, 22},
	)

	got, err := Reconcile(tbl, w, MetricMinMax, "x")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if got.Timestamp != jan1 {
		t.Errorf("Timestamp = %d, want first row %d", got.Timestamp, jan1)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	tbl, w := unitTable([]string{"A", "B", "C", "D"},
		[]float64{10, 11, 0, 12},
		[]float64{20, 21, 22, 0},
		[]float64{3, 3.5, 2.5, 3.1},
	)

	for _, metric := range Metrics {
		first, err := Reconcile(tbl, w, metric, "x")
		if err != nil {
			t.Fatalf("%s: Reconcile failed: %v", metric, err)
		}
		second, err := Reconcile(tbl, w, metric, "x")
		if err != nil {
			t.Fatalf("%s: second Reconcile failed: %v", metric, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%s: results differ:\n%+v\n%+v", metric, first, second)
		}
	}
}

func TestReconcile_UnknownMetric(t *testing.T) {
	tbl, w := unitTable([]string{"A", "B", "C"}, []float64{1, 1, 1})
	_, err := Reconcile(tbl, w, Metric("median"), "x")
	if !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("err = %v, want ErrUnknownMetric", err)
	}
}

func TestBetter(t *testing.T) {
	a := model.BestMatch{Label: "testnet", Score: 0.5}
	b := model.BestMatch{Label: "mainnet", Score: 0.2}

	if got := Better(a, b); got.Label != "mainnet" {
		t.Errorf("Better = %q, want mainnet", got.Label)
	}
	if got := Better(b, a); got.Label != "mainnet" {
		t.Errorf("Better (swapped) = %q, want mainnet", got.Label)
	}

	tie := model.BestMatch{Label: "mainnet", Score: 0.5}
	if got := Better(a, tie); got.Label != "testnet" {
		t.Errorf("Better on tie = %q, want first argument", got.Label)
	}
}

func TestParseMetric(t *testing.T) {
	for _, name := range []string{"std", "mad", "minmax"} {
		m, err := ParseMetric(name)
		if err != nil {
			t.Errorf("ParseMetric(%q) failed: %v", name, err)
		}
		if string(m) != name {
			t.Errorf("ParseMetric(%q) = %q", name, m)
		}
	}
	if _, err := ParseMetric("variance"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("ParseMetric(variance) err = %v, want ErrUnknownMetric", err)
	}
}

func TestMetricScore(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := MetricStd.Score(values); math.Abs(got-2) > 1e-12 {
		t.Errorf("std = %v, want 2", got)
	}
	if got := MetricMAD.Score(values); math.Abs(got-1.5) > 1e-12 {
		t.Errorf("mad = %v, want 1.5", got)
	}
	if got := MetricMinMax.Score(values); got != 7 {
		t.Errorf("minmax = %v, want 7", got)
	}
}
