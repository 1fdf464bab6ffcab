package reconcile

import (
	"slices"
	"time"

	"github.com/rickgao/deribit-marks/internal/model"
)

// Table is a merged price table: one row per timestamp (ascending, unique),
// one column per asset. A zero cell is missing.
type Table struct {
	Assets     []string
	Timestamps []int64
	Dates      []string    // UTC calendar date of each row (YYYY-MM-DD)
	Prices     [][]float64 // Prices[row][col]
}

// Merge builds a table over the union of all timestamps in series. Columns
// follow assets; series for assets not listed are ignored. A later point for
// the same asset and timestamp overwrites an earlier one.
func Merge(series map[string][]model.SettlementPoint, assets []string) *Table {
	byAsset := make(map[string]map[int64]float64, len(assets))
	seen := make(map[int64]struct{})

	for _, asset := range assets {
		points := make(map[int64]float64)
		for _, p := range series[asset] {
			points[p.Timestamp] = p.Price
			seen[p.Timestamp] = struct{}{}
		}
		byAsset[asset] = points
	}

	timestamps := make([]int64, 0, len(seen))
	for ts := range seen {
		timestamps = append(timestamps, ts)
	}
	slices.Sort(timestamps)

	t := &Table{
		Assets:     slices.Clone(assets),
		Timestamps: timestamps,
		Dates:      make([]string, len(timestamps)),
		Prices:     make([][]float64, len(timestamps)),
	}
	for i, ts := range timestamps {
		t.Dates[i] = model.DateOf(ts)
		row := make([]float64, len(assets))
		for j, asset := range assets {
			row[j] = byAsset[asset][ts]
		}
		t.Prices[i] = row
	}

	return t
}

// Column returns the index of asset, or -1.
func (t *Table) Column(asset string) int {
	return slices.Index(t.Assets, asset)
}

// Missing counts missing cells in an asset's column.
func (t *Table) Missing(asset string) int {
	col := t.Column(asset)
	if col < 0 {
		return 0
	}
	n := 0
	for _, row := range t.Prices {
		if row[col] == 0 {
			n++
		}
	}
	return n
}

// Span returns the first and last row dates, or empty strings for an empty table.
func (t *Table) Span() (start, end string) {
	if len(t.Dates) == 0 {
		return "", ""
	}
	return t.Dates[0], t.Dates[len(t.Dates)-1]
}

// FillFromTable fills missing cells of asset with alt's value for the same
// calendar date. The first non-missing value alt holds for a date is used.
// Returns the number of cells filled.
func (t *Table) FillFromTable(asset string, alt *Table) int {
	col := t.Column(asset)
	if col < 0 || alt == nil {
		return 0
	}
	altCol := alt.Column(asset)
	if altCol < 0 {
		return 0
	}

	byDate := make(map[string]float64)
	for i, date := range alt.Dates {
		v := alt.Prices[i][altCol]
		if v == 0 {
			continue
		}
		if _, ok := byDate[date]; !ok {
			byDate[date] = v
		}
	}

	return t.fillByDate(col, byDate)
}

// FillFromCloses fills missing cells of asset from daily closes. A close is
// published the day after its session, so a close dated D fills rows dated D+1.
// Returns the number of cells filled.
func (t *Table) FillFromCloses(asset string, closes []model.DailyClose) int {
	col := t.Column(asset)
	if col < 0 {
		return 0
	}

	byDate := make(map[string]float64, len(closes))
	for _, c := range closes {
		d, err := time.Parse(time.DateOnly, c.Date)
		if err != nil || c.Close == 0 {
			continue
		}
		byDate[d.AddDate(0, 0, 1).Format(time.DateOnly)] = c.Close
	}

	return t.fillByDate(col, byDate)
}

func (t *Table) fillByDate(col int, byDate map[string]float64) int {
	filled := 0
	for i, row := range t.Prices {
		if row[col] != 0 {
			continue
		}
		if v, ok := byDate[t.Dates[i]]; ok {
			row[col] = v
			filled++
		}
	}
	return filled
}
