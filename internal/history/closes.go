package history

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rickgao/deribit-marks/internal/model"
)

// ErrNoData is returned when the provider answered without any price series.
var ErrNoData = errors.New("no price data")

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Closes returns daily closes for symbol between start and end, oldest first.
// Days the provider reports without a close are skipped.
func (c *Client) Closes(ctx context.Context, symbol string, start, end time.Time) ([]model.DailyClose, error) {
	query := url.Values{}
	query.Set("period1", strconv.FormatInt(start.Unix(), 10))
	query.Set("period2", strconv.FormatInt(end.Unix(), 10))
	query.Set("interval", "1d")

	var resp chartResponse
	if err := c.getJSON(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), query, &resp); err != nil {
		return nil, fmt.Errorf("get closes %s: %w", symbol, err)
	}

	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("get closes %s: %s: %s", symbol, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("get closes %s: %w", symbol, ErrNoData)
	}

	return toCloses(resp.Chart.Result[0]), nil
}

func toCloses(r chartResult) []model.DailyClose {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	closes := r.Indicators.Quote[0].Close

	out := make([]model.DailyClose, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		out = append(out, model.DailyClose{
			Date:  time.Unix(ts, 0).UTC().Format(time.DateOnly),
			Close: *closes[i],
		})
	}
	return out
}
