package reconcile

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownMetric is returned by ParseMetric for unsupported names.
var ErrUnknownMetric = errors.New("unknown dispersion metric")

// Metric selects how disagreement between valuations in a row is scored.
type Metric string

const (
	// MetricStd is the population standard deviation.
	MetricStd Metric = "std"
	// MetricMAD is the mean absolute deviation from the row mean.
	MetricMAD Metric = "mad"
	// MetricMinMax is the spread between the largest and smallest valuation.
	MetricMinMax Metric = "minmax"
)

// Metrics lists the supported metrics.
var Metrics = []Metric{MetricStd, MetricMAD, MetricMinMax}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q (want std, mad or minmax)", ErrUnknownMetric, s)
}

// Score computes the metric over values. values must be non-empty and free
// of missing entries.
func (m Metric) Score(values []float64) float64 {
	switch m {
	case MetricStd:
		return stddev(values)
	case MetricMAD:
		return meanAbsDev(values)
	case MetricMinMax:
		return spread(values)
	}
	return math.NaN()
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	mu := mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

func meanAbsDev(values []float64) float64 {
	mu := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += math.Abs(v - mu)
	}
	return sum / float64(len(values))
}

func spread(values []float64) float64 {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi - lo
}
