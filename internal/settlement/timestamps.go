package settlement

import "time"

const msPerDay = 86_400_000

// BackdatedTimestamps returns steps search starts in ms: now, then now minus
// i*deltaYears years of 365 days. Offsets are computed in milliseconds, so
// spans beyond the range of time.Duration stay monotonic.
func BackdatedTimestamps(now time.Time, steps int, deltaYears float64) []int64 {
	if steps <= 0 {
		return nil
	}
	stepMs := deltaYears * 365 * msPerDay
	nowMs := now.UnixMilli()

	out := make([]int64, steps)
	for i := range out {
		out[i] = nowMs - int64(float64(i)*stepMs)
	}
	return out
}
