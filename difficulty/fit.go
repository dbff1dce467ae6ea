package difficulty

import "math"

const (
	minFitPower = 0.1
	maxFitPower = 64.0
)

// FitPower finds the PowerMean power that turns aim and speed into target by
// bisection. It reports false when no power in range reaches target; the
// power returned is then the nearest bound.
func FitPower(aim, speed, target float64) (float64, bool) {
	rate := func(p float64) float64 { return PowerMean{Power: p}.Combine(aim, speed) }
	lo, hi := minFitPower, maxFitPower
	switch {
	case target <= rate(lo):
		return lo, math.Abs(rate(lo)-target) < 1e-9
	case target >= rate(hi):
		return hi, math.Abs(rate(hi)-target) < 1e-9
	}
	for range 1000 {
		mid := (lo + hi) / 2
		got := rate(mid)
		if math.Abs(got-target) < 1e-9 {
			return mid, true
		}
		if got < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, true
}
