package beatmap

import (
	"math"

	"github.com/pkg/errors"
)

// ErrNoTiming is returned by beat-snap queries when the map has no usable
// uninherited timing line.
var ErrNoTiming = errors.New("no uninherited timing line")

const (
	DefaultDivisorA = 16
	DefaultDivisorB = 12

	// UnsnapThreshold is the smallest practical unsnap, in ms, reported as
	// an issue.
	UnsnapThreshold = 2.0
)

// Divisors checked by LowestDivisor, in the order they are tried.
var Divisors = []int{1, 2, 3, 4, 6, 8, 12, 16}

func (ls TimingLines) governing(time float64) (*TimingLine, error) {
	line := ls.At(time, true, false)
	if line == nil {
		return nil, ErrNoTiming
	}
	if !(line.MsPerBeat > 0) || math.IsInf(line.MsPerBeat, 0) {
		return nil, errors.Wrapf(ErrNoTiming, "line at %vms has beat length %v", line.Offset, line.MsPerBeat)
	}
	return line, nil
}

// BeatOffset is how far into its beat time lies, in ms. Times before the
// governing line wrap around, so the result is always in [0, msPerBeat).
func (ls TimingLines) BeatOffset(time float64) (float64, error) {
	line, err := ls.governing(time)
	if err != nil {
		return 0, err
	}
	return beatOffset(line, time), nil
}

func beatOffset(line *TimingLine, time float64) float64 {
	beats := (time - line.Offset) / line.MsPerBeat
	return (beats - math.Floor(beats)) * line.MsPerBeat
}

// TheoreticalUnsnap is the signed distance in ms from time to the closest
// tick of either divisor grid; the smaller magnitude wins, divA on ties.
func (ls TimingLines) TheoreticalUnsnap(time float64, divA, divB int) (float64, error) {
	line, err := ls.governing(time)
	if err != nil {
		return 0, err
	}
	fraction := beatOffset(line, time) / line.MsPerBeat
	a := snapDeviation(fraction, divA) * line.MsPerBeat
	b := snapDeviation(fraction, divB) * line.MsPerBeat
	if math.Abs(b) < math.Abs(a) {
		return b, nil
	}
	return a, nil
}

// snapDeviation is fraction minus its nearest multiple of 1/divisor. Ties
// round to even, like the game client.
func snapDeviation(fraction float64, divisor int) float64 {
	d := float64(divisor)
	return fraction - math.RoundToEven(fraction*d)/d
}

// PracticalUnsnap is the unsnap the game actually produces: snapped times
// are truncated to whole milliseconds, so the result is
// floor(time - theoretical) - time.
func (ls TimingLines) PracticalUnsnap(time float64, divA, divB int) (float64, error) {
	theoretical, err := ls.TheoreticalUnsnap(time, divA, divB)
	if err != nil {
		return 0, err
	}
	return math.Floor(time-theoretical) - time, nil
}

// UnsnapIssue returns the practical unsnap on the default 1/16 and 1/12
// grids and true if its magnitude is at least UnsnapThreshold.
func (ls TimingLines) UnsnapIssue(time float64) (float64, bool, error) {
	unsnap, err := ls.PracticalUnsnap(time, DefaultDivisorA, DefaultDivisorB)
	if err != nil {
		return 0, false, err
	}
	if math.Abs(unsnap) >= UnsnapThreshold {
		return unsnap, true, nil
	}
	return 0, false, nil
}

// LowestDivisor returns the smallest divisor time is snapped to, or 0 when
// it is on none of them.
func (ls TimingLines) LowestDivisor(time float64) (int, error) {
	for _, divisor := range Divisors {
		unsnap, err := ls.PracticalUnsnap(time, divisor, 1)
		if err != nil {
			return 0, err
		}
		if math.Abs(unsnap) < UnsnapThreshold {
			return divisor, nil
		}
	}
	return 0, nil
}
