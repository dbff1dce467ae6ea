package beatmap

import (
	"fmt"

	"mapcheck/dotosu"
	"mapcheck/vmath"
)

type Mode int

const (
	ModeStandard Mode = iota
	ModeTaiko
	ModeCatch
	ModeMania
)

type General struct{ dotosu.General }

func (g General) GameMode() Mode { return Mode(g.Mode) }

type Countdown int

const (
	CountdownNone Countdown = iota
	CountdownNormal
	CountdownHalf
	CountdownDouble
)

func (g General) CountdownSpeed() Countdown { return Countdown(g.Countdown) }

// countdownBeatMultiplier scales the beat length of the governing timing
// line to the length of one countdown tick.
func (c Countdown) beatMultiplier() float64 {
	switch c {
	case CountdownHalf:
		return 2
	case CountdownDouble:
		return 0.5
	default:
		return 1
	}
}

type Metadata struct{ dotosu.Metadata }

// String is the usual "Artist - Title [Version]" label.
func (m Metadata) String() string {
	return fmt.Sprintf("%s - %s [%s]", m.Artist, m.Title, m.Version)
}

type Difficulty struct{ dotosu.Difficulty }

// Preempt is how long before its time an object starts fading in, in ms.
func (d Difficulty) Preempt() float64 {
	return ApproachRateToPreempt(d.ApproachRate)
}

// CircleRadius in osu!pixels.
func (d Difficulty) CircleRadius() float64 {
	return 54.4 - 4.48*d.CircleSize
}

func ApproachRateToPreempt(ar float64) float64 {
	if ar < 5 {
		return 1200 + 120*(5-ar)
	}
	return 1200 - 150*(ar-5)
}

func PreemptToApproachRate(preempt float64) float64 {
	if preempt > 1200 {
		return 5 - (preempt-1200)/120
	}
	return 5 + (1200-preempt)/150
}

// Number of combo colours the default skin uses when a map configures none.
const defaultComboColours = 4

type Colours struct{ dotosu.Colours }

func (c Colours) ComboColourCount() int {
	if len(c.Combos) == 0 {
		return defaultComboColours
	}
	return len(c.Combos)
}

type Break struct{ Start, End float64 }

func (b Break) Duration() float64 { return b.End - b.Start }

func (b Break) Contains(time float64) bool { return time >= b.Start && time <= b.End }

// stackOffset is the per-index displacement of a stacked object.
func stackOffset(radius float64) vmath.Vec {
	return vmath.Vec{X: -radius / 10, Y: -radius / 10}
}
