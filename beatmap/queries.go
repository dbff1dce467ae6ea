package beatmap

import (
	"math"

	"github.com/pkg/errors"

	"mapcheck/dotosu"
)

// countdownBeats is the number of countdown ticks before the first object.
const countdownBeats = 5

var ErrNoCountdown = errors.New("countdown disabled or no hit objects")

func (b *Beatmap) TimingLineAt(time float64, uninheritedOnly, lenient bool) *TimingLine {
	return b.TimingLines.At(time, uninheritedOnly, lenient)
}

func (b *Beatmap) NextTimingLine(time float64, uninheritedOnly bool) *TimingLine {
	return b.TimingLines.Next(time, uninheritedOnly)
}

func (b *Beatmap) KiaiAt(time float64) bool { return b.TimingLines.KiaiAt(time) }

func (b *Beatmap) BeatOffset(time float64) (float64, error) {
	return b.TimingLines.BeatOffset(time)
}

func (b *Beatmap) TheoreticalUnsnap(time float64, divA, divB int) (float64, error) {
	return b.TimingLines.TheoreticalUnsnap(time, divA, divB)
}

func (b *Beatmap) PracticalUnsnap(time float64, divA, divB int) (float64, error) {
	return b.TimingLines.PracticalUnsnap(time, divA, divB)
}

func (b *Beatmap) UnsnapIssue(time float64) (float64, bool, error) {
	return b.TimingLines.UnsnapIssue(time)
}

func (b *Beatmap) LowestDivisor(time float64) (int, error) {
	return b.TimingLines.LowestDivisor(time)
}

// Unsnap is one hit object edge off the 1/16 and 1/12 grids.
type Unsnap struct {
	Object HitObject
	// Edge is 0 for the head, then counts repeats and the tail.
	Edge    int
	Time    float64
	Unsnap  float64
	Divisor int
}

// UnsnapIssues checks every edge of every hit object.
func (b *Beatmap) UnsnapIssues() ([]Unsnap, error) {
	var issues []Unsnap
	for _, h := range b.HitObjects {
		for edge, t := range edgeTimes(h) {
			unsnap, ok, err := b.TimingLines.UnsnapIssue(t)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			div, err := b.TimingLines.LowestDivisor(t)
			if err != nil {
				return nil, err
			}
			issues = append(issues, Unsnap{Object: h, Edge: edge, Time: t, Unsnap: unsnap, Divisor: div})
		}
	}
	return issues, nil
}

// startsCombo reports whether the object at i begins a new combo. The first
// object and the first object after a spinner always do.
func (b *Beatmap) startsCombo(i int) bool {
	return i == 0 ||
		b.HitObjects[i].Type().NewCombo() ||
		b.HitObjects[i-1].Kind() == dotosu.KindSpinner
}

// ComboColourIndexAt is the combo colour of the last object starting at or
// before time. Spinners have no colour and are skipped.
func (b *Beatmap) ComboColourIndexAt(time float64) int {
	index := 0
	coloured := false
	for i, h := range b.HitObjects {
		if h.Time() > time {
			break
		}
		if h.Kind() == dotosu.KindSpinner {
			continue
		}
		switch {
		case !coloured:
			index = h.Type().ComboSkip()
			coloured = true
		case b.startsCombo(i):
			index += 1 + h.Type().ComboSkip()
		}
	}
	return index % b.Colours.ComboColourCount()
}

func (b *Beatmap) indexOf(h HitObject) int {
	for i, o := range b.HitObjects {
		if o == h {
			return i
		}
	}
	return -1
}

// ComboNumber is the number shown on h: its position in its combo,
// starting at 1. It is 0 for objects not in this map.
func (b *Beatmap) ComboNumber(h HitObject) int {
	i := b.indexOf(h)
	if i < 0 {
		return 0
	}
	n := 1
	for ; !b.startsCombo(i); i-- {
		n++
	}
	return n
}

// PlayTime is the time from the first object's start to the last object's
// end.
func (b *Beatmap) PlayTime() float64 {
	if len(b.HitObjects) == 0 {
		return 0
	}
	return b.HitObjects[len(b.HitObjects)-1].EndTime() - b.HitObjects[0].Time()
}

// DrainTime is PlayTime without breaks. Maps with fewer than two objects
// have none.
func (b *Beatmap) DrainTime() float64 {
	if len(b.HitObjects) < 2 {
		return 0
	}
	drain := b.PlayTime()
	for _, br := range b.Breaks {
		drain -= br.Duration()
	}
	return max(0, drain)
}

func (b *Beatmap) BreakAt(time float64) *Break {
	for i := range b.Breaks {
		if b.Breaks[i].Contains(time) {
			return &b.Breaks[i]
		}
	}
	return nil
}

func (b *Beatmap) InBreak(time float64) bool { return b.BreakAt(time) != nil }

// HitObjectAt returns the last object starting at or before time.
func (b *Beatmap) HitObjectAt(time float64) HitObject {
	var found HitObject
	for _, h := range b.HitObjects {
		if h.Time() > time {
			break
		}
		found = h
	}
	return found
}

func (b *Beatmap) PrevHitObject(h HitObject) HitObject {
	if i := b.indexOf(h); i > 0 {
		return b.HitObjects[i-1]
	}
	return nil
}

func (b *Beatmap) NextHitObject(h HitObject) HitObject {
	if i := b.indexOf(h); i >= 0 && i+1 < len(b.HitObjects) {
		return b.HitObjects[i+1]
	}
	return nil
}

func (b *Beatmap) countdownLine() (*TimingLine, error) {
	if b.General.CountdownSpeed() == CountdownNone || len(b.HitObjects) == 0 {
		return nil, ErrNoCountdown
	}
	return b.TimingLines.governing(b.HitObjects[0].Time())
}

// CountdownBeatLength is the time between two countdown ticks.
func (b *Beatmap) CountdownBeatLength() (float64, error) {
	line, err := b.countdownLine()
	if err != nil {
		return 0, err
	}
	return line.MsPerBeat * b.General.CountdownSpeed().beatMultiplier(), nil
}

// CountdownStartTime is when the first countdown tick plays: five ticks
// before the first object, moved back by CountdownOffset ticks.
func (b *Beatmap) CountdownStartTime() (float64, error) {
	beat, err := b.CountdownBeatLength()
	if err != nil {
		return 0, err
	}
	ticks := float64(countdownBeats + b.General.CountdownOffset)
	return b.HitObjects[0].Time() - ticks*beat, nil
}

// CountdownStartBeat is the beat of the governing timing line the countdown
// starts on. It is negative when the countdown starts before the line.
func (b *Beatmap) CountdownStartBeat() (int, error) {
	line, err := b.countdownLine()
	if err != nil {
		return 0, err
	}
	start, err := b.CountdownStartTime()
	if err != nil {
		return 0, err
	}
	return int(math.Floor((start - line.Offset) / line.MsPerBeat)), nil
}
