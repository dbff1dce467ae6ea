package beatmap

import (
	"math"
	"sort"

	"mapcheck/dotosu"
	"mapcheck/vmath"
)

// HitsoundLeniency is how far ahead of a timing line a hitsound may sit and
// still pick up that line's sample settings.
const HitsoundLeniency = 5.0

// TimingLine is a control point. Uninherited lines define the tempo,
// inherited lines only scale slider velocity and override sampling.
type TimingLine struct {
	Offset      float64
	Uninherited bool

	// MsPerBeat and Meter are only meaningful on uninherited lines.
	MsPerBeat float64
	Meter     int
	// SvMult is 1 on uninherited lines.
	SvMult float64

	SampleSet        string
	CustomIndex      int
	Volume           int
	Kiai             bool
	OmitFirstBarLine bool
}

// BPM of an uninherited line.
func (l TimingLine) BPM() float64 {
	if l.MsPerBeat == 0 {
		return 0
	}
	return 60000 / l.MsPerBeat
}

// TimingLines is sorted by offset. Lines sharing an offset keep their order
// from the file, so the last of them wins a lookup.
type TimingLines []TimingLine

func newTimingLines(points []dotosu.TimingPoint) TimingLines {
	lines := make(TimingLines, 0, len(points))
	for _, p := range points {
		line := TimingLine{
			Offset:           p.Offset,
			Uninherited:      p.Uninherited,
			Meter:            p.Meter,
			SvMult:           1,
			SampleSet:        p.SampleSet,
			CustomIndex:      p.CustomSampleBank,
			Volume:           p.SampleVolume,
			Kiai:             p.Kiai,
			OmitFirstBarLine: p.OmitFirstBarLine,
		}
		if p.Uninherited {
			line.MsPerBeat = p.BeatLength
		} else if !math.IsNaN(p.BeatLength) && p.BeatLength < 0 {
			line.SvMult = vmath.Clamp(-100/p.BeatLength, 0.1, 10)
		}
		lines = append(lines, line)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Offset < lines[j].Offset })
	return lines
}

// At returns the last line at or before time (time + HitsoundLeniency when
// lenient) matching the filter. With nothing before time it falls back to
// the first matching line after it, and returns nil when no line matches.
func (ls TimingLines) At(time float64, uninheritedOnly, lenient bool) *TimingLine {
	limit := time
	if lenient {
		limit += HitsoundLeniency
	}
	var found *TimingLine
	for i := range ls {
		if ls[i].Offset > limit {
			break
		}
		if uninheritedOnly && !ls[i].Uninherited {
			continue
		}
		found = &ls[i]
	}
	if found != nil {
		return found
	}
	return ls.Next(time, uninheritedOnly)
}

// Next returns the first line strictly after time matching the filter.
func (ls TimingLines) Next(time float64, uninheritedOnly bool) *TimingLine {
	for i := range ls {
		if ls[i].Offset <= time {
			continue
		}
		if uninheritedOnly && !ls[i].Uninherited {
			continue
		}
		return &ls[i]
	}
	return nil
}

// SliderVelocityAt is the multiplier of the inherited line governing time,
// reset to 1 by any uninherited line after it.
func (ls TimingLines) SliderVelocityAt(time float64) float64 {
	line := ls.At(time, false, false)
	if line == nil || line.Offset > time {
		return 1
	}
	return line.SvMult
}

// KiaiAt reports whether the line governing time has kiai enabled.
func (ls TimingLines) KiaiAt(time float64) bool {
	line := ls.At(time, false, false)
	return line != nil && line.Offset <= time && line.Kiai
}
