package difficulty

import (
	"math"

	"mapcheck/vmath"
)

type Kind uint8

const (
	KindCircle Kind = iota
	KindSlider
	KindSpinner
)

// Object is a hit object as the skills see it. Positions are stacked.
type Object struct {
	Kind    Kind
	Time    float64
	EndTime float64
	Pos     vmath.Vec
	// EndPos is where the cursor leaves the object; Pos for circles.
	EndPos vmath.Vec
	// TravelDistance is how far a slider's ball moves over one span, in
	// osu!pixels.
	TravelDistance float64
	// Combo is the number of combo points the object awards.
	Combo int
}

// normalisedRadius is the radius every distance is scaled to.
const normalisedRadius = 52.0

// minStrainTime keeps very short gaps from producing unbounded strain.
const minStrainTime = 50.0

// Delta is an object measured against the one before it.
type Delta struct {
	*Object

	DeltaTime  float64
	StrainTime float64
	// JumpDistance is the scaled distance from the end of the previous
	// object to the start of this one.
	JumpDistance float64
	// TravelDistance is the scaled slider travel of the previous object.
	TravelDistance float64
}

// Distance is the total scaled distance the cursor covers to reach the
// object.
func (d Delta) Distance() float64 { return d.JumpDistance + d.TravelDistance }

// distanceScale maps osu!pixels onto the normalised radius. Small circles
// get a bonus of up to 10%.
func distanceScale(radius float64) float64 {
	if radius <= 0 {
		return 1
	}
	scale := normalisedRadius / radius
	if radius < 30 {
		scale *= 1 + math.Min(30-radius, 5)/50
	}
	return scale
}

// NewDeltas pairs every object with its predecessor. objs must be sorted by
// time; the first object has no delta.
func NewDeltas(objs []Object, radius float64) []Delta {
	if len(objs) < 2 {
		return nil
	}
	scale := distanceScale(radius)
	deltas := make([]Delta, 0, len(objs)-1)
	for i := 1; i < len(objs); i++ {
		prev, cur := &objs[i-1], &objs[i]
		d := Delta{
			Object:    cur,
			DeltaTime: cur.Time - prev.Time,
		}
		d.StrainTime = math.Max(minStrainTime, d.DeltaTime)
		if cur.Kind != KindSpinner && prev.Kind != KindSpinner {
			d.JumpDistance = prev.EndPos.Scale(scale).Dist(cur.Pos.Scale(scale))
			if prev.Kind == KindSlider {
				d.TravelDistance = prev.TravelDistance * scale
			}
		}
		deltas = append(deltas, d)
	}
	return deltas
}
