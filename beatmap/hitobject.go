package beatmap

import (
	"math"

	"github.com/pkg/errors"

	"mapcheck/dotosu"
	"mapcheck/vmath"
)

// HitObject is one of *Circle, *Slider, *Spinner or *HoldNote.
type HitObject interface {
	Time() float64
	// EndTime equals Time for circles.
	EndTime() float64
	Type() dotosu.TypeFlags
	// Position is the decoded position, before stacking. Beatmap.PositionOf
	// gives the drawn one.
	Position() vmath.Vec
	Kind() dotosu.Kind
	HitSound() dotosu.HitSoundFlags
	Sample() dotosu.HitSample
}

// Stackable is implemented by circles and sliders. Stack indices are only
// written while the beatmap is being built.
type Stackable interface {
	HitObject
	StackIndex() int
	UnstackedPosition() vmath.Vec
	StackedPosition(offset vmath.Vec) vmath.Vec
	stack() *Stack
}

type object struct {
	time     float64
	typ      dotosu.TypeFlags
	pos      vmath.Vec
	hitSound dotosu.HitSoundFlags
	sample   dotosu.HitSample
}

func newObject(raw dotosu.HitObject) object {
	return object{
		time:     raw.Time,
		typ:      raw.Type,
		pos:      vmath.Vec{X: raw.Pos.X, Y: raw.Pos.Y},
		hitSound: raw.HitSound,
		sample:   raw.Sample,
	}
}

func (o *object) Time() float64                  { return o.time }
func (o *object) Type() dotosu.TypeFlags         { return o.typ }
func (o *object) Position() vmath.Vec            { return o.pos }
func (o *object) HitSound() dotosu.HitSoundFlags { return o.hitSound }
func (o *object) Sample() dotosu.HitSample       { return o.sample }

// Stack is the stacking state shared by circles and sliders.
type Stack struct {
	index int
}

func (s *Stack) StackIndex() int { return s.index }
func (s *Stack) stack() *Stack   { return s }

type Circle struct {
	object
	Stack
}

func (c *Circle) EndTime() float64             { return c.time }
func (c *Circle) Kind() dotosu.Kind            { return dotosu.KindCircle }
func (c *Circle) UnstackedPosition() vmath.Vec { return c.pos }
func (c *Circle) StackedPosition(offset vmath.Vec) vmath.Vec {
	return c.pos.Add(offset.Scale(float64(c.index)))
}

type Slider struct {
	object
	Stack

	PathType dotosu.PathType
	// ControlPoints start with the head.
	ControlPoints []vmath.Vec
	// Length is the pixel length of one span.
	Length float64
	// EdgeAmount counts head, repeats and tail, so it is always at least 2.
	EdgeAmount int
	EdgeSounds []dotosu.HitSoundFlags
	EdgeSets   []dotosu.EdgeSet

	beatLength   float64
	tickRate     float64
	spanDuration float64
	endTime      float64
	path         []vmath.Vec
	endPos       vmath.Vec
}

func (s *Slider) EndTime() float64             { return s.endTime }
func (s *Slider) Kind() dotosu.Kind            { return dotosu.KindSlider }
func (s *Slider) UnstackedPosition() vmath.Vec { return s.pos }
func (s *Slider) StackedPosition(offset vmath.Vec) vmath.Vec {
	return s.pos.Add(offset.Scale(float64(s.index)))
}

// Slides is the number of spans.
func (s *Slider) Slides() int { return s.EdgeAmount - 1 }

// SpanDuration is the time one pass over the path takes.
func (s *Slider) SpanDuration() float64 { return s.spanDuration }

// EndPosition is the far end of the path.
func (s *Slider) EndPosition() vmath.Vec { return s.endPos }

// UnstackedEndPosition is where the slider finishes: the far end of the path
// for an even number of edges, the head otherwise.
func (s *Slider) UnstackedEndPosition() vmath.Vec {
	if s.EdgeAmount%2 == 0 {
		return s.endPos
	}
	return s.pos
}

func (s *Slider) StackedEndPosition(offset vmath.Vec) vmath.Vec {
	return s.UnstackedEndPosition().Add(offset.Scale(float64(s.index)))
}

// PathPositionAt is the unstacked point progress pixels along the path.
func (s *Slider) PathPositionAt(progress float64) vmath.Vec {
	return vmath.PositionAt(s.path, progress)
}

// TicksPerSpan counts the slider ticks on one span. Ticks closer than 36ms
// to the end of the span are dropped.
func (s *Slider) TicksPerSpan() int {
	if s.beatLength <= 0 || s.tickRate <= 0 {
		return 0
	}
	effective := s.spanDuration - min(36, s.spanDuration/2)
	return max(0, int(math.Floor(effective/s.beatLength*s.tickRate)))
}

// Combo is the number of combo points the slider awards: every edge and
// every tick.
func (s *Slider) Combo() int {
	return s.EdgeAmount + s.Slides()*s.TicksPerSpan()
}

// EdgeTimes lists the head, every repeat and the tail.
func (s *Slider) EdgeTimes() []float64 {
	times := make([]float64, s.EdgeAmount)
	for i := range times {
		times[i] = s.time + float64(i)*s.spanDuration
	}
	return times
}

type Spinner struct {
	object
	endTime float64
}

func (s *Spinner) EndTime() float64  { return s.endTime }
func (s *Spinner) Kind() dotosu.Kind { return dotosu.KindSpinner }

// HoldNote only appears in mania maps.
type HoldNote struct {
	object
	endTime float64
}

func (h *HoldNote) EndTime() float64  { return h.endTime }
func (h *HoldNote) Kind() dotosu.Kind { return dotosu.KindHold }

func newHitObject(raw dotosu.HitObject, lines TimingLines, diff Difficulty) (HitObject, error) {
	switch raw.Kind() {
	case dotosu.KindSpinner:
		return &Spinner{object: newObject(raw), endTime: max(raw.Time, raw.EndTime)}, nil
	case dotosu.KindHold:
		return &HoldNote{object: newObject(raw), endTime: max(raw.Time, raw.EndTime)}, nil
	case dotosu.KindSlider:
		return newSlider(raw, lines, diff)
	default:
		return &Circle{object: newObject(raw)}, nil
	}
}

func newSlider(raw dotosu.HitObject, lines TimingLines, diff Difficulty) (*Slider, error) {
	line, err := lines.governing(raw.Time)
	if err != nil {
		return nil, errors.Wrapf(err, "slider at %vms", raw.Time)
	}

	s := &Slider{
		object:     newObject(raw),
		PathType:   raw.Path.Type,
		Length:     raw.Length,
		EdgeAmount: max(raw.Slides, 1) + 1,
		EdgeSounds: raw.EdgeSounds,
		EdgeSets:   raw.EdgeSets,
		beatLength: line.MsPerBeat,
		tickRate:   diff.SliderTickRate,
	}
	s.ControlPoints = make([]vmath.Vec, len(raw.Path.Points))
	for i, p := range raw.Path.Points {
		s.ControlPoints[i] = vmath.Vec{X: p.X, Y: p.Y}
	}

	s.path = approximatePath(raw.Path)
	if len(s.path) == 0 {
		s.path = []vmath.Vec{s.pos}
	}
	if s.Length <= 0 {
		s.Length = vmath.PolylineLength(s.path)
	}
	s.endPos = vmath.PositionAt(s.path, s.Length)

	velocity := diff.SliderMultiplier * 100 * lines.SliderVelocityAt(raw.Time)
	if velocity > 0 {
		s.spanDuration = s.Length / velocity * line.MsPerBeat
	}
	if math.IsNaN(s.spanDuration) || math.IsInf(s.spanDuration, 0) {
		s.spanDuration = 0
	}
	s.endTime = s.time + float64(s.Slides())*s.spanDuration
	return s, nil
}

// edgeTimes lists every time an object asks for input: sliders report each
// edge, spinners and hold notes their start and end.
func edgeTimes(h HitObject) []float64 {
	switch h := h.(type) {
	case *Slider:
		return h.EdgeTimes()
	case *Spinner, *HoldNote:
		return []float64{h.Time(), h.EndTime()}
	default:
		return []float64{h.Time()}
	}
}
