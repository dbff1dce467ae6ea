// Package beatmap builds the checked model of a decoded .osu file: timing
// lines, hit objects with their final stack indices, and the star rating.
package beatmap

import (
	"sort"

	"github.com/pkg/errors"

	"mapcheck/difficulty"
	"mapcheck/dotosu"
	"mapcheck/vmath"
)

// Beatmap is read-only once New returns.
type Beatmap struct {
	FormatVersion int
	General       General
	Editor        dotosu.Editor
	Metadata      Metadata
	Difficulty    Difficulty
	Colours       Colours

	Background string
	Video      string
	Breaks     []Break

	TimingLines TimingLines
	HitObjects  []HitObject

	// StackErr is set when stacking gave up before settling.
	StackErr error

	starRating  *float64
	attributes  *difficulty.Attributes
	strainPeaks difficulty.StrainPeaks
}

type options struct {
	starRating *float64
	combiner   difficulty.Combiner
}

type Option func(*options)

// WithStarRating uses a known star rating instead of computing one.
func WithStarRating(stars float64) Option {
	return func(o *options) { o.starRating = &stars }
}

// WithCombiner sets the formula joining aim and speed into the star rating.
func WithCombiner(c difficulty.Combiner) Option {
	return func(o *options) { o.combiner = c }
}

// New builds a Beatmap from f. Settings come first, then breaks, timing
// lines, hit objects, stacking and finally difficulty.
func New(f *dotosu.File, opts ...Option) (*Beatmap, error) {
	if f == nil {
		return nil, errors.New("nil file")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	b := &Beatmap{
		FormatVersion: f.FormatVersion,
		General:       General{f.General},
		Editor:        f.Editor,
		Metadata:      Metadata{f.Metadata},
		Difficulty:    Difficulty{f.Difficulty},
		Colours:       Colours{f.Colours},
		Background:    f.Background,
		Video:         f.Video,
	}

	for _, br := range f.Breaks {
		b.Breaks = append(b.Breaks, Break{Start: br.Start, End: br.End})
	}
	sort.SliceStable(b.Breaks, func(i, j int) bool { return b.Breaks[i].Start < b.Breaks[j].Start })

	b.TimingLines = newTimingLines(f.TimingPoints)

	b.HitObjects = make([]HitObject, 0, len(f.HitObjects))
	for _, raw := range f.HitObjects {
		h, err := newHitObject(raw, b.TimingLines, b.Difficulty)
		if err != nil {
			return nil, errors.Wrap(err, "hit objects")
		}
		b.HitObjects = append(b.HitObjects, h)
	}
	sort.SliceStable(b.HitObjects, func(i, j int) bool { return b.HitObjects[i].Time() < b.HitObjects[j].Time() })

	threshold := StackTimeThreshold(b.Difficulty.Preempt(), b.General.StackLeniency)
	if err := ApplyStacking(b.Stackables(), threshold); err != nil {
		b.StackErr = err
		logger.Printf("%s: %v", b.Metadata.String(), err)
	}

	switch {
	case o.starRating != nil:
		b.starRating = o.starRating
	case b.General.GameMode() == ModeStandard:
		attrs, peaks := difficulty.Calculate(b.difficultyObjects(), b.Difficulty.CircleRadius(), o.combiner)
		b.attributes = &attrs
		b.strainPeaks = peaks
		b.starRating = &attrs.Total
	}
	return b, nil
}

// Stackables returns the circles and sliders in time order.
func (b *Beatmap) Stackables() []Stackable {
	var out []Stackable
	for _, h := range b.HitObjects {
		if s, ok := h.(Stackable); ok {
			out = append(out, s)
		}
	}
	return out
}

// StackOffset is the displacement of one stack index.
func (b *Beatmap) StackOffset() vmath.Vec {
	return stackOffset(b.Difficulty.CircleRadius())
}

// PositionOf is where h is drawn: its stacked position for circles and
// sliders, its decoded position otherwise.
func (b *Beatmap) PositionOf(h HitObject) vmath.Vec {
	if s, ok := h.(Stackable); ok {
		return s.StackedPosition(b.StackOffset())
	}
	return h.Position()
}

// StarRating is false when the map has no rating: it was not supplied and
// the mode is not standard.
func (b *Beatmap) StarRating() (float64, bool) {
	if b.starRating == nil {
		return 0, false
	}
	return *b.starRating, true
}

// Attributes is only set when the rating was computed here.
func (b *Beatmap) Attributes() (difficulty.Attributes, bool) {
	if b.attributes == nil {
		return difficulty.Attributes{}, false
	}
	return *b.attributes, true
}

func (b *Beatmap) StrainPeaks() difficulty.StrainPeaks { return b.strainPeaks }

func (b *Beatmap) difficultyObjects() []difficulty.Object {
	offset := b.StackOffset()
	objs := make([]difficulty.Object, 0, len(b.HitObjects))
	for _, h := range b.HitObjects {
		o := difficulty.Object{
			Time:    h.Time(),
			EndTime: h.EndTime(),
			Pos:     h.Position(),
			Combo:   1,
		}
		switch h := h.(type) {
		case *Circle:
			o.Kind = difficulty.KindCircle
			o.Pos = h.StackedPosition(offset)
			o.EndPos = o.Pos
		case *Slider:
			o.Kind = difficulty.KindSlider
			o.Pos = h.StackedPosition(offset)
			o.EndPos = h.StackedEndPosition(offset)
			o.TravelDistance = h.Length
			o.Combo = h.Combo()
		case *Spinner:
			o.Kind = difficulty.KindSpinner
			o.EndPos = o.Pos
		default:
			continue
		}
		objs = append(objs, o)
	}
	return objs
}
