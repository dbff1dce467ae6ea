package beatmap

import (
	"math"
	"testing"

	"github.com/pkg/errors"

	"mapcheck/dotosu"
	"mapcheck/vmath"
)

func circle(x, y, time float64, flags dotosu.TypeFlags) dotosu.HitObject {
	return dotosu.HitObject{
		Pos:  dotosu.Point{X: x, Y: y},
		Time: time,
		Type: dotosu.TypeCircle | flags,
	}
}

func slider(x, y, time, ex, ey float64, slides int, length float64) dotosu.HitObject {
	return dotosu.HitObject{
		Pos:  dotosu.Point{X: x, Y: y},
		Time: time,
		Type: dotosu.TypeSlider,
		Path: dotosu.SliderPath{
			Type:   dotosu.PathLinear,
			Points: []dotosu.Point{{X: x, Y: y}, {X: ex, Y: ey}},
		},
		Slides: slides,
		Length: length,
	}
}

func spinner(time, end float64) dotosu.HitObject {
	return dotosu.HitObject{Pos: dotosu.Point{X: 256, Y: 192}, Time: time, Type: dotosu.TypeSpinner, EndTime: end}
}

// testFile has one 120 BPM line at 0 and AR5, so stacking reaches 84ms.
func testFile(objs ...dotosu.HitObject) *dotosu.File {
	return &dotosu.File{
		FormatVersion: 14,
		General:       dotosu.General{StackLeniency: 0.7, Countdown: 1},
		Difficulty: dotosu.Difficulty{
			HPDrainRate:       5,
			CircleSize:        4,
			OverallDifficulty: 5,
			ApproachRate:      5,
			SliderMultiplier:  1,
			SliderTickRate:    1,
		},
		TimingPoints: []dotosu.TimingPoint{{Offset: 0, BeatLength: 500, Meter: 4, Uninherited: true}},
		HitObjects:   objs,
	}
}

func mustNew(t *testing.T, f *dotosu.File, opts ...Option) *Beatmap {
	t.Helper()
	b, err := New(f, opts...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return b
}

func stackIndices(b *Beatmap) []int {
	var out []int
	for _, s := range b.Stackables() {
		out = append(out, s.StackIndex())
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStackingStaircase(t *testing.T) {
	b := mustNew(t, testFile(
		circle(100, 100, 0, 0),
		circle(100, 100, 50, 0),
		circle(100, 100, 100, 0),
	))
	if b.StackErr != nil {
		t.Fatalf("stack error: %v", b.StackErr)
	}
	if got := stackIndices(b); !equalInts(got, []int{2, 1, 0}) {
		t.Fatalf("stack indices = %v", got)
	}

	offset := b.StackOffset()
	r := b.Difficulty.CircleRadius()
	if !offset.AlmostEq(vmath.Vec{X: -r / 10, Y: -r / 10}) {
		t.Fatalf("offset = %v", offset)
	}
	first := b.Stackables()[0]
	want := vmath.Vec{X: 100 - 2*r/10, Y: 100 - 2*r/10}
	if !first.StackedPosition(offset).AlmostEq(want) {
		t.Fatalf("stacked position = %v, want %v", first.StackedPosition(offset), want)
	}
	if first.UnstackedPosition() != (vmath.Vec{X: 100, Y: 100}) || first.Position() != first.UnstackedPosition() {
		t.Fatalf("unstacked position = %v", first.UnstackedPosition())
	}
	if got := b.PositionOf(b.HitObjects[0]); !got.AlmostEq(want) {
		t.Fatalf("position of first = %v, want %v", got, want)
	}
	if got := b.PositionOf(b.HitObjects[2]); got != (vmath.Vec{X: 100, Y: 100}) {
		t.Fatalf("position of last = %v", got)
	}
}

func TestStackingOutsideThreshold(t *testing.T) {
	b := mustNew(t, testFile(
		circle(100, 100, 0, 0),
		circle(100, 100, 200, 0),
		circle(102, 100, 250, 0),
		circle(200, 100, 300, 0),
	))
	if got := stackIndices(b); !equalInts(got, []int{0, 1, 0, 0}) {
		t.Fatalf("stack indices = %v", got)
	}
}

func TestStackingIdempotentAndDeterministic(t *testing.T) {
	f := testFile(
		circle(100, 100, 0, 0),
		circle(100, 100, 40, 0),
		slider(100, 100, 80, 200, 100, 1, 100),
		circle(200, 100, 600, 0),
		circle(200, 100, 650, 0),
		circle(100, 100, 700, 0),
	)
	a := mustNew(t, f)
	b := mustNew(t, f)
	first := stackIndices(a)
	if !equalInts(first, stackIndices(b)) {
		t.Fatalf("runs differ: %v vs %v", first, stackIndices(b))
	}

	threshold := StackTimeThreshold(a.Difficulty.Preempt(), a.General.StackLeniency)
	if err := ApplyStacking(a.Stackables(), threshold); err != nil {
		t.Fatalf("restack: %v", err)
	}
	if again := stackIndices(a); !equalInts(first, again) {
		t.Fatalf("restacking changed indices: %v -> %v", first, again)
	}
}

func TestStackingSliderTail(t *testing.T) {
	b := mustNew(t, testFile(
		slider(100, 100, 0, 200, 100, 1, 100),
		circle(200, 100, 550, 0),
		circle(200, 100, 600, 0),
	))
	s := b.HitObjects[0].(*Slider)
	if s.EndTime() != 500 {
		t.Fatalf("slider end = %v", s.EndTime())
	}
	if got := stackIndices(b); !equalInts(got, []int{0, -1, -2}) {
		t.Fatalf("stack indices = %v", got)
	}
	for _, h := range b.HitObjects[1:] {
		if h.(Stackable).StackIndex() > 0 {
			t.Fatalf("tail circle at %v stacked onto the head", h.Time())
		}
	}
}

func TestStackingRepeatingSlider(t *testing.T) {
	// the repeat brings the slider back to its head, where the circle sits
	b := mustNew(t, testFile(
		slider(100, 100, 0, 200, 100, 2, 100),
		circle(100, 100, 1050, 0),
	))
	s := b.HitObjects[0].(*Slider)
	if s.UnstackedEndPosition() != s.UnstackedPosition() {
		t.Fatalf("end of a repeating slider = %v", s.UnstackedEndPosition())
	}
	// heads coincide, so the head rule lifts the slider before the tail
	// rule is reached
	c := b.HitObjects[1].(*Circle)
	if s.StackIndex() != 1 || c.StackIndex() != 0 {
		t.Fatalf("stack indices = %d, %d", s.StackIndex(), c.StackIndex())
	}
}

func TestStackingGivesUp(t *testing.T) {
	defer func(f func(int) int) { maxStackPasses = f }(maxStackPasses)
	maxStackPasses = func(int) int { return 0 }
	SetLogger(nil)

	f := testFile(
		circle(100, 100, 0, 0),
		circle(100, 100, 50, 0),
		circle(100, 100, 100, 0),
	)
	a := mustNew(t, f)
	b := mustNew(t, f)
	for _, m := range []*Beatmap{a, b} {
		if !errors.Is(m.StackErr, ErrStackingDiverged) {
			t.Fatalf("stack error = %v", m.StackErr)
		}
	}
	if got := stackIndices(a); !equalInts(got, []int{1, 0, 0}) || !equalInts(got, stackIndices(b)) {
		t.Fatalf("stack indices = %v and %v", got, stackIndices(b))
	}
}

func TestStackPassTailBeforeHead(t *testing.T) {
	b := mustNew(t, testFile(
		slider(100, 100, 0, 200, 100, 2, 100),
		circle(100, 100, 1050, 0),
	))
	s := b.HitObjects[0].(*Slider)
	c := b.HitObjects[1].(*Circle)
	s.index, c.index = 0, 0

	threshold := StackTimeThreshold(b.Difficulty.Preempt(), b.General.StackLeniency)
	if stackPass(stackEntries([]Stackable{c, s}), threshold) {
		t.Fatal("circle on the slider tail was stacked onto the head")
	}
	if s.index != 0 || c.index != 0 {
		t.Fatalf("stack indices = %d, %d", s.index, c.index)
	}
	if !stackPass(stackEntries([]Stackable{s, c}), threshold) {
		t.Fatal("sorted pair did not stack")
	}
}

func TestStackingIgnoresSpinners(t *testing.T) {
	b := mustNew(t, testFile(
		circle(256, 192, 0, 0),
		spinner(10, 20),
		circle(256, 192, 40, 0),
	))
	if len(b.Stackables()) != 2 {
		t.Fatalf("stackables = %d", len(b.Stackables()))
	}
	if got := stackIndices(b); !equalInts(got, []int{1, 0}) {
		t.Fatalf("stack indices = %v", got)
	}
}

func TestSliderGeometry(t *testing.T) {
	f := testFile(slider(100, 100, 0, 300, 100, 3, 100))
	f.Difficulty.SliderTickRate = 2
	b := mustNew(t, f)
	s := b.HitObjects[0].(*Slider)

	if s.EdgeAmount != 4 || s.Slides() != 3 {
		t.Fatalf("edges = %d", s.EdgeAmount)
	}
	if s.SpanDuration() != 500 || s.EndTime() != 1500 {
		t.Fatalf("span = %v end = %v", s.SpanDuration(), s.EndTime())
	}
	if !s.EndPosition().AlmostEq(vmath.Vec{X: 200, Y: 100}) {
		t.Fatalf("end position = %v", s.EndPosition())
	}
	if !s.UnstackedEndPosition().AlmostEq(vmath.Vec{X: 200, Y: 100}) {
		t.Fatalf("unstacked end = %v", s.UnstackedEndPosition())
	}
	if s.TicksPerSpan() != 1 || s.Combo() != 7 {
		t.Fatalf("ticks = %d combo = %d", s.TicksPerSpan(), s.Combo())
	}
	if times := s.EdgeTimes(); len(times) != 4 || times[3] != 1500 {
		t.Fatalf("edge times = %v", times)
	}
}

func TestSliderVelocity(t *testing.T) {
	f := testFile(slider(100, 100, 1000, 200, 100, 1, 100))
	f.TimingPoints = append(f.TimingPoints, dotosu.TimingPoint{Offset: 1000, BeatLength: -50})
	b := mustNew(t, f)
	if end := b.HitObjects[0].EndTime(); end != 1250 {
		t.Fatalf("end = %v", end)
	}
}

func TestSliderWithoutTiming(t *testing.T) {
	f := testFile(slider(100, 100, 0, 200, 100, 1, 100))
	f.TimingPoints = nil
	if _, err := New(f); !errors.Is(err, ErrNoTiming) {
		t.Fatalf("err = %v", err)
	}
}

func TestHitObjectsSorted(t *testing.T) {
	b := mustNew(t, testFile(
		circle(0, 0, 300, 0),
		circle(10, 0, 100, 0),
		circle(20, 0, 100, 0),
	))
	if b.HitObjects[0].Position().X != 10 || b.HitObjects[1].Position().X != 20 {
		t.Fatalf("order = %v, %v", b.HitObjects[0].Position(), b.HitObjects[1].Position())
	}
}

func TestStarRating(t *testing.T) {
	var objs []dotosu.HitObject
	for i := range 32 {
		objs = append(objs, circle(float64(100+(i%2)*200), 192, float64(i)*150, 0))
	}
	b := mustNew(t, testFile(objs...))
	stars, ok := b.StarRating()
	if !ok || stars <= 0 {
		t.Fatalf("stars = %v, %v", stars, ok)
	}
	attrs, ok := b.Attributes()
	if !ok || attrs.Circles != 32 || attrs.MaxCombo != 32 || attrs.Total != stars {
		t.Fatalf("attributes = %+v", attrs)
	}

	b = mustNew(t, testFile(objs...), WithStarRating(4.2))
	if stars, ok := b.StarRating(); !ok || stars != 4.2 {
		t.Fatalf("supplied stars = %v, %v", stars, ok)
	}

	f := testFile(objs...)
	f.General.Mode = int(ModeMania)
	b = mustNew(t, f)
	if _, ok := b.StarRating(); ok {
		t.Fatalf("mania map rated")
	}
}

func TestZeroAndOneObject(t *testing.T) {
	for _, objs := range [][]dotosu.HitObject{nil, {circle(0, 0, 1000, 0)}} {
		b := mustNew(t, testFile(objs...))
		if stars, ok := b.StarRating(); !ok || stars != 0 {
			t.Fatalf("%d objects: stars = %v, %v", len(objs), stars, ok)
		}
		if d := b.DrainTime(); d != 0 {
			t.Fatalf("%d objects: drain = %v", len(objs), d)
		}
	}
}

func TestComboColourWraps(t *testing.T) {
	var objs []dotosu.HitObject
	for i := range 5 {
		objs = append(objs, circle(0, 0, float64(i)*1000, dotosu.TypeNewCombo))
	}
	b := mustNew(t, testFile(objs...))
	want := []int{0, 1, 2, 3, 0}
	for i, w := range want {
		if got := b.ComboColourIndexAt(float64(i) * 1000); got != w {
			t.Fatalf("object %d: colour = %d, want %d", i, got, w)
		}
	}
}

func TestComboColourSkipAndSpinner(t *testing.T) {
	f := testFile(
		circle(0, 0, 0, dotosu.TypeNewCombo),
		circle(0, 0, 100, dotosu.TypeNewCombo|dotosu.TypeComboSkip1),
		spinner(200, 500),
		circle(0, 0, 600, 0),
	)
	f.Colours.Combos = make([]dotosu.RGB, 5)
	b := mustNew(t, f)
	cases := []struct {
		time float64
		want int
	}{
		{-100, 0},
		{0, 0},
		{100, 2},
		{300, 2},
		{600, 3},
	}
	for _, c := range cases {
		if got := b.ComboColourIndexAt(c.time); got != c.want {
			t.Fatalf("colour at %v = %d, want %d", c.time, got, c.want)
		}
	}
}

func TestComboColourLeadingSpinner(t *testing.T) {
	b := mustNew(t, testFile(
		spinner(0, 500),
		circle(0, 0, 1000, dotosu.TypeNewCombo),
		circle(0, 0, 2000, dotosu.TypeNewCombo),
	))
	for time, want := range map[float64]int{0: 0, 1000: 0, 2000: 1} {
		if got := b.ComboColourIndexAt(time); got != want {
			t.Fatalf("colour at %v = %d, want %d", time, got, want)
		}
	}
}

func TestComboNumber(t *testing.T) {
	b := mustNew(t, testFile(
		circle(0, 0, 0, dotosu.TypeNewCombo),
		circle(0, 0, 1000, 0),
		circle(0, 0, 2000, 0),
		circle(0, 0, 3000, dotosu.TypeNewCombo),
		circle(0, 0, 4000, 0),
	))
	want := []int{1, 2, 3, 1, 2}
	for i, h := range b.HitObjects {
		if got := b.ComboNumber(h); got != want[i] {
			t.Fatalf("object %d: combo number = %d, want %d", i, got, want[i])
		}
	}
	if b.ComboNumber(&Circle{}) != 0 {
		t.Fatalf("foreign object numbered")
	}
}

func TestDrainAndBreaks(t *testing.T) {
	f := testFile(
		circle(0, 0, 1000, 0),
		circle(0, 0, 2000, 0),
		spinner(9000, 11000),
	)
	f.Breaks = []dotosu.Break{{Start: 3000, End: 8000}}
	b := mustNew(t, f)

	if p := b.PlayTime(); p != 10000 {
		t.Fatalf("play time = %v", p)
	}
	if d := b.DrainTime(); d != 5000 {
		t.Fatalf("drain time = %v", d)
	}
	if !b.InBreak(5000) || b.InBreak(2500) {
		t.Fatalf("break lookup wrong")
	}
	if br := b.BreakAt(3000); br == nil || br.Duration() != 5000 {
		t.Fatalf("break = %v", br)
	}
}

func TestNeighbours(t *testing.T) {
	b := mustNew(t, testFile(
		circle(0, 0, 0, 0),
		circle(10, 0, 1000, 0),
		circle(20, 0, 2000, 0),
	))
	mid := b.HitObjectAt(1500)
	if mid == nil || mid.Position().X != 10 {
		t.Fatalf("object at 1500 = %v", mid)
	}
	if b.HitObjectAt(-1) != nil {
		t.Fatalf("object before the map")
	}
	if p := b.PrevHitObject(mid); p != b.HitObjects[0] {
		t.Fatalf("prev = %v", p)
	}
	if n := b.NextHitObject(mid); n != b.HitObjects[2] {
		t.Fatalf("next = %v", n)
	}
	if b.PrevHitObject(b.HitObjects[0]) != nil || b.NextHitObject(b.HitObjects[2]) != nil {
		t.Fatalf("neighbours past the ends")
	}
}

func TestCountdown(t *testing.T) {
	b := mustNew(t, testFile(circle(0, 0, 3000, 0)))
	if l, err := b.CountdownBeatLength(); err != nil || l != 500 {
		t.Fatalf("beat length = %v, %v", l, err)
	}
	if s, err := b.CountdownStartTime(); err != nil || s != 500 {
		t.Fatalf("start = %v, %v", s, err)
	}
	if beat, err := b.CountdownStartBeat(); err != nil || beat != 1 {
		t.Fatalf("start beat = %v, %v", beat, err)
	}

	f := testFile(circle(0, 0, 3000, 0))
	f.General.Countdown = int(CountdownHalf)
	b = mustNew(t, f)
	if s, err := b.CountdownStartTime(); err != nil || s != -2000 {
		t.Fatalf("half speed start = %v, %v", s, err)
	}
	if beat, err := b.CountdownStartBeat(); err != nil || beat != -4 {
		t.Fatalf("half speed start beat = %v, %v", beat, err)
	}

	f.General.Countdown = int(CountdownNone)
	b = mustNew(t, f)
	if _, err := b.CountdownStartTime(); !errors.Is(err, ErrNoCountdown) {
		t.Fatalf("err = %v", err)
	}
}

func TestUnsnapIssues(t *testing.T) {
	b := mustNew(t, testFile(
		circle(0, 0, 1000, 0),
		circle(0, 0, 1010, 0),
		slider(0, 0, 1125, 100, 0, 1, 100),
	))
	issues, err := b.UnsnapIssues()
	if err != nil {
		t.Fatalf("unsnap issues: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("issues = %+v", issues)
	}
	is := issues[0]
	if is.Time != 1010 || is.Unsnap != -10 || is.Divisor != 0 || is.Edge != 0 {
		t.Fatalf("issue = %+v", is)
	}
}

func TestSetLoggerNil(t *testing.T) {
	SetLogger(nil)
	defer SetLogger(nil)
	logger.Printf("discarded")
}

func TestPreemptRoundTrip(t *testing.T) {
	for _, ar := range []float64{0, 3, 5, 7.5, 10} {
		if got := PreemptToApproachRate(ApproachRateToPreempt(ar)); math.Abs(got-ar) > 1e-9 {
			t.Fatalf("ar %v -> %v", ar, got)
		}
	}
}
