package dotosu

import (
	"math"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

const sample = `osu file format v14

[General]
AudioFilename: audio.mp3
AudioLeadIn: 0
StackLeniency: 0.5
Mode: 0
Countdown: 2
CountdownOffset: 1

[Metadata]
Title:Example
Artist:Someone
Creator:mapper
Version:Insane
BeatmapID:123
BeatmapSetID:45

[Difficulty]
HPDrainRate:5
CircleSize:4
OverallDifficulty:8
ApproachRate:9
SliderMultiplier:1.8
SliderTickRate:1

[Events]
0,0,"bg.jpg",0,0
2,5000,6000

[TimingPoints]
1000,500,4,2,0,60,1,0
2000,-50,4,2,0,60,0,1

[Colours]
Combo1 : 255,0,0
Combo2 : 0,255,0
SliderBorder : 10,20,30

[HitObjects]
256,192,1000,5,0,0:0:0:0:
100,100,1500,2,0,B|200:100|200:100|300:150,2,210,2|0|8,1:0|0:0|2:0,0:0:0:0:
256,192,3000,12,0,4000,0:0:0:0:
`

func TestDecode(t *testing.T) {
	f, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.FormatVersion != 14 {
		t.Fatalf("version = %d", f.FormatVersion)
	}
	if f.General.StackLeniency != 0.5 || f.General.Countdown != 2 || f.General.CountdownOffset != 1 {
		t.Fatalf("general = %+v", f.General)
	}
	if f.Metadata.BeatmapID != 123 || f.Metadata.Version != "Insane" {
		t.Fatalf("metadata = %+v", f.Metadata)
	}
	if f.Difficulty.ApproachRate != 9 || f.Difficulty.CircleSize != 4 {
		t.Fatalf("difficulty = %+v", f.Difficulty)
	}
	if f.Background != "bg.jpg" {
		t.Fatalf("background = %q", f.Background)
	}
	if len(f.Breaks) != 1 || f.Breaks[0] != (Break{Start: 5000, End: 6000}) {
		t.Fatalf("breaks = %+v", f.Breaks)
	}
	if len(f.Colours.Combos) != 2 || f.Colours.Combos[1] != (RGB{0, 255, 0}) {
		t.Fatalf("combos = %+v", f.Colours.Combos)
	}
	if f.Colours.SliderBorder == nil || *f.Colours.SliderBorder != (RGB{10, 20, 30}) {
		t.Fatalf("slider border = %+v", f.Colours.SliderBorder)
	}

	if len(f.TimingPoints) != 2 {
		t.Fatalf("timing points = %d", len(f.TimingPoints))
	}
	red, green := f.TimingPoints[0], f.TimingPoints[1]
	if !red.Uninherited || red.BeatLength != 500 || red.SampleSet != "soft" || red.SampleVolume != 60 {
		t.Fatalf("red line = %+v", red)
	}
	if green.Uninherited || green.BeatLength != -50 || !green.Kiai {
		t.Fatalf("green line = %+v", green)
	}

	if len(f.HitObjects) != 3 {
		t.Fatalf("hit objects = %d", len(f.HitObjects))
	}
	circle, slider, spinner := f.HitObjects[0], f.HitObjects[1], f.HitObjects[2]
	if circle.Kind() != KindCircle || !circle.Type.NewCombo() {
		t.Fatalf("circle = %+v", circle)
	}
	if slider.Kind() != KindSlider || slider.Slides != 2 || slider.Length != 210 {
		t.Fatalf("slider = %+v", slider)
	}
	if len(slider.Path.Points) != 4 || slider.Path.Points[0] != (Point{100, 100}) {
		t.Fatalf("slider path = %+v", slider.Path)
	}
	if len(slider.EdgeSounds) != 3 || slider.EdgeSets[2].NormalSet != SampleSoft {
		t.Fatalf("slider edges = %+v %+v", slider.EdgeSounds, slider.EdgeSets)
	}
	if spinner.Kind() != KindSpinner || spinner.EndTime != 4000 {
		t.Fatalf("spinner = %+v", spinner)
	}
}

func TestDecodeInvalidHeader(t *testing.T) {
	_, err := Decode(strings.NewReader("[General]\nMode: 0\n"))
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("err = %v, want ErrInvalidHeader", err)
	}
}

func TestDecodeEarlyVersionOffset(t *testing.T) {
	f, err := Decode(strings.NewReader("osu file format v4\n[TimingPoints]\n100,400\n[HitObjects]\n1,2,100,1,0\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.TimingPoints[0].Offset != 124 || f.HitObjects[0].Time != 124 {
		t.Fatalf("offsets = %v %v", f.TimingPoints[0].Offset, f.HitObjects[0].Time)
	}
}

func TestComboSkip(t *testing.T) {
	for _, tc := range []struct {
		flags TypeFlags
		want  int
	}{
		{TypeCircle, 0},
		{TypeCircle | TypeNewCombo | TypeComboSkip1, 1},
		{TypeCircle | TypeComboSkip2, 2},
		{TypeSlider | TypeComboSkip1 | TypeComboSkip2 | TypeComboSkip3, 7},
	} {
		if got := tc.flags.ComboSkip(); got != tc.want {
			t.Errorf("ComboSkip(%d) = %d, want %d", tc.flags, got, tc.want)
		}
	}
}

func TestParseFloatAllowNaN(t *testing.T) {
	if !math.IsNaN(parseFloatAllowNaN("nan")) || !math.IsNaN(parseFloatAllowNaN("x")) {
		t.Fatal("expected NaN")
	}
	if parseFloatAllowNaN(" 333.33 ") != 333.33 {
		t.Fatal("expected 333.33")
	}
}
