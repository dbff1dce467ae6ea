package dotosu

// File is the raw content of a .osu file. Every value is taken from the text
// as-is apart from the version offset and the difficulty clamps; no timing or
// geometry is derived here.
type File struct {
	FormatVersion int
	General       General
	Editor        Editor
	Metadata      Metadata
	Difficulty    Difficulty
	Colours       Colours

	Background string
	Video      string
	Breaks     []Break

	TimingPoints    []TimingPoint
	HitObjects      []HitObject
	UnhandledEvents []string
}

type General struct {
	AudioFilename            string
	AudioLeadIn              int
	PreviewTime              int
	SampleSet                string
	SampleVolume             int
	StackLeniency            float64
	Mode                     int
	LetterboxInBreaks        bool
	SpecialStyle             bool
	WidescreenStoryboard     bool
	EpilepsyWarning          bool
	SamplesMatchPlaybackRate bool
	Countdown                int
	CountdownOffset          int
}

type Editor struct {
	Bookmarks       []int
	DistanceSpacing float64
	BeatDivisor     int
	GridSize        int
	TimelineZoom    float64
}

type Metadata struct {
	Title, TitleUnicode            string
	Artist, ArtistUnicode          string
	Creator, Version, Source, Tags string
	BeatmapID, BeatmapSetID        int
}

type Difficulty struct {
	HPDrainRate, CircleSize, OverallDifficulty, ApproachRate float64
	SliderMultiplier, SliderTickRate                         float64
}

type RGB struct{ R, G, B uint8 }

type Colours struct {
	Combos              []RGB
	SliderTrackOverride *RGB
	SliderBorder        *RGB
}

type Break struct{ Start, End float64 }

// TimingPoint is one line of [TimingPoints]. BeatLength is negative for
// inherited points (-100/multiplier) and NaN when the text was not a number.
type TimingPoint struct {
	Offset           float64
	BeatLength       float64
	Meter            int
	SampleSet        string
	CustomSampleBank int
	SampleVolume     int
	Uninherited      bool
	Kiai             bool
	OmitFirstBarLine bool
}

type Kind uint8

const (
	KindCircle Kind = iota
	KindSlider
	KindSpinner
	KindHold
)

func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindSlider:
		return "slider"
	case KindSpinner:
		return "spinner"
	case KindHold:
		return "hold"
	}
	return "unknown"
}

type HitSoundFlags uint8

const (
	HitSoundNormal  HitSoundFlags = 1 << iota // 1
	HitSoundWhistle                           // 2
	HitSoundFinish                            // 4
	HitSoundClap                              // 8
)

type SampleSet uint8

const (
	SampleNone SampleSet = iota
	SampleNormal
	SampleSoft
	SampleDrum
)

type TypeFlags int

const (
	TypeCircle     TypeFlags = 1 << iota // 1
	TypeSlider                           // 2
	TypeNewCombo                         // 4
	TypeSpinner                          // 8
	TypeComboSkip1                       // 16
	TypeComboSkip2                       // 32
	TypeComboSkip3                       // 64
	TypeHold                             // 128
)

// ComboSkip is the number of combo colours skipped, encoded in bits 4-6.
func (t TypeFlags) ComboSkip() int { return int(t>>4) & 7 }

func (t TypeFlags) NewCombo() bool { return t&TypeNewCombo != 0 }

type Point struct{ X, Y float64 }

type HitSample struct {
	NormalSet   SampleSet
	AdditionSet SampleSet
	Index       int
	Volume      int
	Filename    string
}

type EdgeSet struct {
	NormalSet   SampleSet
	AdditionSet SampleSet
}

type PathType uint8

const (
	PathBezier PathType = iota
	PathLinear
	PathCatmull
	PathPerfect
)

// SliderPath holds the control points as written, with the slider head
// prepended. Repeated consecutive points (red anchors) are kept.
type SliderPath struct {
	Type   PathType
	Points []Point
}

// HitObject is one line of [HitObjects]. Slider fields are only set for
// sliders, EndTime only for spinners and hold notes.
type HitObject struct {
	Pos      Point
	Time     float64
	Type     TypeFlags
	HitSound HitSoundFlags
	Sample   HitSample

	Path       SliderPath
	Slides     int
	Length     float64
	EdgeSounds []HitSoundFlags
	EdgeSets   []EdgeSet

	EndTime float64
}

func (h HitObject) Kind() Kind {
	switch {
	case h.Type&TypeHold != 0:
		return KindHold
	case h.Type&TypeSpinner != 0:
		return KindSpinner
	case h.Type&TypeSlider != 0:
		return KindSlider
	default:
		return KindCircle
	}
}
