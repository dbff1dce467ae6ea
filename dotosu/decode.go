package dotosu

import (
	"bufio"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	EarlyVersionTimingOffset = 24
	MaxManiaKeyCount         = 18
	LatestVersion            = 14
)

var ErrInvalidHeader = errors.New("invalid .osu header")

type section int

const (
	secNone section = iota
	secGeneral
	secEditor
	secMetadata
	secDifficulty
	secEvents
	secTimingPoints
	secColours
	secHitObjects
)

var sections = map[string]section{
	"[general]":      secGeneral,
	"[editor]":       secEditor,
	"[metadata]":     secMetadata,
	"[difficulty]":   secDifficulty,
	"[events]":       secEvents,
	"[timingpoints]": secTimingPoints,
	"[colours]":      secColours,
	"[hitobjects]":   secHitObjects,
}

func DecodeFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	file, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return file, nil
}

func Decode(r io.Reader) (*File, error) {
	sc := bufio.NewScanner(r)
	const maxLine = 1024 * 1024
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var header string
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if line == "" {
			continue
		}
		header = line
		break
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	if !strings.HasPrefix(strings.ToLower(header), "osu file format v") {
		return nil, errors.Wrapf(ErrInvalidHeader, "%q", header)
	}
	version, err := strconv.Atoi(strings.TrimSpace(header[len("osu file format v"):]))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidHeader, "version in %q", header)
	}

	d := decoder{
		file: &File{
			FormatVersion: version,
			General: General{
				SampleSet:     "normal",
				SampleVolume:  100,
				StackLeniency: 0.7,
				Countdown:     1,
			},
			Editor: Editor{BeatDivisor: 4, GridSize: 4},
			Difficulty: Difficulty{
				HPDrainRate: 5, CircleSize: 5, OverallDifficulty: 5, ApproachRate: 5,
				SliderMultiplier: 1.4, SliderTickRate: 1,
			},
		},
	}
	if version < 5 {
		d.offset = EarlyVersionTimingOffset
	}

	sec := secNone
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			sec = sections[strings.ToLower(line)]
			continue
		}

		switch sec {
		case secGeneral:
			d.general(line)
		case secEditor:
			d.editor(line)
		case secMetadata:
			d.metadata(line)
		case secDifficulty:
			d.difficulty(line)
		case secEvents:
			d.event(line)
		case secTimingPoints:
			d.timingPoint(line)
		case secColours:
			d.colour(line)
		case secHitObjects:
			d.hitObject(line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	applyDifficultyRestrictions(&d.file.Difficulty, d.file.General.Mode)
	return d.file, nil
}

type decoder struct {
	file   *File
	offset float64
	seenAR bool
}

func (d *decoder) general(line string) {
	g := &d.file.General
	k, v := splitKeyVal(line)
	switch strings.ToLower(k) {
	case "audiofilename":
		g.AudioFilename = standardisePath(v)
	case "audioleadin":
		g.AudioLeadIn = parseInt(v, 0)
	case "previewtime":
		t := parseInt(v, -1)
		if t != -1 {
			t += int(d.offset)
		}
		g.PreviewTime = t
	case "sampleset":
		g.SampleSet = strings.ToLower(v)
	case "samplevolume":
		g.SampleVolume = parseInt(v, 100)
	case "stackleniency":
		g.StackLeniency = parseFloat(v, 0.7)
	case "mode":
		g.Mode = parseInt(v, 0)
	case "letterboxinbreaks":
		g.LetterboxInBreaks = parseBoolInt(v)
	case "specialstyle":
		g.SpecialStyle = parseBoolInt(v)
	case "widescreenstoryboard":
		g.WidescreenStoryboard = parseBoolInt(v)
	case "epilepsywarning":
		g.EpilepsyWarning = parseBoolInt(v)
	case "samplesmatchplaybackrate":
		g.SamplesMatchPlaybackRate = parseBoolInt(v)
	case "countdown":
		g.Countdown = parseInt(v, 1)
	case "countdownoffset":
		g.CountdownOffset = parseInt(v, 0)
	}
}

func (d *decoder) editor(line string) {
	e := &d.file.Editor
	k, v := splitKeyVal(line)
	switch strings.ToLower(k) {
	case "bookmarks":
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				e.Bookmarks = append(e.Bookmarks, parseInt(p, 0))
			}
		}
	case "distancespacing":
		e.DistanceSpacing = parseFloat(v, 0)
	case "beatdivisor":
		e.BeatDivisor = clampInt(parseInt(v, 4), 1, 16)
	case "gridsize":
		e.GridSize = parseInt(v, 4)
	case "timelinezoom":
		e.TimelineZoom = math.Max(0, parseFloat(v, 0))
	}
}

func (d *decoder) metadata(line string) {
	m := &d.file.Metadata
	k, v := splitKeyVal(line)
	switch strings.ToLower(k) {
	case "title":
		m.Title = v
	case "titleunicode":
		m.TitleUnicode = v
	case "artist":
		m.Artist = v
	case "artistunicode":
		m.ArtistUnicode = v
	case "creator":
		m.Creator = v
	case "version":
		m.Version = v
	case "source":
		m.Source = v
	case "tags":
		m.Tags = v
	case "beatmapid":
		m.BeatmapID = parseInt(v, 0)
	case "beatmapsetid":
		m.BeatmapSetID = parseInt(v, 0)
	}
}

func (d *decoder) difficulty(line string) {
	diff := &d.file.Difficulty
	k, v := splitKeyVal(line)
	switch strings.ToLower(k) {
	case "hpdrainrate":
		diff.HPDrainRate = parseFloat(v, 5)
	case "circlesize":
		diff.CircleSize = parseFloat(v, 5)
	case "overalldifficulty":
		diff.OverallDifficulty = parseFloat(v, 5)
		// maps older than v8 have no ApproachRate and reuse OD
		if !d.seenAR {
			diff.ApproachRate = diff.OverallDifficulty
		}
	case "approachrate":
		diff.ApproachRate = parseFloat(v, 5)
		d.seenAR = true
	case "slidermultiplier":
		diff.SliderMultiplier = parseFloat(v, 1.4)
	case "slidertickrate":
		diff.SliderTickRate = parseFloat(v, 1)
	}
}

func (d *decoder) event(line string) {
	parts := splitCSV(line)
	if len(parts) < 3 {
		d.file.UnhandledEvents = append(d.file.UnhandledEvents, line)
		return
	}
	switch strings.ToLower(parts[0]) {
	case "0", "background":
		d.file.Background = cleanFilename(parts[2])
	case "1", "video":
		fn := cleanFilename(parts[2])
		switch strings.ToLower(filepath.Ext(fn)) {
		case ".avi", ".flv", ".mp4", ".mkv", ".mov", ".wmv", ".mpg", ".mpeg", ".ogv", ".webm":
			d.file.Video = fn
		default:
			d.file.Background = fn
		}
	case "2", "break":
		start := parseFloat(parts[1], 0) + d.offset
		end := max(start, parseFloat(parts[2], 0)+d.offset)
		d.file.Breaks = append(d.file.Breaks, Break{Start: start, End: end})
	default:
		d.file.UnhandledEvents = append(d.file.UnhandledEvents, line)
	}
}

func (d *decoder) timingPoint(line string) {
	parts := splitCSV(line)
	if len(parts) < 2 {
		return
	}
	tp := TimingPoint{
		Offset:       parseFloat(parts[0], 0) + d.offset,
		BeatLength:   parseFloatAllowNaN(parts[1]),
		Meter:        4,
		SampleSet:    "normal",
		SampleVolume: 100,
		Uninherited:  true,
	}
	if len(parts) >= 3 {
		if tp.Meter = parseInt(parts[2], 4); tp.Meter == 0 {
			tp.Meter = 4
		}
	}
	if len(parts) >= 4 {
		tp.SampleSet = normaliseSampleSet(parseInt(parts[3], 0))
	}
	if len(parts) >= 5 {
		tp.CustomSampleBank = parseInt(parts[4], 0)
	}
	if len(parts) >= 6 {
		tp.SampleVolume = parseInt(parts[5], 100)
	}
	if len(parts) >= 7 {
		tp.Uninherited = strings.TrimSpace(parts[6]) == "1"
	}
	if len(parts) >= 8 {
		effects := parseInt(parts[7], 0)
		tp.Kiai = effects&1 != 0
		tp.OmitFirstBarLine = effects&8 != 0
	}
	d.file.TimingPoints = append(d.file.TimingPoints, tp)
}

func (d *decoder) colour(line string) {
	k, v := splitKeyVal(line)
	rgb, ok := parseRGB(v)
	if !ok {
		return
	}
	key := strings.ToLower(k)
	switch {
	case strings.HasPrefix(key, "combo"):
		d.file.Colours.Combos = append(d.file.Colours.Combos, rgb)
	case key == "slidertrackoverride":
		d.file.Colours.SliderTrackOverride = &rgb
	case key == "sliderborder":
		d.file.Colours.SliderBorder = &rgb
	}
}

func (d *decoder) hitObject(line string) {
	parts := splitCSVPreserveTail(line, 11)
	if len(parts) < 5 {
		return
	}
	h := HitObject{
		Pos:      Point{X: parseFloat(parts[0], 0), Y: parseFloat(parts[1], 0)},
		Time:     parseFloat(parts[2], 0) + d.offset,
		Type:     TypeFlags(parseInt(parts[3], 0)),
		HitSound: HitSoundFlags(parseInt(parts[4], 0)),
	}

	switch h.Kind() {
	case KindHold:
		// "endTime:normalSet:additionSet:index:volume:filename"
		if len(parts) >= 6 {
			end, sample := parseEndTimeAndSample(parts[5])
			h.EndTime = end + d.offset
			h.Sample = sample
		}

	case KindSpinner:
		if len(parts) >= 6 && strings.TrimSpace(parts[5]) != "" {
			h.EndTime = parseFloat(parts[5], 0) + d.offset
		}
		if len(parts) >= 7 {
			h.Sample = parseHitSample(parts[6])
		}

	case KindSlider:
		// path, slides, length, edgeSounds, edgeSets, hitSample
		var rawPath string
		if len(parts) >= 6 {
			rawPath = parts[5]
		}
		h.Path = parseSliderPath(h.Pos, rawPath)
		h.Slides = 1
		if len(parts) >= 7 {
			h.Slides = max(1, parseInt(parts[6], 1))
		}
		if len(parts) >= 8 {
			h.Length = parseFloat(parts[7], 0)
		}
		if len(parts) >= 9 && strings.TrimSpace(parts[8]) != "" {
			for _, n := range strings.Split(parts[8], "|") {
				h.EdgeSounds = append(h.EdgeSounds, HitSoundFlags(parseInt(n, 0)))
			}
		}
		if len(parts) >= 10 && strings.TrimSpace(parts[9]) != "" {
			for _, p := range strings.Split(parts[9], "|") {
				normal, addition := parseSamplePair(p)
				h.EdgeSets = append(h.EdgeSets, EdgeSet{NormalSet: normal, AdditionSet: addition})
			}
		}
		if len(parts) >= 11 {
			h.Sample = parseHitSample(parts[10])
		}

	default:
		if len(parts) >= 6 {
			h.Sample = parseHitSample(parts[5])
		}
	}
	d.file.HitObjects = append(d.file.HitObjects, h)
}

// Validate reports the metadata a submittable map must carry.
func (f *File) Validate() error {
	if f.Metadata.Title == "" && f.Metadata.TitleUnicode == "" {
		return errors.New("missing title")
	}
	if f.Metadata.Artist == "" && f.Metadata.ArtistUnicode == "" {
		return errors.New("missing artist")
	}
	if f.General.AudioFilename == "" {
		return errors.New("missing AudioFilename in [General]")
	}
	return nil
}
