package dotosu

import (
	"math"
	"strconv"
	"strings"
)

func splitKeyVal(line string) (key, val string) {
	i := strings.Index(line, ":")
	if i < 0 {
		return strings.TrimSpace(line), ""
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:])
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// some editors write integral fields as floats
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return def
		}
		return int(f)
	}
	return v
}

func parseFloat(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func parseFloatAllowNaN(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseBoolInt(s string) bool { return strings.TrimSpace(s) == "1" }

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func clampFloat(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

func standardisePath(p string) string {
	p = strings.Trim(p, "\"")
	return strings.ReplaceAll(p, "\\", "/")
}

func cleanFilename(s string) string {
	return standardisePath(s)
}

func parseRGB(s string) (RGB, bool) {
	p := strings.Split(s, ",")
	if len(p) < 3 {
		return RGB{}, false
	}
	var c [3]uint8
	for i := range c {
		v, err := strconv.Atoi(strings.TrimSpace(p[i]))
		if err != nil {
			return RGB{}, false
		}
		c[i] = uint8(clampInt(v, 0, 255))
	}
	return RGB{R: c[0], G: c[1], B: c[2]}, true
}

func splitCSV(line string) []string {
	var out []string
	var cur strings.Builder
	inQ := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch c {
		case '"':
			inQ = !inQ
		case ',':
			if inQ {
				cur.WriteByte(c)
			} else {
				out = append(out, strings.TrimSpace(cur.String()))
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	return append(out, strings.TrimSpace(cur.String()))
}

// splitCSVPreserveTail splits like splitCSV but joins everything from the
// n-th field onwards back into the last element.
func splitCSVPreserveTail(line string, n int) []string {
	parts := splitCSV(line)
	if len(parts) <= n {
		return parts
	}
	return append(parts[:n-1], strings.Join(parts[n-1:], ","))
}

func normaliseSampleSet(id int) string {
	switch id {
	case 2:
		return "soft"
	case 3:
		return "drum"
	default:
		return "normal"
	}
}

func applyDifficultyRestrictions(d *Difficulty, mode int) {
	d.HPDrainRate = clampFloat(d.HPDrainRate, 0, 10)
	d.OverallDifficulty = clampFloat(d.OverallDifficulty, 0, 10)
	d.ApproachRate = clampFloat(d.ApproachRate, 0, 10)
	if mode == 3 {
		d.CircleSize = clampFloat(d.CircleSize, 1, MaxManiaKeyCount)
	} else {
		d.CircleSize = clampFloat(d.CircleSize, 0, 10)
	}
	d.SliderMultiplier = clampFloat(d.SliderMultiplier, 0.4, 3.6)
	d.SliderTickRate = clampFloat(d.SliderTickRate, 0.5, 8.0)
}

// parseHitSample reads "normalSet:additionSet:index:volume:filename".
func parseHitSample(s string) HitSample {
	parts := strings.Split(s, ":")
	get := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return HitSample{
		NormalSet:   toSampleSet(parseInt(get(0), 0)),
		AdditionSet: toSampleSet(parseInt(get(1), 0)),
		Index:       parseInt(get(2), 0),
		Volume:      parseInt(get(3), 0),
		Filename:    strings.Trim(strings.TrimSpace(get(4)), "\""),
	}
}

func toSampleSet(id int) SampleSet {
	switch id {
	case 1:
		return SampleNormal
	case 2:
		return SampleSoft
	case 3:
		return SampleDrum
	default:
		return SampleNone
	}
}

func parseSamplePair(s string) (SampleSet, SampleSet) {
	p := strings.Split(s, ":")
	var a, b int
	if len(p) >= 1 {
		a = parseInt(p[0], 0)
	}
	if len(p) >= 2 {
		b = parseInt(p[1], 0)
	}
	return toSampleSet(a), toSampleSet(b)
}

func parseEndTimeAndSample(s string) (float64, HitSample) {
	colon := strings.Index(s, ":")
	if colon < 0 {
		return parseFloat(s, 0), HitSample{}
	}
	return parseFloat(s[:colon], 0), parseHitSample(s[colon+1:])
}

// parseSliderPath turns "B|x:y|x:y" into a typed path whose first point is
// the slider head.
func parseSliderPath(head Point, raw string) SliderPath {
	path := SliderPath{Type: PathBezier, Points: []Point{head}}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return path
	}

	typeStr, rest, _ := strings.Cut(raw, "|")
	switch strings.ToUpper(strings.TrimSpace(typeStr)) {
	case "L":
		path.Type = PathLinear
	case "C":
		path.Type = PathCatmull
	case "P":
		path.Type = PathPerfect
	}

	if strings.TrimSpace(rest) == "" {
		return path
	}
	for _, t := range strings.Split(rest, "|") {
		x, y, ok := strings.Cut(strings.TrimSpace(t), ":")
		if !ok {
			continue
		}
		path.Points = append(path.Points, Point{X: parseFloat(x, head.X), Y: parseFloat(y, head.Y)})
	}
	return path
}
