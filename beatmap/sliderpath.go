package beatmap

import (
	"mapcheck/dotosu"
	"mapcheck/vmath"
)

// approximatePath flattens a slider path into a polyline whose first point
// is the slider head.
func approximatePath(path dotosu.SliderPath) []vmath.Vec {
	pts := make([]vmath.Vec, len(path.Points))
	for i, p := range path.Points {
		pts[i] = vmath.Vec{X: p.X, Y: p.Y}
	}
	if len(pts) < 2 {
		return pts
	}

	var poly []vmath.Vec
	add := func(seg []vmath.Vec) {
		for _, v := range seg {
			if n := len(poly); n == 0 || !poly[n-1].AlmostEq(v) {
				poly = append(poly, v)
			}
		}
	}

	switch path.Type {
	case dotosu.PathLinear:
		add(pts)
	case dotosu.PathCatmull:
		add(vmath.Catmull(pts))
	case dotosu.PathPerfect:
		if len(pts) == 3 {
			if arc, ok := vmath.CircularArc(pts[0], pts[1], pts[2]); ok {
				add(arc)
				break
			}
		}
		for _, seg := range bezierSegments(pts) {
			add(vmath.Bezier(seg))
		}
	default:
		for _, seg := range bezierSegments(pts) {
			add(vmath.Bezier(seg))
		}
	}
	return vmath.Dedupe(poly)
}

// bezierSegments splits control points at repeated points (red anchors).
func bezierSegments(pts []vmath.Vec) [][]vmath.Vec {
	var segs [][]vmath.Vec
	cur := []vmath.Vec{pts[0]}
	for _, p := range pts[1:] {
		if p.AlmostEq(cur[len(cur)-1]) {
			if len(cur) >= 2 {
				segs = append(segs, cur)
			}
			cur = []vmath.Vec{p}
			continue
		}
		cur = append(cur, p)
	}
	if len(cur) >= 2 {
		segs = append(segs, cur)
	}
	if len(segs) == 0 {
		segs = [][]vmath.Vec{{pts[0], pts[0]}}
	}
	return segs
}
