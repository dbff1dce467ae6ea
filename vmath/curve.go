package vmath

import "math"

// Tolerances of the game's path approximator.
const (
	bezierToleranceSq = 0.25 * 0.25
	arcTolerance      = 0.1
	catmullDetail     = 50
)

// Bezier flattens a bezier curve by adaptive de Casteljau subdivision. The
// result starts with the first and ends with the last control point.
func Bezier(cp []Vec) []Vec {
	if len(cp) == 0 {
		return nil
	}
	var out []Vec
	stack := make([][]Vec, 0, 32)
	stack = append(stack, cp)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if bezierFlatEnough(cur) {
			out = append(out, cur[0])
			continue
		}
		// right half is pushed first so the left half is emitted first
		l, r := bezierSubdivide(cur)
		stack = append(stack, r, l)
	}
	return append(out, cp[len(cp)-1])
}

func bezierFlatEnough(cp []Vec) bool {
	for i := 1; i < len(cp)-1; i++ {
		d := cp[i-1].Sub(cp[i].Scale(2)).Add(cp[i+1])
		if d.Dot(d) > bezierToleranceSq {
			return false
		}
	}
	return true
}

func bezierSubdivide(cp []Vec) (left, right []Vec) {
	n := len(cp)
	left = make([]Vec, n)
	right = make([]Vec, n)
	mid := make([]Vec, n)
	copy(mid, cp)

	for r := 0; r < n; r++ {
		left[r] = mid[0]
		right[n-1-r] = mid[n-1-r]
		for i := 0; i < n-1-r; i++ {
			mid[i] = mid[i].Lerp(mid[i+1], 0.5)
		}
	}
	return left, right
}

// Catmull samples a uniform Catmull-Rom spline through pts.
func Catmull(pts []Vec) []Vec {
	n := len(pts)
	if n < 2 {
		return append([]Vec(nil), pts...)
	}
	out := make([]Vec, 0, (n-1)*catmullDetail+1)
	out = append(out, pts[0])
	for i := 0; i < n-1; i++ {
		p0 := pts[max(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[min(i+2, n-1)]
		for s := 1; s <= catmullDetail; s++ {
			out = append(out, catmullPoint(p0, p1, p2, p3, float64(s)/catmullDetail))
		}
	}
	return out
}

func catmullPoint(p0, p1, p2, p3 Vec, t float64) Vec {
	t2 := t * t
	t3 := t2 * t
	return Vec{
		X: 0.5 * ((2 * p1.X) + (-p0.X+p2.X)*t + (2*p0.X-5*p1.X+4*p2.X-p3.X)*t2 + (-p0.X+3*p1.X-3*p2.X+p3.X)*t3),
		Y: 0.5 * ((2 * p1.Y) + (-p0.Y+p2.Y)*t + (2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*t2 + (-p0.Y+3*p1.Y-3*p2.Y+p3.Y)*t3),
	}
}

// CircularArc samples the arc through three points. Degenerate input falls
// back to a straight segment, and the second return value is false.
func CircularArc(p1, p2, p3 Vec) ([]Vec, bool) {
	if math.Abs(p2.Sub(p1).Cross(p3.Sub(p2))) < 1e-6 {
		return []Vec{p1, p3}, false
	}
	c, ok := circumcentre(p1, p2, p3)
	if !ok {
		return []Vec{p1, p3}, false
	}
	r := c.Dist(p1)

	a1 := math.Atan2(p1.Y-c.Y, p1.X-c.X)
	a3 := math.Atan2(p3.Y-c.Y, p3.X-c.X)

	dir := 1.0
	if p2.Sub(p1).Cross(p3.Sub(p2)) < 0 {
		dir = -1.0
	}
	delta := angleDiff(a1, a3, dir)

	step := 2 * math.Acos(Clamp(1-arcTolerance/r, -1, 1))
	if step <= 0 || math.IsNaN(step) || step > math.Pi {
		step = math.Pi
	}
	steps := max(2, int(math.Ceil(math.Abs(delta)/step)))
	step = delta / float64(steps)

	out := make([]Vec, 0, steps+1)
	out = append(out, p1)
	for i := 1; i < steps; i++ {
		a := a1 + float64(i)*step
		out = append(out, Vec{c.X + math.Cos(a)*r, c.Y + math.Sin(a)*r})
	}
	return append(out, p3), true
}

func circumcentre(a, b, c Vec) (Vec, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-8 {
		return Vec{}, false
	}
	a2 := a.Dot(a)
	b2 := b.Dot(b)
	c2 := c.Dot(c)
	return Vec{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}

func angleDiff(from, to, dir float64) float64 {
	d := to - from
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	if dir < 0 && d > 0 {
		d -= 2 * math.Pi
	} else if dir > 0 && d < 0 {
		d += 2 * math.Pi
	}
	return d
}

// Dedupe drops repeated points and collinear middle points.
func Dedupe(pts []Vec) []Vec {
	if len(pts) <= 2 {
		return pts
	}
	out := []Vec{pts[0]}
	for i := 1; i < len(pts)-1; i++ {
		a, b, c := out[len(out)-1], pts[i], pts[i+1]
		if a.AlmostEq(b) {
			continue
		}
		if math.Abs(b.Sub(a).Cross(c.Sub(b))) < 1e-7 && b.Sub(a).Norm().Dot(c.Sub(b).Norm()) > 0.999999 {
			continue
		}
		out = append(out, b)
	}
	if last := pts[len(pts)-1]; !out[len(out)-1].AlmostEq(last) {
		out = append(out, last)
	}
	return out
}

// PolylineLength is the summed segment length of poly.
func PolylineLength(poly []Vec) float64 {
	l := 0.0
	for i := 1; i < len(poly); i++ {
		l += poly[i].Dist(poly[i-1])
	}
	return l
}

// PositionAt walks progress pixels along poly. Past the end it extrapolates
// along the last segment, which is how a slider longer than its drawn path
// behaves.
func PositionAt(poly []Vec, progress float64) Vec {
	switch len(poly) {
	case 0:
		return Vec{}
	case 1:
		return poly[0]
	}
	for i := 1; i < len(poly); i++ {
		dir := poly[i].Sub(poly[i-1])
		l := dir.Len()
		if l == 0 {
			continue
		}
		if progress <= l {
			return poly[i-1].Add(dir.Scale(progress / l))
		}
		progress -= l
	}
	from := poly[len(poly)-1]
	dir := from.Sub(poly[len(poly)-2])
	l := dir.Len()
	if l == 0 {
		return from
	}
	return from.Add(dir.Scale(progress / l))
}
