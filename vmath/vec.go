package vmath

import "math"

// Vec is a playfield coordinate in osu!pixels.
type Vec struct {
	X, Y float64
}

// Centre of the 512x384 playfield.
var Centre = Vec{X: 256, Y: 192}

func (a Vec) Add(b Vec) Vec            { return Vec{a.X + b.X, a.Y + b.Y} }
func (a Vec) Sub(b Vec) Vec            { return Vec{a.X - b.X, a.Y - b.Y} }
func (a Vec) Scale(f float64) Vec      { return Vec{a.X * f, a.Y * f} }
func (a Vec) Dot(b Vec) float64        { return a.X*b.X + a.Y*b.Y }
func (a Vec) Cross(b Vec) float64      { return a.X*b.Y - a.Y*b.X }
func (a Vec) Len() float64             { return math.Hypot(a.X, a.Y) }
func (a Vec) Dist(b Vec) float64       { return math.Hypot(a.X-b.X, a.Y-b.Y) }
func (a Vec) DistSq(b Vec) float64     { return (a.X-b.X)*(a.X-b.X) + (a.Y-b.Y)*(a.Y-b.Y) }
func (a Vec) AlmostEq(b Vec) bool      { return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9 }
func (a Vec) Lerp(b Vec, t float64) Vec { return a.Add(b.Sub(a).Scale(t)) }

// Norm returns the unit vector, or zero for a zero-length vector.
func (a Vec) Norm() Vec {
	l := a.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{a.X / l, a.Y / l}
}

func Clamp(x, lo, hi float64) float64 {
	return min(max(x, lo), hi)
}
