package beatmap

import "github.com/pkg/errors"

var ErrStackingDiverged = errors.New("stacking did not converge")

// Objects closer than this, squared in osu!pixels, stack.
const stackDistanceSq = 3 * 3

// StackTimeThreshold is the longest gap in ms between the end of one object
// and the start of the next for the two to stack.
func StackTimeThreshold(preempt, stackLeniency float64) float64 {
	return preempt * stackLeniency * 0.1
}

var maxStackPasses = func(n int) int { return 2*n*n + 64 }

// stackEntry keeps the concrete type of a Stackable so passes do not
// repeat type assertions.
type stackEntry struct {
	Stackable
	circle *Circle
	slider *Slider
}

func stackEntries(objs []Stackable) []stackEntry {
	entries := make([]stackEntry, len(objs))
	for i, o := range objs {
		entries[i].Stackable = o
		switch v := o.(type) {
		case *Circle:
			entries[i].circle = v
		case *Slider:
			entries[i].slider = v
		}
	}
	return entries
}

// ApplyStacking assigns stack indices to objs, which must be sorted by time.
// It changes one index per pass and restarts until a pass changes nothing.
// On inputs that do not settle it gives up after a bounded number of passes
// and returns ErrStackingDiverged, leaving the indices where they were.
func ApplyStacking(objs []Stackable, threshold float64) error {
	entries := stackEntries(objs)
	limit := maxStackPasses(len(objs))
	for pass := 0; stackPass(entries, threshold); pass++ {
		if pass >= limit {
			return errors.Wrapf(ErrStackingDiverged, "%d objects, %d passes", len(objs), pass)
		}
	}
	return nil
}

// stackPass applies the first matching rule and reports whether anything
// changed.
func stackPass(objs []stackEntry, threshold float64) bool {
	for i, a := range objs {
		for _, b := range objs[i+1:] {
			if b.Time()-a.EndTime() > threshold {
				break
			}

			// Fires only on unsorted input, where b starts before a.
			if a.circle != nil && b.slider != nil && isStackedTail(a.circle, b.slider, threshold) {
				break
			}

			as, bs := a.stack(), b.stack()
			if (a.circle != nil || b.circle != nil) &&
				a.UnstackedPosition().DistSq(b.UnstackedPosition()) < stackDistanceSq &&
				(as.index == bs.index || as.index < 0 && as.index < bs.index) {
				if as.index < 0 {
					bs.index--
				} else {
					as.index++
				}
				return true
			}

			if a.slider != nil && b.circle != nil && isStackedTail(b.circle, a.slider, threshold) {
				bs.index--
				return true
			}
		}
	}
	return false
}

// isStackedTail reports whether c sits on the end of s closely enough in
// space and time to stack onto it.
func isStackedTail(c *Circle, s *Slider, threshold float64) bool {
	return c.UnstackedPosition().DistSq(s.UnstackedEndPosition()) < stackDistanceSq &&
		c.index == s.index &&
		s.Time() < c.Time() &&
		c.Time()-s.EndTime() <= threshold
}
