package difficulty

import "math"

// Aim rates how far the cursor has to move and how quickly.
type Aim struct{}

func (Aim) Name() string             { return "aim" }
func (Aim) SkillMultiplier() float64 { return 26.25 }
func (Aim) StrainDecayBase() float64 { return 0.15 }

func (Aim) StrainValueOf(d Delta) float64 {
	if d.Kind == KindSpinner {
		return 0
	}
	return math.Pow(d.Distance(), 0.99) / d.StrainTime
}
