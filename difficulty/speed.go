package difficulty

// Speed rates how fast objects have to be tapped, with spacing pushing the
// value up.
type Speed struct{}

func (Speed) Name() string             { return "speed" }
func (Speed) SkillMultiplier() float64 { return 1400 }
func (Speed) StrainDecayBase() float64 { return 0.3 }

// spacing thresholds, in normalised pixels
const (
	singleSpacing  = 125.0
	streamSpacing  = 110.0
	almostDiameter = 90.0
	halfDiameter   = 45.0
)

func (Speed) StrainValueOf(d Delta) float64 {
	if d.Kind == KindSpinner {
		return 0
	}
	return spacingBonus(d.Distance()) / d.StrainTime
}

func spacingBonus(distance float64) float64 {
	switch {
	case distance > singleSpacing:
		return 2.5
	case distance > streamSpacing:
		return 1.6 + 0.9*(distance-streamSpacing)/(singleSpacing-streamSpacing)
	case distance > almostDiameter:
		return 1.2 + 0.4*(distance-almostDiameter)/(streamSpacing-almostDiameter)
	case distance > halfDiameter:
		return 0.95 + 0.25*(distance-halfDiameter)/(almostDiameter-halfDiameter)
	default:
		return 0.95
	}
}
