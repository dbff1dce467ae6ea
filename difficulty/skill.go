package difficulty

import (
	"math"
	"slices"
)

// A Skill turns each object into a strain contribution.
type Skill interface {
	Name() string
	SkillMultiplier() float64
	// StrainDecayBase is the fraction of strain kept after one second.
	StrainDecayBase() float64
	StrainValueOf(d Delta) float64
}

const (
	sectionLength = 400.0
	decayWeight   = 0.9
	starScale     = 0.0675
)

func strainDecay(skill Skill, ms float64) float64 {
	return math.Pow(skill.StrainDecayBase(), ms/1000)
}

// StrainPeaksOf runs skill over deltas and returns the highest strain
// reached in each section, in time order.
func StrainPeaksOf(skill Skill, deltas []Delta) []float64 {
	if len(deltas) == 0 {
		return nil
	}

	var peaks []float64
	current := 0.0
	prevTime := deltas[0].Time - deltas[0].DeltaTime
	sectionEnd := math.Ceil(prevTime/sectionLength) * sectionLength
	if sectionEnd <= prevTime {
		sectionEnd += sectionLength
	}
	sectionPeak := 0.0

	for _, d := range deltas {
		for d.Time > sectionEnd {
			peaks = append(peaks, sectionPeak)
			sectionPeak = current * strainDecay(skill, sectionEnd-prevTime)
			sectionEnd += sectionLength
		}

		current = current*strainDecay(skill, d.DeltaTime) + skill.StrainValueOf(d)*skill.SkillMultiplier()
		sectionPeak = max(sectionPeak, current)
		prevTime = d.Time
	}
	return append(peaks, sectionPeak)
}

// DifficultyValue weights the sorted peaks geometrically and sums them.
func DifficultyValue(peaks []float64) float64 {
	sorted := slices.Clone(peaks)
	slices.Sort(sorted)
	slices.Reverse(sorted)

	value := 0.0
	weight := 1.0
	for _, p := range sorted {
		value += p * weight
		weight *= decayWeight
	}
	return value
}

// Rating is the star value of a skill's peaks.
func Rating(peaks []float64) float64 {
	return math.Sqrt(DifficultyValue(peaks)) * starScale
}
