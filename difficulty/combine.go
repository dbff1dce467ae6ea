package difficulty

import (
	"math"

	"github.com/pkg/errors"
)

// A Combiner folds the per-skill ratings into the star rating.
type Combiner interface {
	Combine(aim, speed float64) float64
}

type CombinerFunc func(aim, speed float64) float64

func (f CombinerFunc) Combine(aim, speed float64) float64 { return f(aim, speed) }

// Classic is the long-standing formula: the sum of both skills plus half
// their difference.
var Classic = CombinerFunc(func(aim, speed float64) float64 {
	return aim + speed + math.Abs(aim-speed)/2
})

// PowerMean combines skills with a power mean, scaled so that equal skills
// give the same result as Classic.
type PowerMean struct {
	Power float64
}

func (p PowerMean) Combine(aim, speed float64) float64 {
	return 2 * PowAvg([]float64{aim, speed}, p.Power)
}

func PowAvg(nums []float64, pow float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	sum := 0.0
	for _, num := range nums {
		sum += math.Pow(num, pow)
	}
	return math.Pow(sum/float64(len(nums)), 1/pow)
}

var ErrUnknownCombiner = errors.New("unknown combiner")

// CombinerByName returns "classic" or "powavg" with the given power.
func CombinerByName(name string, power float64) (Combiner, error) {
	switch name {
	case "", "classic":
		return Classic, nil
	case "powavg":
		if power <= 0 {
			return nil, errors.Errorf("powavg power must be positive, got %v", power)
		}
		return PowerMean{Power: power}, nil
	}
	return nil, errors.Wrap(ErrUnknownCombiner, name)
}
