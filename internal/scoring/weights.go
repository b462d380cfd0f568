// Package scoring computes weighted fit scores for classified
// opportunities against a company capability profile.
package scoring

import (
	"fmt"
	"math"
)

// WeightSet defines the relative importance of each scoring criterion.
// All weights must sum to 1.0 (±0.001 tolerance). A WeightSet is fixed
// for the life of an Engine; callers wanting a different scheme build
// a second Engine.
type WeightSet struct {
	Domain       float64
	NAICS        float64
	Skill        float64
	Agency       float64
	ContractType float64
	Strategic    float64
}

// DefaultWeights returns the standard weight distribution.
func DefaultWeights() WeightSet {
	return WeightSet{
		Domain:       0.30,
		NAICS:        0.20,
		Skill:        0.20,
		Agency:       0.10,
		ContractType: 0.10,
		Strategic:    0.10,
	}
}

// Sum returns the total of all weights.
func (w WeightSet) Sum() float64 {
	return w.Domain + w.NAICS + w.Skill + w.Agency + w.ContractType + w.Strategic
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w WeightSet) Validate() error {
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	for _, v := range []float64{w.Domain, w.NAICS, w.Skill, w.Agency, w.ContractType, w.Strategic} {
		if v < 0 {
			return fmt.Errorf("negative weight: %f", v)
		}
	}
	return nil
}
