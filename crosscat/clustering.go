package crosscat

import "fmt"

// PitmanYor holds the two-parameter clustering prior over the feature
// partition. Alpha is the concentration, D the discount.
type PitmanYor struct {
	Alpha float64
	D     float64
}

func (py PitmanYor) validate() error {
	if !(py.Alpha > 0) {
		return fmt.Errorf("%w: alpha (%v) must be > 0", ErrOutOfRangeHyperparameter, py.Alpha)
	}
	if !(py.D >= 0 && py.D < 1) {
		return fmt.Errorf("%w: d (%v) must be in [0, 1)", ErrOutOfRangeHyperparameter, py.D)
	}
	return nil
}
