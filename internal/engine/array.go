package engine

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-playground/validator/v10"
)

// ArraySpec describes a bootstrap array: Length distinct integers in
// [Min, Max].
type ArraySpec struct {
	Length int `validate:"min=1"`
	Min    int
	Max    int `validate:"gtefield=Min"`
}

// DefaultArraySpec is six distinct values between 0 and 10.
var DefaultArraySpec = ArraySpec{Length: 6, Min: 0, Max: 10}

var arrayValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports whether Length distinct values fit in [Min, Max].
func (s ArraySpec) Validate() error {
	if err := arrayValidate.Struct(s); err != nil {
		return fmt.Errorf("array spec: %w", err)
	}
	if !s.Fits() {
		return fmt.Errorf("array spec: %d distinct values do not fit in [%d,%d]", s.Length, s.Min, s.Max)
	}
	return nil
}

// Fits reports whether [Min, Max] holds at least Length values. The width
// is computed in uint64 so extreme bounds cannot overflow.
func (s ArraySpec) Fits() bool {
	if s.Length <= 0 {
		return true
	}
	if s.Max < s.Min {
		return false
	}
	return s.width() >= uint64(s.Length-1)
}

// width is Max-Min, exact for any Min <= Max.
func (s ArraySpec) width() uint64 {
	return uint64(s.Max) - uint64(s.Min)
}

// RandomArray draws Length distinct values from [Min, Max]. The result
// depends only on rng, so a seeded source reproduces the array.
//
// It runs a partial Fisher-Yates shuffle over the virtual range, keeping
// only displaced positions, so memory is O(Length) whatever the range.
func RandomArray(rng *rand.Rand, spec ArraySpec) ([]int, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	width := spec.width()
	moved := make(map[uint64]uint64, spec.Length)
	at := func(i uint64) uint64 {
		if v, ok := moved[i]; ok {
			return v
		}
		return i
	}

	out := make([]int, spec.Length)
	for i := uint64(0); i < uint64(spec.Length); i++ {
		j := i + upTo(rng, width-i)
		out[i] = int(uint64(spec.Min) + at(j))
		moved[j] = at(i)
	}
	return out, nil
}

// upTo returns a uniform value in [0, n].
func upTo(rng *rand.Rand, n uint64) uint64 {
	if n == math.MaxUint64 {
		return rng.Uint64()
	}
	return rng.Uint64N(n + 1)
}

// ValidateArray checks a supplied bootstrap array against spec.
func ValidateArray(array []int, spec ArraySpec) error {
	tag := fmt.Sprintf("len=%d,unique,dive,min=%d,max=%d", spec.Length, spec.Min, spec.Max)
	if err := arrayValidate.Var(array, tag); err != nil {
		return fmt.Errorf("array %v: %w", array, err)
	}
	return nil
}
