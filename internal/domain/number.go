package domain

import "math"

// NumberOptions constrain Integer and Float. The zero value accepts any finite number.
type NumberOptions struct {
	// OnlyPositive rejects negative values. Zero is not negative.
	OnlyPositive bool
	// NonZero rejects zero regardless of OnlyPositive.
	NonZero bool
}

type Integer struct {
	value int
}

func NewInteger(value int, opts NumberOptions) (Integer, error) {
	if err := checkNumber("Integer", float64(value), opts); err != nil {
		return Integer{}, err
	}
	return Integer{value: value}, nil
}

// IntegerFromFloat accepts numbers decoded from loosely typed input such as JSON.
func IntegerFromFloat(value float64, opts NumberOptions) (Integer, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Integer{}, Validationf("Integer: value must be a finite number")
	}
	if value != math.Trunc(value) {
		return Integer{}, Validationf("Integer: value must be a whole number")
	}
	if value > math.MaxInt32 || value < math.MinInt32 {
		return Integer{}, Validationf("Integer: value is out of range")
	}
	return NewInteger(int(value), opts)
}

func (i Integer) Value() int { return i.value }

func (i Integer) Equals(other Integer) bool { return i.value == other.value }

type Float struct {
	value float64
}

func NewFloat(value float64, opts NumberOptions) (Float, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Float{}, Validationf("Float: value must be a finite number")
	}
	if err := checkNumber("Float", value, opts); err != nil {
		return Float{}, err
	}
	return Float{value: value}, nil
}

func (f Float) Value() float64 { return f.value }

func (f Float) Equals(other Float) bool { return f.value == other.value }

func checkNumber(kind string, value float64, opts NumberOptions) error {
	if opts.OnlyPositive && value < 0 {
		return Validationf("%s: value must be positive", kind)
	}
	if opts.NonZero && value == 0 {
		return Validationf("%s: value cannot be zero", kind)
	}
	return nil
}
