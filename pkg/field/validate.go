package field

import (
	"math"
	"strconv"
	"strings"
)

// NewNumber creates a numeric field. Values are clamped to [min, max]
// unless min > max, which leaves the field unbounded. A precision of 0
// disables rounding.
func NewNumber(name, value string, min, max, precision float64) *Field {
	f := &Field{name: name, kind: KindNumber, editable: true, min: min, max: max, precision: precision}
	if v, ok := f.classValidate(value); ok {
		value = v
	}
	f.value = value
	f.text = value
	return f
}

// Bounds returns the numeric range and precision of a number field.
func (f *Field) Bounds() (min, max, precision float64) { return f.min, f.max, f.precision }

var numberCleaner = strings.NewReplacer("O", "0", "o", "0", ",", "")

// classValidate is the fixed, variant-specific stage of the pipeline.
func (f *Field) classValidate(text string) (string, bool) {
	switch f.kind {
	case KindNumber:
		return f.validateNumber(text)
	case KindCheckbox:
		switch strings.ToUpper(strings.TrimSpace(text)) {
		case "TRUE":
			return "TRUE", true
		case "FALSE":
			return "FALSE", true
		}
		return "", false
	default:
		// Text, labels and dropdowns accept anything. Unmatched dropdown
		// values are kept so forward references survive.
		return text, true
	}
}

func (f *Field) validateNumber(text string) (string, bool) {
	text = strings.TrimSpace(numberCleaner.Replace(text))
	if text == "" {
		text = "0"
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(n) {
		return "", false
	}
	if f.min <= f.max {
		n = math.Min(math.Max(n, f.min), f.max)
	}
	if f.precision > 0 && !math.IsInf(n, 0) {
		n = math.Round(n/f.precision) * f.precision
	}
	return strconv.FormatFloat(n, 'f', decimals(f.precision), 64), true
}

// decimals returns how many fractional digits a precision implies, or -1
// for the shortest exact representation.
func decimals(precision float64) int {
	if precision <= 0 || precision == math.Trunc(precision) {
		return -1
	}
	s := strconv.FormatFloat(precision, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return -1
}
