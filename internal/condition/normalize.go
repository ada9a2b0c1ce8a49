// Package condition normalizes free-text condition labels onto the
// 0-100 Condition Index scale.
package condition

// DefaultCI is the midpoint of the Fair band, used whenever a label
// carries no usable numeric information. Upstream data entry is
// inconsistent, so malformed labels degrade instead of erroring.
const DefaultCI = 50

// ToCI maps a percentage-range label (e.g. "100-75%", "25-0%") to a
// Condition Index. The first integer found scanning left to right is
// the upper bound of the range and becomes the CI. Empty or digit-free
// labels return DefaultCI.
func ToCI(label string) float64 {
	n := 0
	inNumber := false
	for i := 0; i < len(label); i++ {
		c := label[i]
		if c >= '0' && c <= '9' {
			inNumber = true
			n = n*10 + int(c-'0')
			continue
		}
		if inNumber {
			break
		}
	}
	if !inNumber {
		return DefaultCI
	}
	if n > 100 {
		n = 100
	}
	return float64(n)
}

// Rating returns the display band for a CI value.
func Rating(ci float64) string {
	switch {
	case ci >= 90:
		return "Excellent"
	case ci >= 75:
		return "Good"
	case ci >= 50:
		return "Fair"
	case ci >= 25:
		return "Poor"
	default:
		return "Critical"
	}
}
