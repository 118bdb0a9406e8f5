package vm

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders f as the shortest decimal text that parses back to the
// same float32. Trailing zeros and a trailing point never appear. Every
// primitive that turns a number into text goes through here.
func FormatNumber(f float32) string {
	if f == 0 {
		return "0" // also folds -0
	}
	abs := math.Abs(float64(f))
	if math.IsInf(float64(f), 0) || math.IsNaN(float64(f)) {
		return strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	var s string
	if abs >= 1e-5 && abs < 1e21 {
		s = strconv.FormatFloat(float64(f), 'f', -1, 32)
	} else {
		s = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	if strings.Contains(s, ".") && !strings.ContainsAny(s, "eE") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

// ParseNumber parses word text as a number. Only plain decimal notation with
// an optional sign, fraction and exponent is accepted; "inf", "nan", hex and
// underscores are words, not numbers.
func ParseNumber(s string) (float32, bool) {
	if !looksNumeric(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}

func looksNumeric(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// checkNumber rejects results that left the float32 range.
func checkNumber(f float64) (float32, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxFloat32 {
		return 0, false
	}
	return float32(f), true
}
