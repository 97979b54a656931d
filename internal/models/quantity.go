package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Quantity is the amount of an item. It may be NaN when the user typed
// something that is not a number; that value is kept as-is.
type Quantity float64

// IsNaN reports whether the quantity is not a number
func (q Quantity) IsNaN() bool {
	return math.IsNaN(float64(q))
}

// Equal compares quantities treating two NaNs as equal
func (q Quantity) Equal(other Quantity) bool {
	return q == other || (q.IsNaN() && other.IsNaN())
}

func (q Quantity) String() string {
	f := float64(q)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON writes NaN and infinities as null, like JSON.stringify
func (q Quantity) MarshalJSON() ([]byte, error) {
	f := float64(q)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON accepts a number, a numeric string or null (read back as NaN)
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = Quantity(math.NaN())
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = ParseQuantity(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*q = Quantity(f)
	return nil
}

// ParseQuantity reads the longest leading decimal number from s, ignoring
// leading whitespace. Input without a numeric prefix yields NaN.
func ParseQuantity(s string) Quantity {
	s = strings.TrimLeft(s, " \t\n\r\f\v")
	if end := numericPrefix(s); end > 0 {
		// Out of range literals saturate to ±Inf or 0 instead of failing
		f, err := strconv.ParseFloat(s[:end], 64)
		if err == nil || errors.Is(err, strconv.ErrRange) {
			return Quantity(f)
		}
	}
	for _, inf := range []string{"Infinity", "+Infinity"} {
		if strings.HasPrefix(s, inf) {
			return Quantity(math.Inf(1))
		}
	}
	if strings.HasPrefix(s, "-Infinity") {
		return Quantity(math.Inf(-1))
	}
	return Quantity(math.NaN())
}

// numericPrefix returns the length of the decimal literal at the start of s
func numericPrefix(s string) int {
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
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	return i
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
