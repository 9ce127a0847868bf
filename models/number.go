package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number holds a ward or plot as it arrived on the wire. Clients send these
// as integers, numeric strings, floats, or occasionally garbage, so decoding
// never fails; callers ask Int() whether the value is usable.
type Number struct {
	raw string
}

// NewNumber returns a set Number holding i.
func NewNumber(i int) Number {
	return Number{raw: strconv.Itoa(i)}
}

// IsSet reports whether a value was supplied. Zero counts as unset since
// wards and plots are numbered from 1.
func (n Number) IsSet() bool {
	if n.raw == "" {
		return false
	}
	if i, ok := n.Int(); ok && i == 0 {
		return false
	}
	return true
}

// Int parses the value as an integer. Whole floats such as 5.0 are accepted;
// values outside the int range are not.
func (n Number) Int() (int, bool) {
	s := strings.TrimSpace(n.raw)
	if i, err := strconv.Atoi(s); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// float64(math.MaxInt) rounds up to 2^63, which int cannot hold
	if f < math.MinInt || f >= float64(math.MaxInt) {
		return 0, false
	}
	return int(f), true
}

// String returns the value as supplied, or "" when unset.
func (n Number) String() string {
	if !n.IsSet() {
		return ""
	}
	return n.raw
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")):
		n.raw = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			n.raw = string(b)
			return nil
		}
		n.raw = strings.TrimSpace(s)
	default:
		n.raw = string(b)
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.IsSet() {
		return []byte("null"), nil
	}
	if i, ok := n.Int(); ok {
		return []byte(strconv.Itoa(i)), nil
	}
	return json.Marshal(n.raw)
}
