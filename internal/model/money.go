package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in cents.  It is stored as an integer column and
// encoded on the wire as a JSON number with two decimals (e.g. 49.90).
type Money int64

var ErrInvalidMoney = errors.New("invalid money amount")

// ParseMoney parses a decimal string with at most two fractional digits.
// Both "49.9" and "49.90" yield 4990.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidMoney
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && (!hasDot || frac == "") {
		return 0, ErrInvalidMoney
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: more than two decimals", ErrInvalidMoney)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	var units int64
	if whole != "" {
		n, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || n < 0 {
			return 0, ErrInvalidMoney
		}
		if n > (math.MaxInt64-99)/100 {
			return 0, fmt.Errorf("%w: out of range", ErrInvalidMoney)
		}
		units = n
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || cents < 0 {
		return 0, ErrInvalidMoney
	}
	v := units*100 + cents
	if neg {
		v = -v
	}
	return Money(v), nil
}

// String renders the amount with exactly two decimals.
func (m Money) String() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Float64 is used by the spreadsheet export only.
func (m Money) Float64() float64 { return float64(m) / 100 }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		return nil
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
