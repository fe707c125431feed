package shortcode

import (
	"errors"
	"fmt"
	"math"
)

// Alphabet maps digit values 0–61 to characters: digits, then lowercase,
// then uppercase. The short code for a record is nothing more than the
// base-62 rendering of its database ID, so code uniqueness follows directly
// from ID uniqueness.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const base = uint64(62)

var (
	// ErrEmptyCode is returned when decoding an empty string.
	ErrEmptyCode = errors.New("shortcode: empty code")
	// ErrInvalidChar is returned when a code contains a character outside
	// the base-62 alphabet.
	ErrInvalidChar = errors.New("shortcode: invalid character")
	// ErrOverflow is returned when a code's value does not fit in a uint64.
	ErrOverflow = errors.New("shortcode: value overflows uint64")
)

// Encode renders id in base 62, most significant digit first. Only id = 0
// produces a leading zero digit.
func Encode(id uint64) string {
	if id == 0 {
		return string(Alphabet[0])
	}

	// A uint64 never needs more than 11 base-62 digits.
	buf := make([]byte, 0, 11)
	for id > 0 {
		buf = append(buf, Alphabet[id%base])
		id /= base
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// Decode parses a base-62 code back to its numeric value. It never guesses:
// any character outside the alphabet or any value beyond the uint64 range is
// an explicit error.
func Decode(code string) (uint64, error) {
	if code == "" {
		return 0, ErrEmptyCode
	}

	var n uint64
	for i := 0; i < len(code); i++ {
		v, ok := digitValue(code[i])
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalidChar, code[i])
		}
		if n > (math.MaxUint64-v)/base {
			return 0, ErrOverflow
		}
		n = n*base + v
	}
	return n, nil
}

func digitValue(c byte) (uint64, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint64(c - '0'), true
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 10, true
	case c >= 'A' && c <= 'Z':
		return uint64(c-'A') + 36, true
	}
	return 0, false
}
