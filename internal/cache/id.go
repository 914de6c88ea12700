package cache

import (
	"fmt"

	"github.com/spf13/cast"
)

// Key returns the normalised form of an entity identifier. Numbers decoded
// from JSON (float64), integers, json.Number and strings all collapse onto
// the same decimal string, so identifiers arriving as numbers on one channel
// and as strings on another still match.
func Key(id any) string {
	if id == nil {
		return ""
	}
	s, err := cast.ToStringE(id)
	if err != nil {
		return fmt.Sprint(id)
	}
	return s
}

// SameID reports whether a and b identify the same entity. A nil id never
// matches anything.
func SameID(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	return Key(a) == Key(b)
}

// IsScalarID reports whether v can serve as a bare identifier reference:
// a non-empty string or a number.
func IsScalarID(v any) bool {
	switch id := v.(type) {
	case string:
		return id != ""
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case interface{ Int64() (int64, error) }:
		_, err := id.Int64()
		return err == nil
	default:
		return false
	}
}
