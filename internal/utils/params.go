package utils

import "strconv"

// ParseInt reads an integer query value, falling back to def when it is
// missing or malformed and clamping the result to [min, max].
func ParseInt(value string, def, min, max int) int {
	if value == "" {
		return def
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	if i < min {
		return min
	}
	if i > max {
		return max
	}
	return i
}

// ParseOptionalInt64 returns nil for an empty value.
func ParseOptionalInt64(value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// OptionalString returns nil for an empty value.
func OptionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
