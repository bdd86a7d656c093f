package disks

import (
	"errors"
	"fmt"
)

// ErrMissingField is wrapped by every failed required-field lookup
var ErrMissingField = errors.New("missing or mistyped field")

// Record is one result row of a disk query. Values are string, uint64,
// uint16, bool or []any; anything else is treated as absent by the getters.
type Record map[string]any

// String returns the string value stored under key
func (r Record) String(key string) (string, bool) {
	v, ok := r[key].(string)
	return v, ok
}

// Uint64 returns the uint64 value stored under key
func (r Record) Uint64(key string) (uint64, bool) {
	v, ok := r[key].(uint64)
	return v, ok
}

// Uint16 returns the uint16 value stored under key
func (r Record) Uint16(key string) (uint16, bool) {
	v, ok := r[key].(uint16)
	return v, ok
}

// Bool returns the bool value stored under key
func (r Record) Bool(key string) (bool, bool) {
	v, ok := r[key].(bool)
	return v, ok
}

// Array returns the array value stored under key
func (r Record) Array(key string) ([]any, bool) {
	v, ok := r[key].([]any)
	return v, ok
}

func (r Record) requireString(key string) (string, error) {
	if v, ok := r.String(key); ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrMissingField, key)
}

func (r Record) requireUint64(key string) (uint64, error) {
	if v, ok := r.Uint64(key); ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrMissingField, key)
}

func (r Record) requireBool(key string) (bool, error) {
	if v, ok := r.Bool(key); ok {
		return v, nil
	}
	return false, fmt.Errorf("%w: %s", ErrMissingField, key)
}

func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
