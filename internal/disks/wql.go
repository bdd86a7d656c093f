package disks

import (
	"fmt"
	"strconv"
	"strings"
)

// CIM type codes reported by SWbemProperty.CIMType
const (
	cimSInt16   = 2
	cimSInt32   = 3
	cimString   = 8
	cimBoolean  = 11
	cimSInt8    = 16
	cimUInt8    = 17
	cimUInt16   = 18
	cimUInt32   = 19
	cimSInt64   = 20
	cimUInt64   = 21
	cimDateTime = 101
)

// associatorsQuery builds an ASSOCIATORS OF statement for one instance
func associatorsQuery(class, id, assocClass string) string {
	return fmt.Sprintf("ASSOCIATORS OF {%s.DeviceID='%s'} WHERE AssocClass=%s", class, escapeWQL(id), assocClass)
}

// escapeWQL escapes a value for use inside a single-quoted WQL literal
func escapeWQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// convertCIM normalises a raw property value to the types a Record holds.
// 64-bit integers arrive as decimal strings and 16-bit ones as 32-bit ints.
func convertCIM(cimType int, isArray bool, raw any) any {
	if raw == nil {
		return nil
	}
	if isArray {
		items, ok := raw.([]any)
		if !ok {
			return nil
		}
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, convertCIM(cimType, false, item))
		}
		return out
	}

	switch cimType {
	case cimUInt64:
		if n, ok := toUint64(raw); ok {
			return n
		}
	case cimUInt16:
		if n, ok := toUint64(raw); ok && n <= 0xFFFF {
			return uint16(n)
		}
	case cimUInt8, cimUInt32:
		if n, ok := toUint64(raw); ok {
			return n
		}
	case cimSInt8, cimSInt16, cimSInt32, cimSInt64:
		if n, ok := toInt64(raw); ok {
			return n
		}
	case cimBoolean:
		if b, ok := raw.(bool); ok {
			return b
		}
	case cimString, cimDateTime:
		if s, ok := raw.(string); ok {
			return s
		}
	}

	return raw
}

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case int8:
		return uint64(n), n >= 0
	case int16:
		return uint64(n), n >= 0
	case int32:
		return uint64(n), n >= 0
	case int64:
		return uint64(n), n >= 0
	case int:
		return uint64(n), n >= 0
	case string:
		u, err := strconv.ParseUint(n, 10, 64)
		return u, err == nil
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}
