// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package airtable

import (
	"fmt"
	"strconv"
	"strings"
)

// FirstLinkedID returns the first ID of a linked-record field. Airtable
// stores links as arrays of record IDs; only the first element is used.
func FirstLinkedID(fields map[string]any, key string) (string, bool) {
	switch v := fields[key].(type) {
	case []any:
		if len(v) == 0 {
			return "", false
		}
		id, ok := v[0].(string)
		return id, ok && id != ""
	case []string:
		if len(v) == 0 || v[0] == "" {
			return "", false
		}
		return v[0], true
	case string:
		return v, v != ""
	default:
		return "", false
	}
}

// String returns the first non-empty string value among keys.
func String(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := asString(fields[key]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		// Lookup fields come back as single-element arrays.
		if len(t) > 0 {
			return asString(t[0])
		}
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Number reads a numeric field. Missing or non-numeric values read as 0;
// numeric strings such as "45.50" are parsed.
func Number(fields map[string]any, key string) float64 {
	n, _ := NumberOK(fields, key)
	return n
}

// NumberOK is Number that also reports whether a number was found.
func NumberOK(fields map[string]any, key string) (float64, bool) {
	switch v := fields[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Strings reads a multi-select or comma-separated text field.
func Strings(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		if v == "" {
			return []string{}
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return []string{}
	}
}

// EscapeFormulaString quotes s for use inside a single-quoted formula literal.
func EscapeFormulaString(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `'`, `\'`)
}
