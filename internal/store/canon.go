package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// marshalCanonical produces deterministic JSON for audit event fields.
// CRITICAL: This is the only serialization used for the events table, so
// golden traces compare byte-for-byte.
//
// Rules:
//  1. Object keys sorted lexicographically (field names are ASCII)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Integers only - floats and null are forbidden
//  5. Amounts (*big.Int) are rendered as decimal strings, since JSON
//     numbers above 2^53 lose precision in many consumers
func marshalCanonical(fields map[string]any) (string, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		ks, err := canonicalString(k)
		if err != nil {
			return "", fmt.Errorf("field name %q: %w", k, err)
		}
		buf.Write(ks)
		buf.WriteByte(':')
		vs, err := canonicalValue(fields[k])
		if err != nil {
			return "", fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(vs)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// canonicalString produces a canonical JSON string with NFC normalization.
func canonicalString(s string) ([]byte, error) {
	// NFC normalize at serialization boundary
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	// Encoder adds a trailing newline, remove it
	return []byte(strings.TrimSpace(buf.String())), nil
}

func canonicalValue(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return canonicalString(val)
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case int:
		return fmt.Appendf(nil, "%d", val), nil
	case int64:
		return fmt.Appendf(nil, "%d", val), nil
	case uint64:
		return fmt.Appendf(nil, "%d", val), nil
	case *big.Int:
		if val == nil {
			return nil, fmt.Errorf("nil *big.Int is forbidden")
		}
		return canonicalString(val.String())
	default:
		return nil, fmt.Errorf("unsupported type %T (floats and nested values are forbidden)", v)
	}
}
