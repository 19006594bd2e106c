// Package diff computes the structural difference between an expected and an
// actual attribute mapping of one device.
package diff

import (
	"reflect"
	"sort"
	"strings"
)

// Classification is the per-key comparison result.
type Classification string

const (
	ClassEqual        Classification = "equal"
	ClassDifferent    Classification = "different"
	ClassMissingLeft  Classification = "missing_left"
	ClassMissingRight Classification = "missing_right"
	// ClassIgnored takes precedence over every other classification: a key on
	// the ignore-list is reported as ignored even when its values differ or
	// one side lacks it.
	ClassIgnored Classification = "ignored"
)

// Verdict is the overall comparison result for one device.
type Verdict string

const (
	VerdictEqual     Verdict = "equal"
	VerdictDifferent Verdict = "different"
	// VerdictMissing means the right-hand (actual) record is absent entirely,
	// as opposed to present with missing keys. The two cases route to
	// different remediations, so they must never be conflated.
	VerdictMissing Verdict = "missing"
)

// Row is one line of the comparison table. Rows are derived, never stored;
// they are recomputed from the two mappings and the ignore-list on every
// request.
type Row struct {
	Key            string         `json:"key"`
	LeftValue      interface{}    `json:"left_value"`
	RightValue     interface{}    `json:"right_value"`
	Classification Classification `json:"classification"`
}

// Options controls one comparison.
type Options struct {
	// IgnoredKeys lists attribute keys excluded from divergence
	// classification.
	IgnoredKeys []string

	// CanonicalizeKeys matches keys case-insensitively with surrounding
	// whitespace trimmed. Backends disagree on attribute-key casing, so two
	// records describing the same device may spell the same key differently.
	CanonicalizeKeys bool
}

// Remediation is the follow-up action a verdict routes to.
type Remediation string

const (
	RemediationNone   Remediation = "none"
	RemediationCreate Remediation = "create"
	RemediationUpdate Remediation = "update"
)

// Compare computes the per-key classification rows and the overall verdict
// for the expected (left) and actual (right) attribute mappings.
//
// Rows cover the union of both key sets, sorted by key. For each key the
// precedence is: ignored first, then missing on either side, then a deep
// structural value comparison. Values compare by JSON structure, not by
// reference or concrete numeric type: nested maps compare by key set, arrays
// element-wise in order, and numeric leaves by value so that an int 1 equals
// a float64 1 regardless of how the mapping was decoded.
//
// A nil right map means the actual record is absent entirely and yields
// VerdictMissing, whatever the left map contains. An empty-but-present right
// map instead yields missing_right rows and, unless everything is ignored,
// VerdictDifferent.
func Compare(left, right map[string]interface{}, opts Options) ([]Row, Verdict) {
	ignored := make(map[string]struct{}, len(opts.IgnoredKeys))
	for _, k := range opts.IgnoredKeys {
		ignored[canonicalKey(k, opts.CanonicalizeKeys)] = struct{}{}
	}

	leftByKey := indexByCanonicalKey(left, opts.CanonicalizeKeys)
	rightByKey := indexByCanonicalKey(right, opts.CanonicalizeKeys)

	keys := make([]string, 0, len(leftByKey)+len(rightByKey))
	seen := make(map[string]struct{}, len(leftByKey)+len(rightByKey))
	for k := range leftByKey {
		keys = append(keys, k)
		seen[k] = struct{}{}
	}
	for k := range rightByKey {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	rows := make([]Row, 0, len(keys))
	divergent := false
	for _, k := range keys {
		leftValue, inLeft := leftByKey[k]
		rightValue, inRight := rightByKey[k]

		row := Row{Key: k, LeftValue: leftValue, RightValue: rightValue}
		switch {
		case isIgnored(ignored, k):
			row.Classification = ClassIgnored
		case !inRight:
			row.Classification = ClassMissingRight
		case !inLeft:
			row.Classification = ClassMissingLeft
		case structurallyEqual(leftValue, rightValue):
			row.Classification = ClassEqual
		default:
			row.Classification = ClassDifferent
		}
		if row.Classification != ClassEqual && row.Classification != ClassIgnored {
			divergent = true
		}
		rows = append(rows, row)
	}

	if right == nil {
		return rows, VerdictMissing
	}
	if divergent {
		return rows, VerdictDifferent
	}
	return rows, VerdictEqual
}

// RemediationFor maps a verdict to the follow-up action: an absent record
// must be created, a divergent one updated, an equal one left alone.
func RemediationFor(v Verdict) Remediation {
	switch v {
	case VerdictMissing:
		return RemediationCreate
	case VerdictDifferent:
		return RemediationUpdate
	default:
		return RemediationNone
	}
}

func canonicalKey(key string, canonicalize bool) string {
	if !canonicalize {
		return key
	}
	return strings.ToLower(strings.TrimSpace(key))
}

func indexByCanonicalKey(m map[string]interface{}, canonicalize bool) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[canonicalKey(k, canonicalize)] = v
	}
	return out
}

func isIgnored(ignored map[string]struct{}, key string) bool {
	_, ok := ignored[key]
	return ok
}

// structurallyEqual compares two decoded JSON values by structure. Maps
// compare by key set, slices element-wise in order, and numeric leaves by
// value after widening to float64. Other leaves fall back to
// reflect.DeepEqual.
func structurallyEqual(a, b interface{}) bool {
	if aMap, ok := a.(map[string]interface{}); ok {
		bMap, ok := b.(map[string]interface{})
		if !ok || len(aMap) != len(bMap) {
			return false
		}
		for k, av := range aMap {
			bv, ok := bMap[k]
			if !ok || !structurallyEqual(av, bv) {
				return false
			}
		}
		return true
	}
	if aSlice, ok := a.([]interface{}); ok {
		bSlice, ok := b.([]interface{})
		if !ok || len(aSlice) != len(bSlice) {
			return false
		}
		for i := range aSlice {
			if !structurallyEqual(aSlice[i], bSlice[i]) {
				return false
			}
		}
		return true
	}

	if isNumeric(a) && isNumeric(b) {
		return toFloat64(a) == toFloat64(b)
	}
	return reflect.DeepEqual(a, b)
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

func toFloat64(v interface{}) float64 {
	switch v := v.(type) {
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	default:
		return 0
	}
}
