package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/diff"
)

func rowByKey(rows []diff.Row, key string) (diff.Row, bool) {
	for _, r := range rows {
		if r.Key == key {
			return r, true
		}
	}
	return diff.Row{}, false
}

func TestCompareEqualMappings(t *testing.T) {
	left := map[string]interface{}{"name": "sw-01", "role": "access"}
	right := map[string]interface{}{"name": "sw-01", "role": "access"}

	rows, verdict := diff.Compare(left, right, diff.Options{})

	assert.Equal(t, diff.VerdictEqual, verdict)
	assert.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, diff.ClassEqual, r.Classification)
	}
}

func TestCompareRowsAreSortedOverKeyUnion(t *testing.T) {
	left := map[string]interface{}{"b": 1, "a": 1}
	right := map[string]interface{}{"c": 1, "b": 1}

	rows, _ := diff.Compare(left, right, diff.Options{})

	assert.Len(t, rows, 3)
	assert.Equal(t, "a", rows[0].Key)
	assert.Equal(t, "b", rows[1].Key)
	assert.Equal(t, "c", rows[2].Key)
	assert.Equal(t, diff.ClassMissingRight, rows[0].Classification)
	assert.Equal(t, diff.ClassEqual, rows[1].Classification)
	assert.Equal(t, diff.ClassMissingLeft, rows[2].Classification)
}

func TestCompareIgnoredTakesPrecedence(t *testing.T) {
	left := map[string]interface{}{"last_seen": "2026-01-01", "name": "sw-01"}
	right := map[string]interface{}{"name": "sw-01"}

	rows, verdict := diff.Compare(left, right, diff.Options{
		IgnoredKeys: []string{"last_seen"},
	})

	// The key is missing on the right, but the ignore-list wins.
	row, ok := rowByKey(rows, "last_seen")
	assert.True(t, ok)
	assert.Equal(t, diff.ClassIgnored, row.Classification)
	assert.Equal(t, diff.VerdictEqual, verdict)
}

func TestCompareIgnoredKeysDoNotMaskOtherDivergence(t *testing.T) {
	left := map[string]interface{}{"last_seen": "a", "role": "access"}
	right := map[string]interface{}{"last_seen": "b", "role": "core"}

	_, verdict := diff.Compare(left, right, diff.Options{
		IgnoredKeys: []string{"last_seen"},
	})

	assert.Equal(t, diff.VerdictDifferent, verdict)
}

func TestCompareNilRightIsMissingVerdict(t *testing.T) {
	left := map[string]interface{}{"name": "sw-01"}

	rows, verdict := diff.Compare(left, nil, diff.Options{})

	assert.Equal(t, diff.VerdictMissing, verdict)
	assert.Len(t, rows, 1)
	assert.Equal(t, diff.ClassMissingRight, rows[0].Classification)
}

func TestCompareEmptyRightIsDifferentNotMissing(t *testing.T) {
	left := map[string]interface{}{"name": "sw-01"}

	_, verdict := diff.Compare(left, map[string]interface{}{}, diff.Options{})

	// Present-but-empty is a divergent record, not an absent one.
	assert.Equal(t, diff.VerdictDifferent, verdict)
}

func TestCompareNumericWidening(t *testing.T) {
	left := map[string]interface{}{"vlan": 100}
	right := map[string]interface{}{"vlan": float64(100)}

	rows, verdict := diff.Compare(left, right, diff.Options{})

	assert.Equal(t, diff.VerdictEqual, verdict)
	assert.Equal(t, diff.ClassEqual, rows[0].Classification)
}

func TestCompareNestedStructures(t *testing.T) {
	left := map[string]interface{}{
		"interfaces": []interface{}{
			map[string]interface{}{"name": "eth0", "mtu": 1500},
		},
	}
	right := map[string]interface{}{
		"interfaces": []interface{}{
			map[string]interface{}{"name": "eth0", "mtu": float64(1500)},
		},
	}

	_, verdict := diff.Compare(left, right, diff.Options{})
	assert.Equal(t, diff.VerdictEqual, verdict)

	right["interfaces"].([]interface{})[0].(map[string]interface{})["mtu"] = 9000
	_, verdict = diff.Compare(left, right, diff.Options{})
	assert.Equal(t, diff.VerdictDifferent, verdict)
}

func TestCompareSliceOrderMatters(t *testing.T) {
	left := map[string]interface{}{"tags": []interface{}{"a", "b"}}
	right := map[string]interface{}{"tags": []interface{}{"b", "a"}}

	_, verdict := diff.Compare(left, right, diff.Options{})
	assert.Equal(t, diff.VerdictDifferent, verdict)
}

func TestCompareCanonicalizeKeys(t *testing.T) {
	left := map[string]interface{}{"Name": "sw-01"}
	right := map[string]interface{}{" name ": "sw-01"}

	rows, verdict := diff.Compare(left, right, diff.Options{CanonicalizeKeys: true})

	assert.Equal(t, diff.VerdictEqual, verdict)
	assert.Len(t, rows, 1)
	assert.Equal(t, "name", rows[0].Key)
}

func TestCompareCanonicalizeAppliesToIgnoreList(t *testing.T) {
	left := map[string]interface{}{"Last_Seen": "a"}
	right := map[string]interface{}{"last_seen": "b"}

	_, verdict := diff.Compare(left, right, diff.Options{
		IgnoredKeys:      []string{"LAST_SEEN"},
		CanonicalizeKeys: true,
	})

	assert.Equal(t, diff.VerdictEqual, verdict)
}

func TestRemediationFor(t *testing.T) {
	assert.Equal(t, diff.RemediationCreate, diff.RemediationFor(diff.VerdictMissing))
	assert.Equal(t, diff.RemediationUpdate, diff.RemediationFor(diff.VerdictDifferent))
	assert.Equal(t, diff.RemediationNone, diff.RemediationFor(diff.VerdictEqual))
}
