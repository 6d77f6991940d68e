package replay

import (
	"math"
	"sort"
)

// Tolerances used when comparing physics traces.
const (
	RelTolerance = 1e-5
	AbsTolerance = 1e-8
)

// Mismatch names an object attribute whose replayed trace diverged.
type Mismatch struct {
	Object    string `json:"object"`
	Attribute string `json:"attribute"`
}

// VerifyDeterminism compares every logged attribute against the replay.
// Values match when |a-b| <= atol + rtol*|b|. Missing attributes, length
// differences and NaNs count as mismatches.
func VerifyDeterminism(original, replayed PhysicsData) (bool, []Mismatch) {
	var mismatches []Mismatch
	for _, obj := range sortedKeys(original) {
		attrs := original[obj]
		names := make([]string, 0, len(attrs))
		for a := range attrs {
			names = append(names, a)
		}
		sort.Strings(names)

		for _, attr := range names {
			got, ok := replayed[obj][attr]
			if !ok || !allClose(attrs[attr], got) {
				mismatches = append(mismatches, Mismatch{Object: obj, Attribute: attr})
			}
		}
	}
	return len(mismatches) == 0, mismatches
}

func allClose(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			return false
		}
		if !(math.Abs(a[i]-b[i]) <= AbsTolerance+RelTolerance*math.Abs(b[i])) {
			return false
		}
	}
	return true
}

func sortedKeys(m PhysicsData) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
