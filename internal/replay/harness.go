package replay

import (
	"context"
	"fmt"
	"sort"

	"github.com/danielpatrickdp/behavior-harness/internal/primitive"
	"github.com/danielpatrickdp/behavior-harness/internal/segment"
)

// #region types
// Divergence is a plan position where derived and expected steps differ.
// A nil side means that plan ended earlier.
type Divergence struct {
	Index    int
	Expected *primitive.Step
	Got      *primitive.Step
}

func (d Divergence) String() string {
	show := func(s *primitive.Step) string {
		if s == nil {
			return "-"
		}
		return s.String()
	}
	return fmt.Sprintf("step %d: expected %s, got %s", d.Index, show(d.Expected), show(d.Got))
}

// FixtureResult captures one fixture run end to end.
type FixtureResult struct {
	Description  string
	Statistics   Statistics
	Segmentation segment.File
	Plan         primitive.Plan
	Divergences  []Divergence
	// SegmentCounts is processor name -> top-level segment count.
	SegmentCounts map[string]int
	// CountMismatches lists processors whose count differs from expected.
	CountMismatches []string
}

// Passed reports whether the fixture reproduced its expectations.
func (r FixtureResult) Passed() bool {
	return len(r.Divergences) == 0 && len(r.CountMismatches) == 0
}

// Summary aggregates fixture runs.
type Summary struct {
	Total  int
	Passed int
	Failed int
}

// #endregion types

// #region run-fixture
// RunFixture segments the fixture's frames, derives a plan from the flat
// segmentation and compares both against the fixture's expectations.
func RunFixture(ctx context.Context, f *Fixture, includeGoal bool) (FixtureResult, error) {
	file, _, stats, err := Segment(ctx, NewFixtureSession(f), includeGoal)
	if err != nil {
		return FixtureResult{}, fmt.Errorf("segment fixture: %w", err)
	}

	plan, err := primitive.Derive(ctx, file[segment.Flat])
	if err != nil {
		return FixtureResult{}, fmt.Errorf("derive plan: %w", err)
	}

	res := FixtureResult{
		Description:   f.Description,
		Statistics:    stats,
		Segmentation:  file,
		Plan:          plan,
		Divergences:   ComparePlans(f.ExpectedPlan, plan),
		SegmentCounts: make(map[string]int, len(file)),
	}
	for name, tree := range file {
		res.SegmentCounts[name] = len(tree.SubSegments)
	}
	for _, name := range sortedNames(f.ExpectedSegments) {
		if res.SegmentCounts[name] != f.ExpectedSegments[name] {
			res.CountMismatches = append(res.CountMismatches, name)
		}
	}
	return res, nil
}

// ComparePlans lists every position where the plans differ.
func ComparePlans(expected, got primitive.Plan) []Divergence {
	n := max(len(expected), len(got))
	var out []Divergence
	for i := 0; i < n; i++ {
		var e, g *primitive.Step
		if i < len(expected) {
			e = &expected[i]
		}
		if i < len(got) {
			g = &got[i]
		}
		if e != nil && g != nil && *e == *g {
			continue
		}
		out = append(out, Divergence{Index: i, Expected: e, Got: g})
	}
	return out
}

// Summarize counts passing and failing fixture runs.
func Summarize(results []FixtureResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

func sortedNames(m map[string]int) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// #endregion run-fixture
