package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/behavior-harness/internal/logging"
	"github.com/danielpatrickdp/behavior-harness/internal/primitive"
	"github.com/danielpatrickdp/behavior-harness/internal/replay"
)

// #region main

func main() {
	var (
		fixtures    []string
		dir         string
		includeGoal bool
		logLevel    string
	)
	exitCode := 0
	cmd := &cobra.Command{
		Use:           "replay --fixture path/to/fixture.json | --dir path/to/fixtures",
		Short:         "Segment recorded fixtures offline and compare the derived plans",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logging.Setup(logLevel, "text"); err != nil {
				return err
			}
			paths := append([]string(nil), fixtures...)
			if dir != "" {
				matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
				if err != nil {
					return err
				}
				paths = append(paths, matches...)
			}
			if len(paths) == 0 {
				return fmt.Errorf("no fixtures given")
			}
			exitCode = run(cmd.Context(), paths, includeGoal)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&fixtures, "fixture", nil, "fixture JSON to replay (repeatable)")
	cmd.Flags().StringVar(&dir, "dir", "", "replay every *.json fixture in this directory")
	cmd.Flags().BoolVar(&includeGoal, "goal", false, "also run the goal-condition segmentation")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		fmt.Fprintln(os.Stderr, "       replay --dir path/to/fixtures")
		os.Exit(2)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region run

func run(ctx context.Context, paths []string, includeGoal bool) int {
	var results []replay.FixtureResult
	for _, path := range paths {
		f, err := replay.LoadFixture(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
			return 2
		}
		res, err := replay.RunFixture(ctx, f, includeGoal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			return 2
		}
		fmt.Printf("== %s (%s)\n", filepath.Base(path), res.Description)
		printCounts(res, f.ExpectedSegments)
		printComparison(f.ExpectedPlan, res.Plan)
		fmt.Println()
		results = append(results, res)
	}

	sum := replay.Summarize(results)
	fmt.Printf("Summary: %d fixtures, %d pass, %d diverge\n", sum.Total, sum.Passed, sum.Failed)
	if sum.Failed > 0 {
		return 1
	}
	return 0
}

// #endregion run

// #region output

func printCounts(res replay.FixtureResult, expected map[string]int) {
	names := make([]string, 0, len(res.SegmentCounts))
	for name := range res.SegmentCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		n := res.SegmentCounts[name]
		exp, ok := expected[name]
		if !ok {
			continue
		}
		match := "OK"
		if exp != n {
			match = "DIFF"
		}
		fmt.Printf("segments %-6s expected %3d, got %3d  %s\n", name, exp, n, match)
	}
}

// printComparison outputs the expected and derived plans side by side.
func printComparison(expected, got primitive.Plan) {
	fmt.Printf("%-5s| %-32s| %-32s| %s\n", "Step", "Expected", "Derived", "Match")
	fmt.Printf("%-5s+%-33s+%-33s+%s\n", "-----", "---------------------------------", "---------------------------------", "------")

	n := max(len(expected), len(got))
	for i := 0; i < n; i++ {
		exp, der := "-", "-"
		if i < len(expected) {
			exp = expected[i].String()
		}
		if i < len(got) {
			der = got[i].String()
		}
		match := "DIFF"
		if exp == der {
			match = "OK"
		}
		fmt.Printf("%-5d| %-32s| %-32s| %s\n", i, exp, der, match)
	}
}

// #endregion output
