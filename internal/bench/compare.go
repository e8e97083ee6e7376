package bench

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// SignificanceThreshold is the percent change at which a metric counts as
// significant.
const SignificanceThreshold = 5.0

// MetricComparison represents a comparison between two metric values
type MetricComparison struct {
	Name          string  `json:"name"`
	BaseValue     float64 `json:"base_value"`
	CurrentValue  float64 `json:"current_value"`
	PercentChange float64 `json:"percent_change"`
	IsRegression  bool    `json:"is_regression"`
	IsImprovement bool    `json:"is_improvement"`
	IsSignificant bool    `json:"is_significant"`
}

// Comparison holds the metric comparisons for one named result
type Comparison struct {
	Name              string             `json:"name"`
	Category          string             `json:"category"`
	MetricComparisons []MetricComparison `json:"metric_comparisons"`
	OverallAssessment string             `json:"overall_assessment"`
	HasRegressions    bool               `json:"has_regressions"`
	Score             float64            `json:"score"`
}

// ComparisonSummary represents the overall comparison result
type ComparisonSummary struct {
	BaseCommit             string       `json:"base_commit"`
	CurrentCommit          string       `json:"current_commit"`
	TotalBenchmarks        int          `json:"total_benchmarks"`
	ImprovedBenchmarks     int          `json:"improved_benchmarks"`
	SignificantRegressions int          `json:"significant_regressions"`
	Comparisons            []Comparison `json:"comparisons"`
}

// Compare matches results by name and compares every metric present in both.
// Results missing from base are skipped.
func Compare(base, current Summary) ComparisonSummary {
	baseResults := make(map[string]Metrics, len(base.Results))
	for _, r := range base.Results {
		baseResults[r.Name] = r
	}

	out := ComparisonSummary{
		BaseCommit:    base.CommitID,
		CurrentCommit: current.CommitID,
	}

	for _, cur := range current.Results {
		b, ok := baseResults[cur.Name]
		if !ok {
			continue
		}

		cmp := Comparison{Name: cur.Name, Category: cur.Category}
		score, n := 0.0, 0

		names := make([]string, 0, len(cur.Metrics))
		for name := range cur.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			baseValue, ok := b.Metrics[name]
			if !ok {
				continue
			}
			mc := compareMetric(name, baseValue, cur.Metrics[name])
			if mc.IsRegression && mc.IsSignificant {
				cmp.HasRegressions = true
			}
			if mc.IsImprovement {
				score += math.Abs(mc.PercentChange)
			} else if mc.IsRegression {
				score -= math.Abs(mc.PercentChange)
			}
			n++
			cmp.MetricComparisons = append(cmp.MetricComparisons, mc)
		}
		if n > 0 {
			cmp.Score = score / float64(n)
		}

		switch {
		case cmp.HasRegressions:
			cmp.OverallAssessment = "REGRESSION"
			out.SignificantRegressions++
		case cmp.Score > 0:
			cmp.OverallAssessment = "IMPROVEMENT"
			out.ImprovedBenchmarks++
		default:
			cmp.OverallAssessment = "NEUTRAL"
		}
		out.Comparisons = append(out.Comparisons, cmp)
	}

	// Worst regressions first
	sort.SliceStable(out.Comparisons, func(i, j int) bool {
		ci, cj := out.Comparisons[i], out.Comparisons[j]
		if ci.HasRegressions != cj.HasRegressions {
			return ci.HasRegressions
		}
		return ci.Score < cj.Score
	})
	out.TotalBenchmarks = len(out.Comparisons)
	return out
}

func compareMetric(name string, base, current float64) MetricComparison {
	mc := MetricComparison{Name: name, BaseValue: base, CurrentValue: current}
	if base != 0 {
		mc.PercentChange = (current - base) / base * 100
	}
	if isHigherBetterMetric(name) {
		mc.IsRegression = mc.PercentChange < 0
		mc.IsImprovement = mc.PercentChange > 0
	} else {
		mc.IsRegression = mc.PercentChange > 0
		mc.IsImprovement = mc.PercentChange < 0
	}
	mc.IsSignificant = math.Abs(mc.PercentChange) >= SignificanceThreshold
	return mc
}

// isHigherBetterMetric reports whether a larger value of the metric is an
// improvement. Everything else (ns/op, chain lengths, misses) is lower-better.
func isHigherBetterMetric(name string) bool {
	for _, pattern := range []string{"rate", "ops_per_sec", "throughput", "used_buckets"} {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}

// WriteReport prints a human-readable comparison.
func WriteReport(w io.Writer, s ComparisonSummary) {
	fmt.Fprintf(w, "Comparison: %s vs %s\n\n", shortCommit(s.BaseCommit), shortCommit(s.CurrentCommit))
	fmt.Fprintf(w, "- Total compared: %d\n", s.TotalBenchmarks)
	fmt.Fprintf(w, "- Improvements: %d\n", s.ImprovedBenchmarks)
	fmt.Fprintf(w, "- Significant regressions: %d\n", s.SignificantRegressions)

	if s.TotalBenchmarks == 0 {
		fmt.Fprintln(w, "\nNo matching results found for comparison")
		return
	}

	for _, c := range s.Comparisons {
		fmt.Fprintf(w, "\n[%s] %s (%s):\n", c.OverallAssessment, c.Name, c.Category)
		for _, mc := range c.MetricComparisons {
			if mc.PercentChange == 0 {
				continue
			}
			marker := " "
			if mc.IsSignificant && mc.IsRegression {
				marker = "-"
			} else if mc.IsSignificant && mc.IsImprovement {
				marker = "+"
			}
			fmt.Fprintf(w, "  %s %-28s %+8.2f%% (%s -> %s)\n",
				marker, mc.Name, mc.PercentChange,
				humanize.CommafWithDigits(mc.BaseValue, 2),
				humanize.CommafWithDigits(mc.CurrentValue, 2))
		}
	}
}
