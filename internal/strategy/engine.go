package strategy

import (
	"time"

	"FlowSentinel/internal/calculator"
	"FlowSentinel/internal/model"
)

// Result is the output of one accounting run.
type Result struct {
	Packages []model.FlowPackage
	Snapshot *model.Snapshot
	Regime   calculator.Regime
}

// Evaluate runs the accounting pipeline on a raw report: normalize, classify
// into base buckets, aggregate, then diff against prev. Incremental usage is
// measured against prev, today usage against prev's latest observation. It
// keeps no state and never mutates prev.
func Evaluate(report *model.RawReport, phone string, prev *model.Snapshot, now time.Time) *Result {
	pkgs := calculator.Normalize(report, phone)
	buckets := calculator.Aggregate(calculator.Accumulate(pkgs))
	diff, regime := calculator.Diff(buckets, prev, now)
	if last := prev.Observed(); last != prev && (regime == calculator.SameDay || regime == calculator.CrossDay) {
		today, _ := calculator.Diff(buckets, last, now)
		for k, e := range diff {
			e.TodayMB = today[k].TodayMB
			diff[k] = e
		}
	}

	snap := &model.Snapshot{
		Timestamp: now.UTC(),
		Date:      now.Format(model.DateLayout),
		Buckets:   buckets,
		Diff:      diff,
	}
	if report != nil {
		snap.PackageName = report.PackageName
	}
	return &Result{
		Packages: pkgs,
		Snapshot: snap,
		Regime:   regime,
	}
}
