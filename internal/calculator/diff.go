package calculator

import (
	"time"

	"FlowSentinel/internal/model"
)

// Regime is the temporal relation between a run and its baseline.
type Regime int

const (
	FirstRun Regime = iota
	CrossMonth
	SameDay
	CrossDay
)

func (r Regime) String() string {
	switch r {
	case FirstRun:
		return "first_run"
	case CrossMonth:
		return "cross_month"
	case SameDay:
		return "same_day"
	case CrossDay:
		return "cross_day"
	}
	return "unknown"
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month())
}

// DetectRegime compares now with the baseline timestamp in now's location.
func DetectRegime(prev *model.Snapshot, now time.Time) Regime {
	if prev == nil {
		return FirstRun
	}
	then := prev.Timestamp.In(now.Location())
	if monthIndex(now) > monthIndex(then) {
		return CrossMonth
	}
	y1, m1, d1 := now.Date()
	y2, m2, d2 := then.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return SameDay
	}
	return CrossDay
}

// Diff computes incremental and today usage of current against prev.
// Calendar boundaries are evaluated in now.Location().
func Diff(current model.BucketSet, prev *model.Snapshot, now time.Time) (model.DiffSet, Regime) {
	regime := DetectRegime(prev, now)
	out := model.NewDiffSet()

	for _, k := range model.BaseKeys {
		used := current[k].UsedMB
		var e model.DiffEntry
		switch regime {
		case FirstRun, CrossMonth:
			e.IncrementalMB = used
			e.TodayMB = used
		case SameDay:
			e.IncrementalMB = nonNegative(used - prev.Buckets[k].UsedMB)
			e.TodayMB = prev.Diff[k].TodayMB + e.IncrementalMB
		case CrossDay:
			e.IncrementalMB = nonNegative(used - prev.Buckets[k].UsedMB)
			e.TodayMB = e.IncrementalMB
		}
		out[k] = e
	}

	for _, k := range model.AggregateKeys {
		var agg model.DiffEntry
		for _, c := range model.Constituents(k) {
			agg.IncrementalMB += out[c].IncrementalMB
			agg.TodayMB += out[c].TodayMB
		}
		out[k] = agg
	}
	return out, regime
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
