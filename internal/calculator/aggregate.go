package calculator

import "FlowSentinel/internal/model"

// Aggregate returns a copy of set with the three roll-up buckets computed
// from the base buckets. The remain of an unlimited constituent is never
// added to an aggregate's remain.
func Aggregate(set model.BucketSet) model.BucketSet {
	out := set.Clone()
	for _, k := range model.AggregateKeys {
		var agg model.Bucket
		for _, c := range model.Constituents(k) {
			b := out[c]
			agg.TotalMB += b.TotalMB
			agg.UsedMB += b.UsedMB
			if !b.Unlimited() {
				agg.RemainMB += b.RemainMB
			}
		}
		out[k] = agg
	}
	return out
}
