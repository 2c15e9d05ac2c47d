package model

// BucketKey identifies one of the six base buckets or three aggregates.
type BucketKey string

const (
	CommonLimited     BucketKey = "common_limited"
	CommonUnlimited   BucketKey = "common_unlimited"
	RegionalLimited   BucketKey = "regional_limited"
	RegionalUnlimited BucketKey = "regional_unlimited"
	TargetedLimited   BucketKey = "targeted_limited"
	TargetedUnlimited BucketKey = "targeted_unlimited"

	AllCommon   BucketKey = "all_common"
	AllTargeted BucketKey = "all_targeted"
	AllTraffic  BucketKey = "all_traffic"
)

// BaseKeys lists the leaf buckets in display order.
var BaseKeys = []BucketKey{
	CommonLimited, CommonUnlimited,
	RegionalLimited, RegionalUnlimited,
	TargetedLimited, TargetedUnlimited,
}

// AggregateKeys lists the roll-up buckets in display order.
var AggregateKeys = []BucketKey{AllCommon, AllTargeted, AllTraffic}

// AllKeys lists every bucket, base first.
var AllKeys = append(append([]BucketKey{}, BaseKeys...), AggregateKeys...)

// Constituents returns the base buckets summed into an aggregate, or nil
// for a base key.
func Constituents(k BucketKey) []BucketKey {
	switch k {
	case AllCommon:
		return []BucketKey{CommonLimited, CommonUnlimited, RegionalLimited, RegionalUnlimited}
	case AllTargeted:
		return []BucketKey{TargetedLimited, TargetedUnlimited}
	case AllTraffic:
		return BaseKeys
	}
	return nil
}

// IsAggregate reports whether k is one of the roll-up buckets.
func (k BucketKey) IsAggregate() bool {
	return k == AllCommon || k == AllTargeted || k == AllTraffic
}

// Valid reports whether k is a known bucket key.
func (k BucketKey) Valid() bool {
	for _, v := range AllKeys {
		if v == k {
			return true
		}
	}
	return false
}

// Bucket is an allowance/usage/remaining triple in megabytes.
// For an unlimited bucket TotalMB is 0 and RemainMB is meaningless.
type Bucket struct {
	TotalMB  float64 `json:"total"`
	UsedMB   float64 `json:"used"`
	RemainMB float64 `json:"remain"`
}

// Unlimited reports whether the bucket carries no finite quota.
func (b Bucket) Unlimited() bool { return b.TotalMB == 0 }

// BucketSet maps every BucketKey to its bucket.
type BucketSet map[BucketKey]Bucket

// NewBucketSet returns a set with all nine keys zero-valued.
func NewBucketSet() BucketSet {
	s := make(BucketSet, len(AllKeys))
	for _, k := range AllKeys {
		s[k] = Bucket{}
	}
	return s
}

// Clone returns a copy of the set with any missing key filled with zero.
func (s BucketSet) Clone() BucketSet {
	out := NewBucketSet()
	for k, v := range s {
		out[k] = v
	}
	return out
}

// DiffEntry holds usage since the last baseline and since local midnight.
type DiffEntry struct {
	IncrementalMB float64 `json:"incremental"`
	TodayMB       float64 `json:"today"`
}

// DiffSet maps every BucketKey to its diff entry.
type DiffSet map[BucketKey]DiffEntry

// NewDiffSet returns a set with all nine keys zero-valued.
func NewDiffSet() DiffSet {
	s := make(DiffSet, len(AllKeys))
	for _, k := range AllKeys {
		s[k] = DiffEntry{}
	}
	return s
}

// Clone returns a copy of the set with any missing key filled with zero.
func (s DiffSet) Clone() DiffSet {
	out := NewDiffSet()
	for k, v := range s {
		out[k] = v
	}
	return out
}
