package calculator

import "FlowSentinel/internal/model"

// Carrier type codes.
const (
	FlowTypeGeneral      = "1"
	FlowTypeDirectional  = "2"
	FlowTypeRegional     = "3"
	ResourceNationwide   = "11"
	ResourceTargetedFree = "13"
)

// Category is the allowance family a package belongs to.
type Category string

const (
	CategoryCommon   Category = "common"
	CategoryRegional Category = "regional"
	CategoryTargeted Category = "targeted"
)

// Classification is the bucket assignment of one package.
type Classification struct {
	Category Category
	Limited  bool
	// Skip marks zero-value courtesy records that count toward no bucket.
	Skip bool
}

// Key returns the base bucket for the classification.
func (c Classification) Key() model.BucketKey {
	switch c.Category {
	case CategoryRegional:
		if c.Limited {
			return model.RegionalLimited
		}
		return model.RegionalUnlimited
	case CategoryTargeted:
		if c.Limited {
			return model.TargetedLimited
		}
		return model.TargetedUnlimited
	default:
		if c.Limited {
			return model.CommonLimited
		}
		return model.CommonUnlimited
	}
}

func isDirectional(flowType string) bool {
	return flowType == FlowTypeDirectional || flowType == FlowTypeRegional
}

// Classify assigns a package to a category. Unrecognized code combinations
// fall back to common.
func Classify(p model.FlowPackage) Classification {
	c := Classification{
		Category: CategoryCommon,
		Limited:  p.TotalMB > 0,
		Skip:     p.TotalMB == 0 && p.RemainMB == 0 && !p.IsPublicFree,
	}
	switch {
	case p.IsPublicFree || p.ResourceType == ResourceTargetedFree:
		c.Category = CategoryTargeted
	case p.FlowType == FlowTypeGeneral && p.ResourceType == ResourceNationwide:
		c.Category = CategoryCommon
	case isDirectional(p.FlowType) && p.ResourceType == ResourceNationwide:
		c.Category = CategoryRegional
	}
	return c
}

// Accumulate sums packages into their base buckets. The returned set is fully
// populated; aggregates stay zero until Aggregate is applied.
func Accumulate(pkgs []model.FlowPackage) model.BucketSet {
	set := model.NewBucketSet()
	for _, p := range pkgs {
		c := Classify(p)
		if c.Skip {
			continue
		}
		k := c.Key()
		b := set[k]
		b.TotalMB += p.TotalMB
		b.UsedMB += p.UsedMB
		b.RemainMB += p.RemainMB
		set[k] = b
	}
	return set
}
