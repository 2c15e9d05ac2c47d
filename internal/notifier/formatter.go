package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"FlowSentinel/internal/model"
	"FlowSentinel/internal/units"
)

// DisplayNames maps bucket keys to their user-facing labels.
var DisplayNames = map[model.BucketKey]string{
	model.CommonLimited:     "通用有限",
	model.CommonUnlimited:   "通用不限",
	model.RegionalLimited:   "区域有限",
	model.RegionalUnlimited: "区域不限",
	model.TargetedLimited:   "定向有限",
	model.TargetedUnlimited: "定向不限",
	model.AllCommon:         "所有通用",
	model.AllTargeted:       "所有定向",
	model.AllTraffic:        "所有流量",
}

// DisplayName returns the label of a bucket key, or the key itself.
func DisplayName(k model.BucketKey) string {
	if n, ok := DisplayNames[k]; ok {
		return n
	}
	return string(k)
}

// FormatStatus formats a subscriber's latest snapshot for chat display.
// Base buckets without any allowance or usage are omitted.
func FormatStatus(subscriber string, snap *model.Snapshot, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📶 <b>%s</b>", html.EscapeString(subscriber)))
	if snap == nil {
		b.WriteString("\n\n暂无数据")
		return b.String()
	}
	if snap.PackageName != "" {
		b.WriteString(" | " + html.EscapeString(snap.PackageName))
	}
	b.WriteString("\n\n")

	for _, k := range model.AllKeys {
		bucket := snap.Buckets[k]
		diff := snap.Diff[k]
		if !k.IsAggregate() && bucket == (model.Bucket{}) && diff == (model.DiffEntry{}) {
			continue
		}
		if k == model.AllCommon {
			b.WriteString("  ─────────────────\n")
		}
		b.WriteString(fmt.Sprintf("%s: 总 %s 用 %s 剩 %s | 新增 %s 今日 %s\n",
			DisplayName(k),
			units.FormatBucketValue(bucket.TotalMB, bucket.Unlimited()),
			units.Format(bucket.UsedMB),
			units.FormatBucketValue(bucket.RemainMB, bucket.Unlimited()),
			units.Format(diff.IncrementalMB),
			units.Format(diff.TodayMB),
		))
	}

	if loc == nil {
		loc = time.Local
	}
	b.WriteString(fmt.Sprintf("\n更新时间: %s", snap.Timestamp.In(loc).Format("2006-01-02 15:04")))
	return b.String()
}
