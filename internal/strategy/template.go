package strategy

import (
	"strings"
	"time"

	"FlowSentinel/internal/calculator"
	"FlowSentinel/internal/model"
	"FlowSentinel/internal/units"
)

// Default templates used when a policy leaves one empty.
const (
	DefaultTitle    = "[package]"
	DefaultSubtitle = "距上次通知 [elapsed]，通用流量新增 [all_common.incremental]"
	DefaultBody     = "通用: 已用 [all_common.used] 剩余 [all_common.remain] 今日 [all_common.today]\n" +
		"定向: 已用 [all_targeted.used] 剩余 [all_targeted.remain] 今日 [all_targeted.today]\n" +
		"更新时间 [time]"
)

// RenderContext carries the values substituted into templates.
type RenderContext struct {
	Snapshot *model.Snapshot
	Baseline *model.Snapshot // nil on first run
	Regime   calculator.Regime
	Now      time.Time
}

// Render substitutes the placeholder vocabulary into the policy templates.
// Unknown placeholders are left as they are.
func Render(policy model.NotifyPolicy, rc RenderContext) model.Message {
	r := strings.NewReplacer(placeholders(rc)...)
	return model.Message{
		Title:    r.Replace(orDefault(policy.TitleTemplate, DefaultTitle)),
		Subtitle: r.Replace(orDefault(policy.SubtitleTemplate, DefaultSubtitle)),
		Body:     r.Replace(orDefault(policy.BodyTemplate, DefaultBody)),
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func placeholders(rc RenderContext) []string {
	snap := rc.Snapshot
	if snap == nil {
		snap = &model.Snapshot{}
	}
	elapsed := "首次"
	if rc.Baseline != nil {
		elapsed = units.FormatElapsed(rc.Now.Sub(rc.Baseline.Timestamp))
	}
	pairs := []string{
		"[package]", snap.PackageName,
		"[elapsed]", elapsed,
		"[time]", rc.Now.Format("15:04"),
		"[regime]", rc.Regime.String(),
	}
	for _, k := range model.AllKeys {
		b := snap.Buckets[k]
		d := snap.Diff[k]
		prefix := "[" + string(k) + "."
		pairs = append(pairs,
			prefix+"total]", units.FormatBucketValue(b.TotalMB, b.Unlimited()),
			prefix+"used]", units.Format(b.UsedMB),
			prefix+"remain]", units.FormatBucketValue(b.RemainMB, b.Unlimited()),
			prefix+"incremental]", units.Format(d.IncrementalMB),
			prefix+"today]", units.Format(d.TodayMB),
		)
	}
	return pairs
}
