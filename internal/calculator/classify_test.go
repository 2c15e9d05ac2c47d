package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FlowSentinel/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		pkg  model.FlowPackage
		key  model.BucketKey
		skip bool
	}{
		{"general nationwide limited", model.FlowPackage{FlowType: "1", ResourceType: "11", TotalMB: 1024, RemainMB: 1024}, model.CommonLimited, false},
		{"general nationwide unlimited", model.FlowPackage{FlowType: "1", ResourceType: "11", UsedMB: 50, RemainMB: -1}, model.CommonUnlimited, false},
		{"directional nationwide", model.FlowPackage{FlowType: "2", ResourceType: "11", TotalMB: 2048, RemainMB: 2000}, model.RegionalLimited, false},
		{"regional code", model.FlowPackage{FlowType: "3", ResourceType: "11", UsedMB: 1, RemainMB: 1}, model.RegionalUnlimited, false},
		{"directional targeted", model.FlowPackage{FlowType: "2", ResourceType: "13", TotalMB: 30720, RemainMB: 30000}, model.TargetedLimited, false},
		{"targeted regardless of flow", model.FlowPackage{FlowType: "1", ResourceType: "13", TotalMB: 100, RemainMB: 100}, model.TargetedLimited, false},
		{"public free", model.FlowPackage{FlowType: "1", ResourceType: "13", UsedMB: 42, IsPublicFree: true}, model.TargetedUnlimited, false},
		{"unknown codes default common", model.FlowPackage{FlowType: "9", ResourceType: "99", TotalMB: 10, RemainMB: 10}, model.CommonLimited, false},
		{"courtesy zero record", model.FlowPackage{FlowType: "1", ResourceType: "11", UsedMB: 5}, model.CommonUnlimited, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.pkg)
			assert.Equal(t, tt.key, c.Key())
			assert.Equal(t, tt.skip, c.Skip)
			assert.Equal(t, c, Classify(tt.pkg), "classification must be idempotent")
		})
	}
}

func TestAccumulate(t *testing.T) {
	pkgs := []model.FlowPackage{
		{FlowType: "1", ResourceType: "11", TotalMB: 1024, UsedMB: 100, RemainMB: 924},
		{FlowType: "1", ResourceType: "11", TotalMB: 2048, UsedMB: 48, RemainMB: 2000},
		{FlowType: "1", ResourceType: "11", UsedMB: 7},
		{FlowType: "1", ResourceType: "13", UsedMB: 42, IsPublicFree: true},
	}
	set := Accumulate(pkgs)
	assert.Len(t, set, len(model.AllKeys))
	assert.Equal(t, model.Bucket{TotalMB: 3072, UsedMB: 148, RemainMB: 2924}, set[model.CommonLimited])
	assert.Equal(t, model.Bucket{}, set[model.CommonUnlimited], "courtesy record skipped")
	assert.Equal(t, model.Bucket{UsedMB: 42}, set[model.TargetedUnlimited])
	assert.Equal(t, model.Bucket{}, set[model.AllTraffic])
}
