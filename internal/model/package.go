package model

// FlowPackage is one purchased or allotted data allowance, normalized from a
// raw report. It is rebuilt on every accounting run and never persisted.
type FlowPackage struct {
	Name         string
	FlowType     string
	ResourceType string
	TotalMB      float64 // 0 means unlimited or public-free
	UsedMB       float64
	RemainMB     float64
	Expiry       string
	IsPublicFree bool
	Share        []ShareUsage
}

// ShareUsage is the usage of one number inside a shared allowance.
type ShareUsage struct {
	Number       string // full or masked, e.g. 186****5678
	UsedMB       float64
	CurrentLogin bool
	MainCard     bool
}
