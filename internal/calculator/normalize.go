package calculator

import (
	"strings"

	"FlowSentinel/internal/model"
)

// Normalize flattens the three report collections into FlowPackages, in the
// order shared, owned, public-free. phone is the subscriber's full number and
// selects its entry from shared vice-card usage lists.
func Normalize(report *model.RawReport, phone string) []model.FlowPackage {
	if report == nil {
		return []model.FlowPackage{}
	}
	pkgs := make([]model.FlowPackage, 0)
	for _, g := range report.Shared {
		for _, d := range g.Details {
			if p, ok := normalizeDetail(g, d); ok {
				if len(p.Share) > 0 {
					p.UsedMB = shareUsage(p.Share, phone)
				}
				pkgs = append(pkgs, p)
			}
		}
	}
	for _, g := range report.Owned {
		for _, d := range g.Details {
			if p, ok := normalizeDetail(g, d); ok {
				pkgs = append(pkgs, p)
			}
		}
	}
	for _, g := range report.PublicFree {
		for _, d := range g.Details {
			p, ok := normalizeDetail(g, d)
			if !ok {
				continue
			}
			p.IsPublicFree = true
			p.ResourceType = ResourceTargetedFree
			p.TotalMB = 0
			p.RemainMB = 0
			pkgs = append(pkgs, p)
		}
	}
	return pkgs
}

// normalizeDetail converts one raw detail. Records without any type code are
// incomplete and dropped.
func normalizeDetail(g model.RawGroup, d model.RawDetail) (model.FlowPackage, bool) {
	flowType := strings.TrimSpace(d.FlowType)
	resourceType := strings.TrimSpace(d.ResourceType)
	if flowType == "" && resourceType == "" {
		return model.FlowPackage{}, false
	}
	name := d.Name
	if name == "" {
		name = g.Name
	}
	p := model.FlowPackage{
		Name:         name,
		FlowType:     flowType,
		ResourceType: resourceType,
		TotalMB:      d.Total.Float(),
		UsedMB:       d.Used.Float(),
		RemainMB:     d.Remain.Float(),
		Expiry:       d.EndDate,
	}
	for _, v := range d.ViceCards {
		p.Share = append(p.Share, model.ShareUsage{
			Number:       strings.TrimSpace(v.Number),
			UsedMB:       v.Used.Float(),
			CurrentLogin: bool(v.CurrentLogin),
			MainCard:     bool(v.MainCard),
		})
	}
	return p, true
}

// shareUsage returns the subscriber's own usage from a shared allowance.
// Without a phone number the entry flagged as the current login is used.
func shareUsage(share []model.ShareUsage, phone string) float64 {
	phone = digits(phone)
	for _, s := range share {
		if phone != "" {
			if MatchPhone(s.Number, phone) {
				return s.UsedMB
			}
			continue
		}
		if s.CurrentLogin {
			return s.UsedMB
		}
	}
	return 0
}

// MatchPhone reports whether candidate, a full or masked number such as
// 186****5678, refers to phone.
func MatchPhone(candidate, phone string) bool {
	candidate = strings.TrimSpace(candidate)
	phone = digits(phone)
	if candidate == "" || phone == "" {
		return false
	}
	if !strings.Contains(candidate, "*") {
		return digits(candidate) == phone
	}
	if len(candidate) != len(phone) || len(phone) < 7 {
		return false
	}
	head, tail := candidate[:3], candidate[len(candidate)-4:]
	if strings.Contains(head, "*") || strings.Contains(tail, "*") {
		return false
	}
	return head == phone[:3] && tail == phone[len(phone)-4:]
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
