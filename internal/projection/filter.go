package projection

import (
	"sort"

	"trashtrackr/internal/geofence"
	"trashtrackr/internal/reports"
)

// SeverityAll：严重程度筛选的“不限”取值
const SeverityAll = "All"

// Filter：看板筛选条件
// 约束：Severity 为空或 All 时不限；Types 中的每一项都必须出现在记录里。
type Filter struct {
	Severity string
	Types    []string
}

func (f Filter) Match(r reports.Report) bool {
	if f.Severity != "" && f.Severity != SeverityAll && string(r.Severity) != f.Severity {
		return false
	}
	for _, t := range f.Types {
		if !r.HasType(t) {
			return false
		}
	}
	return true
}

// Apply：保序筛选，返回新切片
func (f Filter) Apply(recs []reports.Report) []reports.Report {
	out := make([]reports.Report, 0, len(recs))
	for _, r := range recs {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// AllTypes：当前记录中出现过的全部类型，升序去重
func AllTypes(recs []reports.Report) []string {
	set := map[string]struct{}{}
	for _, r := range recs {
		for _, t := range r.Types {
			set[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// WithinRadius：看板只展示服务半径内的记录
func WithinRadius(f *geofence.Fence, recs []reports.Report) []reports.Report {
	out := make([]reports.Report, 0, len(recs))
	for _, r := range recs {
		if f.WithinServiceRadius(r.Location) {
			out = append(out, r)
		}
	}
	return out
}
