package maintenance

import (
	"strings"

	"trashtrackr/internal/geofence"
	"trashtrackr/internal/reports"
	"trashtrackr/internal/store"
)

// PurgeSynthetic：删除全部 isFake == true 的文档
func PurgeSynthetic() Job {
	return Job{
		Name:   "purge-synthetic",
		Source: SyntheticDocuments,
		Decide: func(store.Document) Decision { return Decision{Action: Delete} },
	}
}

// PurgeOutsideRadius：删除服务半径外的文档；坐标无效视为在外
func PurgeOutsideRadius(f *geofence.Fence) Job {
	return Job{
		Name: "purge-outside-radius",
		Decide: func(d store.Document) Decision {
			if f.WithinServiceRadius(d.Data[reports.FieldLocation]) {
				return Decision{}
			}
			return Decision{Action: Delete}
		},
	}
}

// PurgeOutsideBounds：删除行政区包围盒外的文档；坐标无效视为在外
func PurgeOutsideBounds(f *geofence.Fence) Job {
	return Job{
		Name: "purge-outside-bounds",
		Decide: func(d store.Document) Decision {
			if f.WithinAdminBounds(d.Data[reports.FieldLocation]) {
				return Decision{}
			}
			return Decision{Action: Delete}
		},
	}
}

// BannedTokens：屏蔽词集合，比较前统一小写并去除首尾空白
type BannedTokens []string

func NewBannedTokens(raw []string) BannedTokens {
	out := make(BannedTokens, 0, len(raw))
	for _, t := range raw {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Matches：完全相等或包含任一屏蔽词即命中（子串匹配，可能误伤合法类型）
func (b BannedTokens) Matches(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return false
	}
	for _, t := range b {
		if v == t || strings.Contains(v, t) {
			return true
		}
	}
	return false
}

// Sanitize：返回剔除屏蔽词后的类型序列与是否命中
// 约束：只剔除命中的字符串，其余元素（含空串与非字符串）原样保留；未命中时调用方应跳过该文档。
func (b BannedTokens) Sanitize(raw any) ([]any, bool) {
	hit := false
	kept := []any{}
	for _, t := range typeEntries(raw) {
		if s, ok := t.(string); ok && b.Matches(s) {
			hit = true
			continue
		}
		kept = append(kept, t)
	}
	return kept, hit
}

// typeEntries：types 不是数组时视为空
func typeEntries(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, 0, len(v))
		for _, s := range v {
			out = append(out, s)
		}
		return out
	}
	return nil
}

// SanitizeTypes：剔除命中屏蔽词的类型；全部剔除时删除整条文档，未命中则跳过
func SanitizeTypes(tokens BannedTokens) Job {
	return Job{
		Name: "sanitize-types",
		Decide: func(d store.Document) Decision {
			kept, hit := tokens.Sanitize(d.Data[reports.FieldTypes])
			switch {
			case !hit:
				return Decision{}
			case len(kept) == 0:
				return Decision{Action: Delete}
			}
			return Decision{Action: Rewrite, Types: kept}
		},
	}
}
