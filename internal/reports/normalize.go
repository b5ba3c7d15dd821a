package reports

import (
	"time"

	"trashtrackr/internal/geofence"
)

// 文档注释：远端文档归一化
// 背景：存储中的文档类型不可信；此处是唯一的解析边界，之后只流转强类型 Report。
// 约束：坐标无效时返回 false（静默丢弃，不视为错误）；其余字段容错：
//   - severity 无法识别时取 Medium
//   - types 仅保留非空字符串，非数组视为空
//   - createdBy 仅在为结构化对象时保留，子字段类型不符时置空
//   - createdAt 仅接受时间值（各后端负责把原生时间戳转换为 time.Time），否则为 nil
func Normalize(data map[string]any, id string) (Report, bool) {
	loc, ok := geofence.NormalizeCoordinate(asMap(data[FieldLocation]))
	if !ok {
		return Report{}, false
	}
	sev, ok := data[FieldSeverity].(string)
	severity, valid := ParseSeverity(sev)
	if !ok || !valid {
		severity = DefaultSeverity
	}
	return Report{
		ID:        id,
		Types:     StringTypes(data[FieldTypes]),
		Severity:  severity,
		Location:  loc,
		CreatedAt: timestamp(data[FieldCreatedAt]),
		CreatedBy: attribution(data[FieldCreatedBy]),
	}, true
}

// StringTypes：提取 types 中的非空字符串，保持原顺序
func StringTypes(raw any) []string {
	out := []string{}
	switch v := raw.(type) {
	case []string:
		for _, s := range v {
			if s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, x := range v {
			if s, ok := x.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func asMap(raw any) any {
	switch v := raw.(type) {
	case map[string]any:
		return v
	case map[string]float64:
		return v
	case geofence.Coordinate, *geofence.Coordinate:
		return v
	}
	return nil
}

func timestamp(raw any) *time.Time {
	switch v := raw.(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return &v
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		t := *v
		return &t
	}
	return nil
}

func attribution(raw any) *Attribution {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	uid, _ := m["uid"].(string)
	return &Attribution{
		UID:         uid,
		DisplayName: optString(m["displayName"]),
		Email:       optString(m["email"]),
		PhotoURL:    optString(m["photoURL"]),
	}
}

func optString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}
