// 包 reports：垃圾上报的领域模型与远端文档归一化
package reports

import (
	"time"

	"trashtrackr/internal/geofence"
)

// Severity：严重程度枚举（大小写敏感）
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// DefaultSeverity：读取时无法识别的严重程度回退值
const DefaultSeverity = SeverityMedium

// Severities：按等级从低到高排列
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// ParseSeverity：识别四种合法取值，其余返回 false
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(s), true
	}
	return "", false
}

// WasteTypes：已知的垃圾类型词表；上报可以扩展此词表
var WasteTypes = []string{
	"Plastic",
	"Organic",
	"Construction Debris",
	"E-waste",
	"Glass",
	"Metal",
	"Paper",
	"Textile",
	"Hazardous",
	"Mixed",
}

// Attribution：提交者快照，提交时从已登录主体复制，之后不再校验
type Attribution struct {
	UID         string  `json:"uid"`
	DisplayName *string `json:"displayName"`
	Email       *string `json:"email"`
	PhotoURL    *string `json:"photoURL"`
}

// 文档注释：上报记录
// 背景：远端文档经 Normalize 校验后的强类型视图；除维护任务外不修改。
// 约束：Location 必须有效；Types 读取时允许为空；CreatedAt 在存储提交前为 nil。
type Report struct {
	ID        string              `json:"id"`
	Types     []string            `json:"types"`
	Severity  Severity            `json:"severity"`
	Location  geofence.Coordinate `json:"location"`
	CreatedAt *time.Time          `json:"createdAt"`
	CreatedBy *Attribution        `json:"createdBy,omitempty"`
}

// HasType：是否包含指定类型（精确匹配）
func (r Report) HasType(t string) bool {
	for _, x := range r.Types {
		if x == t {
			return true
		}
	}
	return false
}

// 文档注释：待写入的上报草稿
// 约束：CreatedAt 为 nil 时由存储分配服务端时间；仅种子数据会显式指定时间。
type Draft struct {
	Types     []string
	Severity  Severity
	Location  geofence.Coordinate
	CreatedBy *Attribution
	IsFake    bool
	CreatedAt *time.Time
}

// 存储文档字段名
const (
	FieldTypes     = "types"
	FieldSeverity  = "severity"
	FieldLocation  = "location"
	FieldCreatedAt = "createdAt"
	FieldCreatedBy = "createdBy"
	FieldIsFake    = "isFake"
)

// Fields：草稿转换为存储无关的字段表（createdAt 由各后端处理）
func (d Draft) Fields() map[string]any {
	types := make([]any, 0, len(d.Types))
	for _, t := range d.Types {
		types = append(types, t)
	}
	m := map[string]any{
		FieldTypes:    types,
		FieldSeverity: string(d.Severity),
		FieldLocation: map[string]any{"lat": d.Location.Lat, "lng": d.Location.Lng},
	}
	if d.CreatedBy != nil {
		m[FieldCreatedBy] = d.CreatedBy.fields()
	}
	if d.IsFake {
		m[FieldIsFake] = true
	}
	return m
}

func (a *Attribution) fields() map[string]any {
	m := map[string]any{"uid": a.UID, "displayName": nil, "email": nil, "photoURL": nil}
	if a.DisplayName != nil {
		m["displayName"] = *a.DisplayName
	}
	if a.Email != nil {
		m["email"] = *a.Email
	}
	if a.PhotoURL != nil {
		m["photoURL"] = *a.PhotoURL
	}
	return m
}
