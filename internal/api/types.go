package api

import "trashtrackr/internal/reports"

// 文档注释：提交请求体
// 约束：location 保持原始 JSON 值，交由提交校验器归一化；manual 为 true 时先做范围收敛。
type submitRequest struct {
	Types    []string `json:"types"`
	Severity string   `json:"severity"`
	Location any      `json:"location"`
	Manual   bool     `json:"manual,omitempty"`
}

type submitResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type typesResponse struct {
	Types []string `json:"types"`
}

// feedResponse：看板读取结果，records 已按 createdAt 倒序
type feedResponse struct {
	Count   int              `json:"count"`
	Records []reports.Report `json:"records"`
}
