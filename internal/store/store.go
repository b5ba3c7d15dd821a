// 包 store: 上报文档的存储端口，屏蔽 Firestore / MongoDB / PostgreSQL / 内存实现差异
package store

import (
	"context"
	"errors"

	"trashtrackr/internal/reports"
)

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks Store

// ErrNotFound：删除或改写的文档不存在
var ErrNotFound = errors.New("document not found")

// Document：存储返回的原始文档，Data 未经校验，须经 reports.Normalize 才能使用
// 约束：createdAt 字段已由后端转换为 time.Time（未提交时缺失或为 nil）。
type Document struct {
	ID   string
	Data map[string]any
}

// 文档注释：存储端口
// 背景：提交校验、实时投影与维护任务共享同一远端集合；通过构造注入以便替换为测试实现。
// 约束：
//   - Add 由存储分配 ID 与服务端时间（Draft.CreatedAt 非空时除外）
//   - All/Synthetic 为全量读取，不分页
//   - Delete/SetTypes 为单文档整体删除或单字段覆盖，不做部分合并；SetTypes 原样写入各元素（可含非字符串）
//   - Watch 每次变更推送完整快照（按 createdAt 倒序，空值靠后）；返回的 stop 可重复调用
type Store interface {
	Add(ctx context.Context, d reports.Draft) (string, error)
	All(ctx context.Context) ([]Document, error)
	Synthetic(ctx context.Context) ([]Document, error)
	Delete(ctx context.Context, id string) error
	SetTypes(ctx context.Context, id string, types []any) error
	Watch(ctx context.Context, onSnapshot func([]Document), onError func(error)) (stop func(), error)
	Close() error
}
