// 包 projection：实时投影，把存储推送的完整快照转换为有序、已校验的上报序列
package projection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"trashtrackr/internal/metrics"
	"trashtrackr/internal/reports"
	"trashtrackr/internal/store"
)

// Unsubscribe：终止订阅，可重复调用
type Unsubscribe func()

// 文档注释：实时投影
// 背景：存储每次变更都推送全量快照（createdAt 倒序）；此处逐条归一化、丢弃无效文档后整体替换下游内容。
// 约束：不做增量合并与跨快照缓存；去重仅依赖存储的文档 ID；订阅无需登录态。
type Projection struct {
	store store.Store
	log   *slog.Logger
}

func New(s store.Store, l *slog.Logger) *Projection {
	return &Projection{store: s, log: l}
}

// Subscribe：建立持续订阅；onError 可为 nil
func (p *Projection) Subscribe(ctx context.Context, onUpdate func([]reports.Report), onError func(error)) (Unsubscribe, error) {
	stop, err := p.store.Watch(ctx, func(docs []store.Document) {
		recs := Project(docs)
		dropped := len(docs) - len(recs)
		metrics.ProjectionSnapshotsTotal.Inc()
		metrics.ProjectionDroppedTotal.Add(float64(dropped))
		metrics.ProjectionRecords.Set(float64(len(recs)))
		p.log.Debug("projection_snapshot", "docs", len(docs), "records", len(recs), "dropped", dropped)
		onUpdate(recs)
	}, func(err error) {
		metrics.ProjectionErrorsTotal.Inc()
		p.log.Error("projection_watch_error", "err", err)
		if onError != nil {
			onError(err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe reports: %w", err)
	}
	var once sync.Once
	return func() { once.Do(stop) }, nil
}

// Project：按快照顺序归一化文档，丢弃无效项
func Project(docs []store.Document) []reports.Report {
	out := make([]reports.Report, 0, len(docs))
	for _, d := range docs {
		if r, ok := reports.Normalize(d.Data, d.ID); ok {
			out = append(out, r)
		}
	}
	return out
}
