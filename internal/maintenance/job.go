// 包 maintenance：离线维护任务（扫描、筛选、逐条删除或改写），顺序执行且可重复运行
package maintenance

import (
	"context"
	"fmt"
	"log/slog"

	"trashtrackr/internal/metrics"
	"trashtrackr/internal/store"
)

// Action：单条文档的处理动作
type Action int

const (
	Skip Action = iota
	Delete
	Rewrite
)

func (a Action) String() string {
	switch a {
	case Delete:
		return "delete"
	case Rewrite:
		return "rewrite"
	}
	return "skip"
}

// Decision：Rewrite 时 Types 为改写后的完整类型序列
type Decision struct {
	Action Action
	Types  []any
}

// Source：任务扫描的文档集合
type Source int

const (
	AllDocuments Source = iota
	SyntheticDocuments
)

// 文档注释：维护任务
// 背景：各清理脚本共享“全量读取 → 逐条判定 → 逐条执行”的骨架，差异只在数据来源与判定函数。
// 约束：严格顺序执行，同一时刻只有一个写请求在途；读取失败或 ctx 取消中止整批，单条写失败记录后继续。
type Job struct {
	Name   string
	Source Source
	Decide func(store.Document) Decision
}

// Result：一次运行的计数
type Result struct {
	Scanned    int
	Candidates int
	Deleted    int
	Rewritten  int
	Failed     int
}

func (j Job) Run(ctx context.Context, st store.Store, l *slog.Logger) (Result, error) {
	var res Result
	l = l.With("job", j.Name)
	docs, err := j.fetch(ctx, st)
	if err != nil {
		l.Error("job_fetch_error", "err", err)
		return res, fmt.Errorf("%s: fetch documents: %w", j.Name, err)
	}
	res.Scanned = len(docs)

	type planned struct {
		id string
		d  Decision
	}
	var plan []planned
	for _, doc := range docs {
		if d := j.Decide(doc); d.Action != Skip {
			plan = append(plan, planned{id: doc.ID, d: d})
		}
	}
	res.Candidates = len(plan)
	l.Info("job_start", "scanned", res.Scanned, "candidates", res.Candidates)

	for i, p := range plan {
		if err := ctx.Err(); err != nil {
			l.Error("job_interrupted", "done", i, "candidates", len(plan), "err", err)
			return res, fmt.Errorf("%s: interrupted after %d/%d: %w", j.Name, i, len(plan), err)
		}
		var err error
		switch p.d.Action {
		case Delete:
			err = st.Delete(ctx, p.id)
		case Rewrite:
			err = st.SetTypes(ctx, p.id, p.d.Types)
		}
		if err != nil {
			res.Failed++
			metrics.JobFailuresTotal.WithLabelValues(j.Name).Inc()
			l.Error("job_"+p.d.Action.String()+"_error", "id", p.id, "err", err)
			continue
		}
		metrics.JobActionsTotal.WithLabelValues(j.Name, p.d.Action.String()).Inc()
		if p.d.Action == Delete {
			res.Deleted++
		} else {
			res.Rewritten++
		}
		l.Info("job_"+p.d.Action.String(), "id", p.id, "progress", fmt.Sprintf("%d/%d", i+1, len(plan)), "deleted", res.Deleted, "rewritten", res.Rewritten)
	}
	if err := ctx.Err(); err != nil {
		l.Error("job_interrupted", "done", len(plan), "candidates", len(plan), "err", err)
		return res, fmt.Errorf("%s: interrupted: %w", j.Name, err)
	}
	l.Info("job_done", "scanned", res.Scanned, "deleted", res.Deleted, "rewritten", res.Rewritten, "failed", res.Failed)
	return res, nil
}

func (j Job) fetch(ctx context.Context, st store.Store) ([]store.Document, error) {
	if j.Source == SyntheticDocuments {
		return st.Synthetic(ctx)
	}
	return st.All(ctx)
}
