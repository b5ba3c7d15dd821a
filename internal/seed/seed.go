// 包 seed：生成并写入演示用的合成上报（isFake=true），供地图与看板联调
package seed

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"trashtrackr/internal/geofence"
	"trashtrackr/internal/reports"
	"trashtrackr/internal/store"
)

const (
	// DefaultCount：未配置 SEED_COUNT 时的生成条数
	DefaultCount = 120
	// Jitter：锚点周围的最大偏移（度），约 150m
	Jitter = 0.0015
	// Window：createdAt 随机落在最近 30 天内
	Window = 30 * 24 * time.Hour

	pauseEvery    = 10
	progressEvery = 25
)

// Anchors：服务区内的主干道锚点
var Anchors = []geofence.Coordinate{
	{Lat: 12.9716, Lng: 77.5946},
	{Lat: 12.9791, Lng: 77.5913},
	{Lat: 12.9738, Lng: 77.6090},
	{Lat: 12.9770, Lng: 77.6200},
	{Lat: 12.9782, Lng: 77.6409},
	{Lat: 12.9260, Lng: 77.6300},
	{Lat: 12.9345, Lng: 77.6240},
	{Lat: 12.9141, Lng: 77.6411},
	{Lat: 12.9167, Lng: 77.6101},
	{Lat: 13.0097, Lng: 77.5505},
	{Lat: 13.0210, Lng: 77.6390},
	{Lat: 12.9909, Lng: 77.5697},
	{Lat: 12.9897, Lng: 77.5980},
	{Lat: 13.0358, Lng: 77.5970},
	{Lat: 12.9981, Lng: 77.7008},
	{Lat: 12.8414, Lng: 77.6633},
	{Lat: 12.8654, Lng: 77.5849},
	{Lat: 12.9606, Lng: 77.6386},
	{Lat: 12.9920, Lng: 77.6890},
	{Lat: 12.9576, Lng: 77.5666},
}

// TypePresets：常见的类型组合
var TypePresets = [][]string{
	{"Plastic"},
	{"Organic"},
	{"Mixed"},
	{"Construction"},
	{"E-Waste"},
	{"Metal"},
	{"Paper"},
	{"Other"},
	{"Plastic", "Organic"},
	{"Metal", "Plastic"},
}

// severityWeights：累计权重，Low 15 / Medium 35 / High 35 / Critical 15
var severityWeights = []struct {
	sev reports.Severity
	cum int
}{
	{reports.SeverityLow, 15},
	{reports.SeverityMedium, 50},
	{reports.SeverityHigh, 85},
	{reports.SeverityCritical, 100},
}

const (
	seedUID  = "seed-script"
	seedName = "Seeder"
)

// 文档注释：合成上报生成器
// 约束：同一随机源与时钟下输出确定；第 i 条取第 i%len(Anchors) 个锚点。
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

func NewGenerator(rnd *rand.Rand, now func() time.Time) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{rnd: rnd, now: now}
}

// Draft：生成第 i 条合成上报
func (g *Generator) Draft(i int) reports.Draft {
	anchor := Anchors[i%len(Anchors)]
	loc := geofence.Coordinate{
		Lat: anchor.Lat + (g.rnd.Float64()*2-1)*Jitter,
		Lng: anchor.Lng + (g.rnd.Float64()*2-1)*Jitter,
	}
	preset := TypePresets[g.rnd.IntN(len(TypePresets))]
	types := append([]string(nil), preset...)
	created := g.now().Add(-time.Duration(g.rnd.Int64N(int64(Window)))).UTC()
	name := seedName
	return reports.Draft{
		Types:     types,
		Severity:  g.severity(),
		Location:  loc,
		CreatedBy: &reports.Attribution{UID: seedUID, DisplayName: &name},
		IsFake:    true,
		CreatedAt: &created,
	}
}

func (g *Generator) severity() reports.Severity {
	n := g.rnd.IntN(100)
	for _, w := range severityWeights {
		if n < w.cum {
			return w.sev
		}
	}
	return reports.DefaultSeverity
}

// Result：一次写入的计数
type Result struct {
	Inserted int
	Failed   int
}

// 文档注释：顺序写入器
// 背景：逐条写入，每 10 条暂停 1 秒以避开存储写入配额；单条失败记录日志后继续。
// 约束：ctx 取消时立即返回已完成的计数与 ctx.Err()。
type Loader struct {
	Store     store.Store
	Generator *Generator
	Log       *slog.Logger
	Pause     time.Duration
	// Sleep 可替换，测试中跳过真实等待
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewLoader(st store.Store, g *Generator, l *slog.Logger) *Loader {
	return &Loader{Store: st, Generator: g, Log: l, Pause: time.Second, Sleep: sleep}
}

// Run：写入 count 条合成上报
func (ld *Loader) Run(ctx context.Context, count int) (Result, error) {
	var res Result
	ld.Log.Info("seed_start", "count", count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		id, err := ld.Store.Add(ctx, ld.Generator.Draft(i))
		if err != nil {
			res.Failed++
			ld.Log.Error("seed_insert_error", "index", i, "err", err)
		} else {
			res.Inserted++
			ld.Log.Debug("seed_insert", "id", id)
		}
		done := i + 1
		if done%progressEvery == 0 || done == count {
			ld.Log.Info("seed_progress", "done", done, "total", count)
		}
		if done%pauseEvery == 0 && done < count && ld.Pause > 0 {
			if err := ld.Sleep(ctx, ld.Pause); err != nil {
				return res, err
			}
		}
	}
	ld.Log.Info("seed_done", "inserted", res.Inserted, "failed", res.Failed)
	return res, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
