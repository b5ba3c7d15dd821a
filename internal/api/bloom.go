package api

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"

	"trashtrackr/internal/metrics"
)

// 文档注释：计算布隆过滤器位置
// 参数：data 为参与哈希的字节序列，m 为位图大小，k 为哈希次数（控制误判率与写入开销）。
// 背景：使用 FNV64a 结合索引扰动生成 k 个位置，用于 GetBit/SetBit。
func bloomPositions(data []byte, m uint32, k int) []int64 {
	pos := make([]int64, k)
	for i := 0; i < k; i++ {
		h := fnv.New64a()
		h.Write([]byte{byte(i)})
		h.Write(data)
		pos[i] = int64(uint32(h.Sum64() % uint64(m)))
	}
	return pos
}

// 文档注释：短周期重复提交过滤
// 背景：同一用户在 TTL 内提交完全相同的内容视为重复（双击、弱网重发）；每个用户一张位图。
// 约束：先查后写，写入只在存储成功之后进行，校验失败的请求不会占位；rc 为 nil 时不做过滤。
// 异常：Redis 错误时放行，避免阻断提交主流程。
type Deduper struct {
	rc  *redis.Client
	ttl time.Duration
	m   uint32
	k   int
}

func NewDeduper(rc *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{rc: rc, ttl: ttl, m: 1 << 16, k: 4}
}

func (d *Deduper) enabled() bool { return d != nil && d.rc != nil && d.ttl > 0 }

func dedupeKey(uid string) string { return "trashtrackr:dedupe:" + uid }

// Seen：位图中 k 个位置均已置位即视为见过
func (d *Deduper) Seen(ctx context.Context, uid string, payload []byte) bool {
	if !d.enabled() {
		return false
	}
	for _, p := range bloomPositions(payload, d.m, d.k) {
		b, err := d.rc.GetBit(ctx, dedupeKey(uid), p).Result()
		if err != nil {
			metrics.RedisErrorsTotal.Inc()
			return false
		}
		if b == 0 {
			return false
		}
	}
	return true
}

// Mark：写入位图并刷新过期时间
func (d *Deduper) Mark(ctx context.Context, uid string, payload []byte) {
	if !d.enabled() {
		return
	}
	key := dedupeKey(uid)
	pipe := d.rc.TxPipeline()
	for _, p := range bloomPositions(payload, d.m, d.k) {
		pipe.SetBit(ctx, key, p, 1)
	}
	pipe.Expire(ctx, key, d.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RedisErrorsTotal.Inc()
	}
}
