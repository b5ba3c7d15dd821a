package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"trashtrackr/internal/metrics"
)

// ErrLocked：同名任务正在其他进程中运行
var ErrLocked = errors.New("job already running")

// releaseScript：仅当锁仍归本次持有时删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// 文档注释：基于 Redis SetNX 的任务互斥锁
// 背景：防止同一维护任务被并发启动造成重复写；rc 为 nil 时不加锁直接放行。
// 约束：TTL 兜底进程崩溃后的遗留锁；任务运行时间超过 TTL 时锁可能被他人获取。
type RedisLock struct {
	rc  *redis.Client
	ttl time.Duration
}

func NewRedisLock(rc *redis.Client, ttl time.Duration) *RedisLock {
	return &RedisLock{rc: rc, ttl: ttl}
}

// Acquire：获取锁并返回释放函数
func (k *RedisLock) Acquire(ctx context.Context, name string) (func(), error) {
	if k == nil || k.rc == nil {
		return func() {}, nil
	}
	key := "trashtrackr:job:" + name
	token := uuid.NewString()
	ok, err := k.rc.SetNX(ctx, key, token, k.ttl).Result()
	if err != nil {
		metrics.RedisErrorsTotal.Inc()
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		if err := releaseScript.Run(context.Background(), k.rc, []string{key}, token).Err(); err != nil {
			metrics.RedisErrorsTotal.Inc()
		}
	}, nil
}
