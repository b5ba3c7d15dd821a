// 包 cli：维护任务与种子脚本共用的进程入口（环境加载、存储构造、任务锁、退出码）
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"trashtrackr/internal/config"
	"trashtrackr/internal/logger"
	"trashtrackr/internal/maintenance"
	"trashtrackr/internal/store"
	"trashtrackr/internal/utils"
)

// LockTTL：任务锁的兜底过期时间
const LockTTL = 30 * time.Minute

// Env：一次任务运行所需的依赖
type Env struct {
	Config config.Config
	Store  store.Store
	Redis  *redis.Client
	Log    *slog.Logger
}

// Open：读取配置并打开存储与可选的 Redis
// 约束：Redis 不可达时降级为无锁运行，不阻断任务。
func Open(ctx context.Context, l *slog.Logger) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	st, err := utils.OpenStore(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	rc := utils.OpenRedisFromEnv()
	if rc != nil {
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Warn("redis_ping_error", "err", err, "note", "running without job lock")
			_ = rc.Close()
			rc = nil
		}
	}
	return &Env{Config: cfg, Store: st, Redis: rc, Log: l}, nil
}

func (e *Env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
	if e.Redis != nil {
		_ = e.Redis.Close()
	}
}

// Locked：持有同名任务锁执行 fn
func (e *Env) Locked(ctx context.Context, name string, fn func(context.Context) error) error {
	release, err := maintenance.NewRedisLock(e.Redis, LockTTL).Acquire(ctx, name)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// Main：任务进程入口；成功退出 0，任何失败退出 1
func Main(name string, fn func(ctx context.Context, e *Env) error) {
	_ = godotenv.Load(".env")
	l := logger.Setup().With("job", name)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	env, err := Open(ctx, l)
	if err != nil {
		l.Error("job_init_error", "err", err)
		stop()
		os.Exit(1)
	}
	err = env.Locked(ctx, name, func(ctx context.Context) error { return fn(ctx, env) })
	env.Close()
	stop()
	if err != nil {
		l.Error("job_failed", "err", err)
		os.Exit(1)
	}
	l.Info("job_exit_ok")
}

// RunJob：以 Main 运行一个维护任务，任务由配置构造
func RunJob(name string, build func(cfg config.Config) maintenance.Job) {
	Main(name, func(ctx context.Context, e *Env) error {
		_, err := Execute(ctx, e, build(e.Config))
		return err
	})
}

// Execute：运行任务并汇总日志
func Execute(ctx context.Context, e *Env, j maintenance.Job) (maintenance.Result, error) {
	res, err := j.Run(ctx, e.Store, e.Log)
	if err != nil {
		return res, err
	}
	if res.Failed > 0 {
		e.Log.Warn("job_partial", "failed", res.Failed, "candidates", res.Candidates)
	}
	return res, nil
}
