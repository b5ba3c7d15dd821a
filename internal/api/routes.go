// 包 api：集中注册 HTTP 路由（提交、看板读取、CSV 导出、SSE 推送、指标），由主入口挂载到 API_BASE
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trashtrackr/internal/auth"
	"trashtrackr/internal/geofence"
	"trashtrackr/internal/logger"
	"trashtrackr/internal/metrics"
	"trashtrackr/internal/middleware"
	"trashtrackr/internal/projection"
	"trashtrackr/internal/submission"
)

// Deps：路由依赖，由主入口构造注入
type Deps struct {
	Validator *submission.Validator
	Cache     *projection.Cache
	Fence     *geofence.Fence
	Verifier  *auth.Verifier
	Dedupe    *Deduper
	Log       *slog.Logger
	// RateLimitEnabled / RateLimitQPS：仅作用于提交接口
	RateLimitEnabled bool
	RateLimitQPS     int
	// Now：CSV 导出中 createdAt 为空时的回退时间
	Now func() time.Time
}

type handler struct {
	Deps
}

// BuildRoutes：返回独立路由，便于在主入口挂载到 API_BASE 前缀
func BuildRoutes(d Deps) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	h := &handler{Deps: d}
	r := chi.NewRouter()
	r.Use(logger.AccessMiddleware(d.Log))
	r.Use(d.Verifier.Middleware)
	r.With(middleware.RateLimit(d.RateLimitEnabled, d.RateLimitQPS)).Post("/reports", h.submit)
	r.Get("/reports", h.feed)
	r.Get("/reports/types", h.types)
	r.Get("/reports/export.csv", h.export)
	r.Get("/reports/stream", h.stream)
	r.Handle("/metrics", metrics.Handler())
	return r
}
