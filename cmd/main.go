// 程序入口：读取配置、构造存储与实时投影并启动 HTTP 服务；路由注册在 internal/api
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"trashtrackr/internal/api"
	"trashtrackr/internal/auth"
	"trashtrackr/internal/config"
	"trashtrackr/internal/geofence"
	"trashtrackr/internal/logger"
	"trashtrackr/internal/projection"
	"trashtrackr/internal/submission"
	"trashtrackr/internal/utils"
)

func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	l.Debug("log_init_ok")

	cfg, err := config.Load()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	l.Debug("config_api_base", "base", cfg.Server.APIBase, "backend", cfg.StoreBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := utils.OpenStore(ctx, cfg, l)
	if err != nil {
		l.Error("store_open_error", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		defer rc.Close()
	}

	if cfg.Server.JWTSecret == "" {
		l.Warn("auth_secret_missing", "note", "all submissions will be rejected as unauthenticated")
	}
	fence := geofence.New(cfg.Geofence)
	cache := projection.NewCache()
	unsub, err := projection.New(st, l).Subscribe(ctx, cache.Update, nil)
	if err != nil {
		l.Error("projection_subscribe_error", "err", err)
		os.Exit(1)
	}
	defer unsub()
	l.Info("projection_subscribed")

	apiMux := api.BuildRoutes(api.Deps{
		Validator:        submission.NewValidator(st, fence, l),
		Cache:            cache,
		Fence:            fence,
		Verifier:         auth.NewVerifier(cfg.Server.JWTSecret, cfg.Server.JWTIssuer),
		Dedupe:           api.NewDeduper(rc, cfg.Server.DedupeTTL),
		Log:              l,
		RateLimitEnabled: cfg.Server.RateLimitEnabled,
		RateLimitQPS:     cfg.Server.RateLimitQPS,
	})
	mux := http.NewServeMux()
	mux.Handle(cfg.Server.APIBase+"/", http.StripPrefix(cfg.Server.APIBase, apiMux))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !cache.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("warming up\n"))
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})

	s := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		// 收到退出信号时结束 SSE 等长连接
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if os.Getenv("TLS_ENABLE") == "true" {
			certPath := envOr("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt"))
			keyPath := envOr("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key"))
			if err := utils.EnsureSelfSignedCert(certPath, keyPath, "trashtrackr.local"); err != nil {
				return err
			}
			l.Info("listening_tls", "addr", s.Addr, "cert", certPath)
			err = s.ListenAndServeTLS(certPath, keyPath)
		} else {
			l.Info("listening", "addr", s.Addr)
			err = s.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info("shutdown_begin")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(sctx)
	})
	if err := g.Wait(); err != nil {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("shutdown_ok")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
