package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trashtrackr/internal/config"
	"trashtrackr/internal/migrate"
	"trashtrackr/internal/store"
	fsstore "trashtrackr/internal/store/firestore"
	"trashtrackr/internal/store/memory"
	mgstore "trashtrackr/internal/store/mongo"
	pgstore "trashtrackr/internal/store/postgres"
)

// OpenStore：按 STORE_BACKEND 构造存储实现
// 背景：服务与各维护任务共用同一构造入口，保证连接参数一致。
// 约束：postgres 后端在返回前确保表结构与通知触发器存在。
func OpenStore(ctx context.Context, cfg config.Config, l *slog.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		if cfg.Firestore.ProjectID == "" {
			return nil, fmt.Errorf("FIRESTORE_PROJECT_ID is required for the firestore backend")
		}
		s, err := fsstore.Open(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile, cfg.Collection, l)
		if err != nil {
			return nil, err
		}
		l.Info("store_open_ok", "backend", cfg.StoreBackend, "project", cfg.Firestore.ProjectID)
		return s, nil
	case config.BackendPostgres:
		db, dsn, err := OpenPostgresFromEnv()
		if err != nil {
			return nil, err
		}
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		if err := migrate.EnsureSchema(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("schema: %w", err)
		}
		l.Info("store_open_ok", "backend", cfg.StoreBackend)
		return pgstore.New(db, dsn, l), nil
	case config.BackendMongo:
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		s, err := mgstore.Open(cctx, cfg.Mongo.URI, cfg.Mongo.DB, cfg.Collection, l)
		if err != nil {
			return nil, err
		}
		l.Info("store_open_ok", "backend", cfg.StoreBackend, "db", cfg.Mongo.DB)
		return s, nil
	case config.BackendMemory:
		l.Warn("store_memory_backend", "note", "data is not persisted")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
