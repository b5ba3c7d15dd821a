package migrate

import (
	"database/sql"

	"trashtrackr/internal/logger"
)

// NotifyChannel：reports 表变更时的 LISTEN/NOTIFY 通道
const NotifyChannel = "reports_changed"

// 背景：首次运行自动创建上报表、排序索引与变更通知触发器，供 PostgreSQL 后端实时订阅
// 约束：使用 IF NOT EXISTS / OR REPLACE 保证可重复执行；文档整体存为 JSONB，created_at 由数据库分配
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reports (
            id TEXT PRIMARY KEY,
            doc JSONB NOT NULL,
            created_at TIMESTAMPTZ DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at DESC NULLS LAST)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_is_fake ON reports((doc->'isFake'))`,
		`CREATE OR REPLACE FUNCTION reports_notify() RETURNS trigger AS $$
        BEGIN
            PERFORM pg_notify('` + NotifyChannel + `', TG_OP);
            RETURN NULL;
        END;
        $$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS reports_changed ON reports`,
		`CREATE TRIGGER reports_changed AFTER INSERT OR UPDATE OR DELETE ON reports
            FOR EACH STATEMENT EXECUTE FUNCTION reports_notify()`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
