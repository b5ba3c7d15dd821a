// 包 postgres：基于 PostgreSQL 的上报存储（JSONB 文档 + LISTEN/NOTIFY 实时订阅）
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trashtrackr/internal/migrate"
	"trashtrackr/internal/reports"
	"trashtrackr/internal/store"
)

const selectColumns = `SELECT id, doc, created_at FROM reports`

// Store：持有连接池；dsn 用于建立独立的 LISTEN 连接
type Store struct {
	db  *sql.DB
	dsn string
	log *slog.Logger
}

func New(db *sql.DB, dsn string, l *slog.Logger) *Store {
	return &Store{db: db, dsn: dsn, log: l}
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Add(ctx context.Context, d reports.Draft) (string, error) {
	doc, err := json.Marshal(d.Fields())
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	id := uuid.NewString()
	if d.CreatedAt != nil {
		_, err = s.db.ExecContext(ctx, `INSERT INTO reports(id, doc, created_at) VALUES($1, $2, $3)`, id, string(doc), d.CreatedAt.UTC())
	} else {
		_, err = s.db.ExecContext(ctx, `INSERT INTO reports(id, doc) VALUES($1, $2)`, id, string(doc))
	}
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

func (s *Store) All(ctx context.Context) ([]store.Document, error) {
	return s.query(ctx, selectColumns+` ORDER BY created_at DESC NULLS LAST`)
}

func (s *Store) Synthetic(ctx context.Context) ([]store.Document, error) {
	return s.query(ctx, selectColumns+` WHERE doc->'isFake' = 'true'::jsonb ORDER BY created_at DESC NULLS LAST`)
}

func (s *Store) query(ctx context.Context, q string) ([]store.Document, error) {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()
	var out []store.Document
	for rows.Next() {
		var id string
		var raw []byte
		var created sql.NullTime
		if err := rows.Scan(&id, &raw, &created); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		data := map[string]any{}
		if err := json.Unmarshal(raw, &data); err != nil {
			s.log.Debug("report_doc_decode_error", "id", id, "err", err)
			data = map[string]any{}
		}
		if created.Valid {
			data[reports.FieldCreatedAt] = created.Time.UTC()
		} else {
			delete(data, reports.FieldCreatedAt)
		}
		out = append(out, store.Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete report %s: %w", id, err)
	}
	return affected(res)
}

func (s *Store) SetTypes(ctx context.Context, id string, types []any) error {
	if types == nil {
		types = []any{}
	}
	b, err := json.Marshal(types)
	if err != nil {
		return fmt.Errorf("encode types: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE reports SET doc = jsonb_set(doc, '{types}', $2::jsonb, true) WHERE id=$1`, id, string(b))
	if err != nil {
		return fmt.Errorf("update report %s: %w", id, err)
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Watch：LISTEN reports_changed，每次通知（含重连）后重新全量查询推送
// 约束：监听连接独立于连接池；每 90 秒 Ping 一次以发现断线。
func (s *Store) Watch(ctx context.Context, onSnapshot func([]store.Document), onError func(error)) (func(), error) {
	ln := pq.NewListener(s.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			s.log.Error("pg_listener_event", "event", ev, "err", err)
		}
	})
	if err := ln.Listen(migrate.NotifyChannel); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("listen %s: %w", migrate.NotifyChannel, err)
	}
	wctx, cancel := context.WithCancel(ctx)
	var once sync.Once
	stop := func() { once.Do(cancel) }
	go func() {
		defer ln.Close()
		emit := func() bool {
			docs, err := s.All(wctx)
			if err != nil {
				if wctx.Err() == nil {
					onError(err)
				}
				return false
			}
			onSnapshot(docs)
			return true
		}
		if !emit() {
			return
		}
		for {
			select {
			case <-wctx.Done():
				return
			case <-ln.Notify:
				if !emit() {
					return
				}
			case <-time.After(90 * time.Second):
				if err := ln.Ping(); err != nil {
					s.log.Debug("pg_listener_ping_error", "err", err)
				}
			}
		}
	}()
	return stop, nil
}

func (s *Store) Close() error { return s.db.Close() }
