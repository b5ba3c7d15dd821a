//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"trashtrackr/internal/geofence"
	"trashtrackr/internal/migrate"
	"trashtrackr/internal/reports"
	"trashtrackr/internal/store"
	"trashtrackr/internal/store/postgres"
	"trashtrackr/internal/utils"
)

type PostgresStoreSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *sql.DB
	store     *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()
	c, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("trashtrackr"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	s.Require().NoError(err)
	s.container = c

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)
	db, err := utils.OpenPostgres(dsn)
	s.Require().NoError(err)
	s.Require().NoError(db.PingContext(ctx))
	s.Require().NoError(migrate.EnsureSchema(db))
	// 重复执行不报错
	s.Require().NoError(migrate.EnsureSchema(db))

	s.db = db
	s.store = postgres.New(db, dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.db.Exec(`TRUNCATE reports`)
	s.Require().NoError(err)
}

func draft(types ...string) reports.Draft {
	return reports.Draft{
		Types:    types,
		Severity: reports.SeverityHigh,
		Location: geofence.Coordinate{Lat: 12.9716, Lng: 77.5946},
	}
}

func (s *PostgresStoreSuite) TestAddAssignsServerTimestamp() {
	ctx := context.Background()
	id, err := s.store.Add(ctx, draft("Plastic"))
	s.Require().NoError(err)

	docs, err := s.store.All(ctx)
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal(id, docs[0].ID)

	r, ok := reports.Normalize(docs[0].Data, docs[0].ID)
	s.Require().True(ok)
	s.Equal([]string{"Plastic"}, r.Types)
	s.Equal(12.9716, r.Location.Lat)
	s.Require().NotNil(r.CreatedAt)
	s.WithinDuration(time.Now(), *r.CreatedAt, time.Minute)
}

func (s *PostgresStoreSuite) TestOrderingAndSynthetic() {
	ctx := context.Background()
	older := time.Now().Add(-48 * time.Hour)
	d := draft("Glass")
	d.CreatedAt = &older
	d.IsFake = true
	fakeID, err := s.store.Add(ctx, d)
	s.Require().NoError(err)
	newID, err := s.store.Add(ctx, draft("Plastic"))
	s.Require().NoError(err)

	docs, err := s.store.All(ctx)
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal(newID, docs[0].ID)
	s.Equal(fakeID, docs[1].ID)

	fakes, err := s.store.Synthetic(ctx)
	s.Require().NoError(err)
	s.Require().Len(fakes, 1)
	s.Equal(fakeID, fakes[0].ID)
}

func (s *PostgresStoreSuite) TestSetTypesAndDelete() {
	ctx := context.Background()
	id, err := s.store.Add(ctx, draft("Plastic", "Air Pollution"))
	s.Require().NoError(err)

	s.Require().NoError(s.store.SetTypes(ctx, id, []any{"Plastic"}))
	docs, err := s.store.All(ctx)
	s.Require().NoError(err)
	s.Equal([]any{"Plastic"}, docs[0].Data["types"])
	s.Equal("High", docs[0].Data["severity"])

	s.Require().NoError(s.store.Delete(ctx, id))
	s.ErrorIs(s.store.Delete(ctx, id), store.ErrNotFound)
	s.ErrorIs(s.store.SetTypes(ctx, id, nil), store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestWatchDeliversSnapshots() {
	ctx := context.Background()
	var mu sync.Mutex
	var sizes []int
	stop, err := s.store.Watch(ctx, func(docs []store.Document) {
		mu.Lock()
		sizes = append(sizes, len(docs))
		mu.Unlock()
	}, func(err error) { s.T().Logf("watch error: %v", err) })
	s.Require().NoError(err)
	defer stop()

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sizes) >= 1
	}, 10*time.Second, 50*time.Millisecond)

	_, err = s.store.Add(ctx, draft("Metal"))
	s.Require().NoError(err)

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sizes) > 0 && sizes[len(sizes)-1] == 1
	}, 10*time.Second, 50*time.Millisecond)

	stop()
	stop()
}
