package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-livestock-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestAnswerStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := AnswerStats(context.Background(), db, testKey)
	if err == nil {
		t.Fatalf("expected error due to missing answers table")
	}
}

func TestAnswerStats_ZeroRows(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	count, latest, err := AnswerStats(context.Background(), db, testKey)
	if err != nil {
		t.Fatalf("AnswerStats error: %v", err)
	}
	if count != 0 || latest != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, latest)
	}
}

func TestAnswerStats_CountAndLatest_IgnoresRetired(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	rows := []domain.Answer{
		answerRow(testKey, 1, 1, "s1", t1, "Female"),
		answerRow(testKey, 1, 2, "s1", t1, "No"),
		answerRow(testKey, 1, 1, "s2", t2, "Female"),
	}
	rows[0].CreatedAt, rows[1].CreatedAt, rows[2].CreatedAt = t1, t1, t2
	other := domain.InstanceKey{UserID: 1, AnimalID: 1, AnimalNumber: "B200"}
	retired := answerRow(other, 1, 1, "s3", t2.Add(time.Hour), "Male")
	retired.Status = domain.StatusRetired
	rows = append(rows, retired)
	if err := InsertAnswers(ctx, db, rows); err != nil {
		t.Fatalf("seed: %v", err)
	}

	count, latest, err := AnswerStats(ctx, db, testKey)
	if err != nil {
		t.Fatalf("AnswerStats: %v", err)
	}
	if count != 3 || latest == nil || !latest.Equal(t2) {
		t.Fatalf("expected (3, %v), got (%d, %v)", t2, count, latest)
	}

	count, latest, err = AnswerStats(ctx, db, other)
	if err != nil || count != 0 || latest != nil {
		t.Fatalf("retired instance: expected (0, nil, nil), got (%d, %v, %v)", count, latest, err)
	}
}

func TestYieldStats(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	if n, latest, err := YieldStats(ctx, db, testKey); err != nil || n != 0 || latest != nil {
		t.Fatalf("expected empty stats, got (%d, %v, %v)", n, latest, err)
	}

	created := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		row := yieldRow(testKey, day(2024, 1, 1+i), "s1", 1)
		row.CreatedAt = created.Add(time.Duration(i) * time.Minute)
		if err := CreateYieldHistory(ctx, db, &row); err != nil {
			t.Fatalf("seed yield: %v", err)
		}
	}
	n, latest, err := YieldStats(ctx, db, testKey)
	if err != nil {
		t.Fatalf("YieldStats: %v", err)
	}
	if n != 2 || latest == nil || !latest.Equal(created.Add(time.Minute)) {
		t.Fatalf("unexpected stats (%d, %v)", n, latest)
	}
}
