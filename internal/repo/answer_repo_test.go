package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-livestock-backend/internal/domain"
)

func TestInsertAnswers_EmptyIsNoop(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if err := InsertAnswers(context.Background(), db, nil); err != nil {
		t.Fatalf("expected nil for empty batch, got %v", err)
	}
}

func TestHasActiveInstance(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	ok, err := HasActiveInstance(ctx, db, testKey)
	if err != nil || ok {
		t.Fatalf("expected no instance, got %v %v", ok, err)
	}
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := InsertAnswers(ctx, db, []domain.Answer{answerRow(testKey, 1, 1, "s1", at, "Female")}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	ok, err = HasActiveInstance(ctx, db, testKey)
	if err != nil || !ok {
		t.Fatalf("expected instance, got %v %v", ok, err)
	}

	n, err := RetireInstance(ctx, db, testKey)
	if err != nil || n != 1 {
		t.Fatalf("RetireInstance: %d %v", n, err)
	}
	ok, err = HasActiveInstance(ctx, db, testKey)
	if err != nil || ok {
		t.Fatalf("expected retired instance to be inactive, got %v %v", ok, err)
	}
}

func TestSessionLookups_RangeAndInstant(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	morning := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	nextDay := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)
	rows := []domain.Answer{
		answerRow(testKey, 1, 1, "s1", morning, "Female"),
		answerRow(testKey, 1, 2, "s1", morning, "No"),
		answerRow(testKey, 1, 1, "s2", evening, "Female"),
		answerRow(testKey, 1, 1, "s3", nextDay, "Female"),
		answerRow(testKey, 2, 4, "s4", evening, "2025-03-01"),
	}
	if err := InsertAnswers(ctx, db, rows); err != nil {
		t.Fatalf("insert: %v", err)
	}

	ids, err := SessionIDsInRange(ctx, db, testKey, 1, day(2025, 3, 1), day(2025, 3, 2))
	if err != nil {
		t.Fatalf("SessionIDsInRange: %v", err)
	}
	if len(ids) != 2 || ids[0] != "s1" || ids[1] != "s2" {
		t.Fatalf("expected [s1 s2], got %v", ids)
	}

	ids, err = SessionIDsAt(ctx, db, testKey, 1, evening)
	if err != nil || len(ids) != 1 || ids[0] != "s2" {
		t.Fatalf("SessionIDsAt: %v %v", ids, err)
	}
	ids, err = SessionIDsAt(ctx, db, testKey, 1, evening.Add(time.Second))
	if err != nil || len(ids) != 0 {
		t.Fatalf("expected no sessions, got %v %v", ids, err)
	}
}

func TestDeleteSessions_RemovesWholeSessionOnly(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	other := domain.InstanceKey{UserID: 2, AnimalID: 1, AnimalNumber: "A100"}
	rows := []domain.Answer{
		answerRow(testKey, 1, 1, "s1", at, "Female"),
		answerRow(testKey, 1, 2, "s1", at, "No"),
		answerRow(testKey, 1, 1, "s2", at.Add(time.Hour), "Female"),
		answerRow(other, 1, 1, "s1", at, "Male"),
	}
	if err := InsertAnswers(ctx, db, rows); err != nil {
		t.Fatalf("insert: %v", err)
	}

	n, err := DeleteSessions(ctx, db, testKey, []string{"s1"})
	if err != nil || n != 2 {
		t.Fatalf("DeleteSessions: %d %v", n, err)
	}
	if n, err := DeleteSessions(ctx, db, testKey, nil); err != nil || n != 0 {
		t.Fatalf("empty DeleteSessions: %d %v", n, err)
	}

	var total int64
	db.Unscoped().Model(&domain.Answer{}).Count(&total)
	if total != 2 {
		t.Fatalf("expected hard delete leaving 2 rows, got %d", total)
	}
	left, err := ListSessionAnswers(ctx, db, []string{"s1"})
	if err != nil || len(left) != 1 || left[0].UserID != 2 {
		t.Fatalf("other instance's session must survive: %+v %v", left, err)
	}
}

func TestLatestTaggedAnswer_AcrossCategories(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	if _, err := LatestTaggedAnswer(ctx, db, testKey, domain.TagHeatDate); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	t1 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	rows := []domain.Answer{
		answerRow(testKey, 2, 4, "h1", t1, "2025-02-28"),
		answerRow(testKey, 2, 4, "h2", t1.Add(time.Hour), "2025-03-01"),
		answerRow(testKey, 1, 2, "b1", t1.Add(2*time.Hour), "Yes"),
	}
	if err := InsertAnswers(ctx, db, rows); err != nil {
		t.Fatalf("insert: %v", err)
	}

	a, err := LatestTaggedAnswer(ctx, db, testKey, domain.TagHeatDate)
	if err != nil || a.SessionID != "h2" || a.Answer != "2025-03-01" {
		t.Fatalf("LatestTaggedAnswer heat: %+v %v", a, err)
	}
	a, err = LatestTaggedAnswer(ctx, db, testKey, domain.TagLactating, domain.TagLactatingState)
	if err != nil || a.SessionID != "b1" {
		t.Fatalf("LatestTaggedAnswer lactation: %+v %v", a, err)
	}
}

func TestLatestSessionAndActiveSessionIDs(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	if _, err := LatestSession(ctx, db, testKey, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	t1 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	t2 := t1.AddDate(0, 0, 1)
	rows := []domain.Answer{
		answerRow(testKey, 1, 1, "old", t1, "Female"),
		answerRow(testKey, 1, 1, "new", t2, "Female"),
		answerRow(testKey, 1, 2, "new", t2, "Yes"),
		answerRow(testKey, 2, 4, "heat", t1, "2025-03-01"),
	}
	if err := InsertAnswers(ctx, db, rows); err != nil {
		t.Fatalf("insert: %v", err)
	}

	s, err := LatestSession(ctx, db, testKey, 1)
	if err != nil {
		t.Fatalf("LatestSession: %v", err)
	}
	if s.ID != "new" || len(s.Answers) != 2 || !s.At.Equal(t2) || s.CategoryID != 1 {
		t.Fatalf("unexpected session: %+v", s)
	}

	active, err := ActiveSessionIDs(ctx, db, testKey)
	if err != nil {
		t.Fatalf("ActiveSessionIDs: %v", err)
	}
	if len(active) != 2 || active[1] != "new" || active[2] != "heat" {
		t.Fatalf("unexpected active sessions: %v", active)
	}
}

func TestListCategoryAndInstanceSessions(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	t1 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	rows := []domain.Answer{
		answerRow(testKey, 2, 4, "h1", t1, "2025-02-01"),
		answerRow(testKey, 2, 4, "h2", t1.Add(time.Hour), "2025-03-01"),
		answerRow(testKey, 1, 1, "b1", t1.Add(30*time.Minute), "Female"),
		answerRow(testKey, 1, 2, "b1", t1.Add(30*time.Minute), "No"),
	}
	if err := InsertAnswers(ctx, db, rows); err != nil {
		t.Fatalf("insert: %v", err)
	}

	heat, err := ListCategorySessions(ctx, db, testKey, 2)
	if err != nil || len(heat) != 2 || heat[0].ID != "h2" || heat[1].ID != "h1" {
		t.Fatalf("ListCategorySessions newest first: %+v %v", heat, err)
	}

	all, err := ListInstanceSessions(ctx, db, testKey)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListInstanceSessions: %+v %v", all, err)
	}
	if all[0].ID != "h1" || all[1].ID != "b1" || all[2].ID != "h2" || len(all[1].Answers) != 2 {
		t.Fatalf("expected oldest-first grouping, got %+v", all)
	}
}

func TestListInstances_AndWithoutHistory(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	b := domain.InstanceKey{UserID: 1, AnimalID: 1, AnimalNumber: "B200"}
	goat := domain.InstanceKey{UserID: 1, AnimalID: 2, AnimalNumber: "G1"}
	stranger := domain.InstanceKey{UserID: 9, AnimalID: 1, AnimalNumber: "A100"}
	rows := []domain.Answer{
		answerRow(testKey, 1, 1, "s1", at, "Female"),
		answerRow(testKey, 1, 2, "s1", at, "No"),
		answerRow(b, 1, 1, "s2", at, "Female"),
		answerRow(goat, 1, 1, "s3", at, "Male"),
		answerRow(stranger, 1, 1, "s4", at, "Female"),
	}
	if err := InsertAnswers(ctx, db, rows); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := ListInstances(ctx, db, 1)
	if err != nil {
		t.Fatalf("ListInstances: %v", err)
	}
	want := []domain.InstanceKey{testKey, b, goat}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	}

	row := yieldRow(testKey, day(2025, 3, 1), "s1", 1)
	if err := CreateYieldHistory(ctx, db, &row); err != nil {
		t.Fatalf("seed yield: %v", err)
	}
	missing, err := ListInstancesWithoutHistory(ctx, db, 1)
	if err != nil {
		t.Fatalf("ListInstancesWithoutHistory: %v", err)
	}
	if len(missing) != 2 || missing[0] != b || missing[1] != goat {
		t.Fatalf("unexpected instances without history: %+v", missing)
	}
}
