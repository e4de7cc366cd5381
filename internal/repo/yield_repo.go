// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the yield history timeline: derived rows
// written by the projector and read back by the yield service.
//
// Dates are calendar days stored as midnight UTC; lookups by date use a
// [day, day+24h) range so they match regardless of how the driver renders
// timestamps.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-livestock-backend/internal/domain"
)

func yieldInstance(db *gorm.DB, key domain.InstanceKey) *gorm.DB {
	return db.Where("yield_histories.user_id = ? AND yield_histories.animal_id = ? AND yield_histories.animal_number = ?",
		key.UserID, key.AnimalID, key.AnimalNumber)
}

// CreateYieldHistory inserts one timeline row. The caller assigns the ID.
func CreateYieldHistory(ctx context.Context, db *gorm.DB, row *domain.YieldHistory) error {
	return db.WithContext(ctx).Create(row).Error
}

// ListYieldHistory returns the timeline of key ordered by date, then
// insertion time.
func ListYieldHistory(ctx context.Context, db *gorm.DB, key domain.InstanceKey) ([]domain.YieldHistory, error) {
	var out []domain.YieldHistory
	err := yieldInstance(db.WithContext(ctx).Model(&domain.YieldHistory{}), key).
		Order("yield_histories.date ASC, yield_histories.created_at ASC, yield_histories.id ASC").
		Find(&out).Error
	return out, err
}

// HasYieldHistory reports whether key has at least one timeline row.
func HasYieldHistory(ctx context.Context, db *gorm.DB, key domain.InstanceKey) (bool, error) {
	var n int64
	err := yieldInstance(db.WithContext(ctx).Model(&domain.YieldHistory{}), key).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

// DeleteYieldBySourceSessions removes the rows derived from the given answer
// sessions.
func DeleteYieldBySourceSessions(ctx context.Context, db *gorm.DB, key domain.InstanceKey, sessionIDs []string) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	res := yieldInstance(db.WithContext(ctx), key).
		Where("yield_histories.source_session_id IN ?", sessionIDs).
		Delete(&domain.YieldHistory{})
	return res.RowsAffected, res.Error
}

// DeleteYieldByIDs removes timeline rows by primary key.
func DeleteYieldByIDs(ctx context.Context, db *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.YieldHistory{}).Error
}

// FindYieldOnDate returns the rows of key dated day whose source session was
// written to a category of kind, locking them.
func FindYieldOnDate(ctx context.Context, db *gorm.DB, key domain.InstanceKey, day time.Time, kind domain.CategoryKind) ([]domain.YieldHistory, error) {
	from := day.UTC()
	var out []domain.YieldHistory
	q := yieldInstance(db.WithContext(ctx).Model(&domain.YieldHistory{}), key).
		Joins("JOIN categories ON categories.id = yield_histories.source_category_id").
		Where("categories.kind = ?", kind).
		Where("yield_histories.date >= ? AND yield_histories.date < ?", from, from.Add(24*time.Hour)).
		Order("yield_histories.created_at ASC, yield_histories.id ASC")
	err := forUpdate(q).Find(&out).Error
	return out, err
}

// LatestYieldOnOrBefore returns the newest row of key dated on or before day.
// ErrNotFound when there is none.
func LatestYieldOnOrBefore(ctx context.Context, db *gorm.DB, key domain.InstanceKey, day time.Time) (*domain.YieldHistory, error) {
	var row domain.YieldHistory
	err := yieldInstance(db.WithContext(ctx).Model(&domain.YieldHistory{}), key).
		Where("yield_histories.date < ?", day.UTC().Add(24*time.Hour)).
		Order("yield_histories.date DESC, yield_histories.created_at DESC, yield_histories.id DESC").
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// RepointYieldSource moves rows derived from the sessions in from onto the
// session to. Used when a session is superseded by a copy of itself.
func RepointYieldSource(ctx context.Context, db *gorm.DB, key domain.InstanceKey, from []string, to string) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	res := yieldInstance(db.WithContext(ctx).Model(&domain.YieldHistory{}), key).
		Where("yield_histories.source_session_id IN ?", from).
		Update("source_session_id", to)
	return res.RowsAffected, res.Error
}

// DeleteYieldHistory removes the whole timeline of key.
func DeleteYieldHistory(ctx context.Context, db *gorm.DB, key domain.InstanceKey) (int64, error) {
	res := yieldInstance(db.WithContext(ctx), key).Delete(&domain.YieldHistory{})
	return res.RowsAffected, res.Error
}
