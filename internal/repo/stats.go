// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-livestock-backend/internal/domain"
)

// AnswerStats returns the number of active answer rows of key and the newest
// CreatedAt among them. When the instance has no rows, latest is nil.
//
// Replacements delete and re-insert rows, so any write moves either the count
// or the latest timestamp.
func AnswerStats(ctx context.Context, db *gorm.DB, key domain.InstanceKey) (count int64, latest *time.Time, err error) {
	q := activeInstance(db.WithContext(ctx).Model(&domain.Answer{}), key)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// avoid MAX() -> TEXT in SQLite
	var row struct {
		CreatedAt time.Time
	}
	if err = activeInstance(db.WithContext(ctx).Model(&domain.Answer{}), key).
		Select("answers.created_at").
		Order("answers.created_at DESC").
		Limit(1).
		Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}

// YieldStats is AnswerStats for the yield history timeline of key.
func YieldStats(ctx context.Context, db *gorm.DB, key domain.InstanceKey) (count int64, latest *time.Time, err error) {
	if err = yieldInstance(db.WithContext(ctx).Model(&domain.YieldHistory{}), key).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	var row struct {
		CreatedAt time.Time
	}
	if err = yieldInstance(db.WithContext(ctx).Model(&domain.YieldHistory{}), key).
		Select("yield_histories.created_at").
		Order("yield_histories.created_at DESC").
		Limit(1).
		Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
