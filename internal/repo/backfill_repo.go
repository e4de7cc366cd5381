package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-livestock-backend/internal/domain"
)

// ClaimBackfill records that userID's yield history is being rebuilt.
// It returns true only for the caller whose insert created the row; every
// later or concurrent caller gets false. Call it inside the backfill
// transaction so a failed backfill releases the claim on rollback.
func ClaimBackfill(ctx context.Context, db *gorm.DB, userID uint, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&domain.MilkBackfill{UserID: userID, ClaimedAt: now.UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FinishBackfill stores how many timeline rows the backfill wrote.
func FinishBackfill(ctx context.Context, db *gorm.DB, userID uint, rows int) error {
	return db.WithContext(ctx).
		Model(&domain.MilkBackfill{}).
		Where("user_id = ?", userID).
		Update("rows_written", rows).Error
}

// BackfillDone reports whether userID has a committed backfill claim.
func BackfillDone(ctx context.Context, db *gorm.DB, userID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.MilkBackfill{}).Where("user_id = ?", userID).Count(&n).Error
	return n > 0, err
}
