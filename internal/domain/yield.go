package domain

import "time"

// YieldHistory is one point of an animal's reproductive and lactation
// timeline. Rows are derived from answer sessions and are rebuilt when those
// sessions are corrected.
//
// Fields:
//   - Date: the business event date (calendar day, midnight UTC), not the
//     time of the write.
//   - PregnancyStatus / LactatingStatus: "Yes", "No" or the literal answer
//     when it has no canonical form; empty when unknown.
//   - SourceSessionID / SourceCategoryID: the answer session this row was
//     derived from.
type YieldHistory struct {
	ID               string    `json:"id"                 gorm:"type:char(36);primaryKey"`
	UserID           uint      `json:"user_id"            gorm:"not null;index:idx_yield_instance,priority:1"`
	AnimalID         uint      `json:"animal_id"          gorm:"not null;index:idx_yield_instance,priority:2"`
	AnimalNumber     string    `json:"animal_number"      gorm:"type:varchar(64);not null;index:idx_yield_instance,priority:3"`
	Date             time.Time `json:"date"               gorm:"not null;index:idx_yield_instance,priority:4"`
	PregnancyStatus  string    `json:"pregnancy_status"   gorm:"type:varchar(64);not null;default:''"`
	LactatingStatus  string    `json:"lactating_status"   gorm:"type:varchar(64);not null;default:''"`
	SourceSessionID  string    `json:"source_session_id"  gorm:"type:char(36);not null;index"`
	SourceCategoryID uint      `json:"source_category_id" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
}

func (YieldHistory) TableName() string { return "yield_histories" }

// MilkBackfill records that a user's yield history was rebuilt from historical
// answers. The primary key makes the claim atomic: only one insert per user
// can succeed.
type MilkBackfill struct {
	UserID      uint      `gorm:"primaryKey;autoIncrement:false"`
	ClaimedAt   time.Time `gorm:"not null"`
	RowsWritten int       `gorm:"not null;default:0"`
}

func (MilkBackfill) TableName() string { return "milk_backfills" }
