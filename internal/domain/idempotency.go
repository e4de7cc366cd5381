package domain

import "time"

// Idempotency records the outcome of an answer write keyed by
// (user_id, scope, key) so that a retried request with the same
// Idempotency-Key is answered with the original session instead of writing
// a second one. Scope identifies the target, e.g. "1:A100:3" for
// animal 1, number A100, category 3.
type Idempotency struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:ux_user_scope_key,priority:1"`
	Scope     string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_user_scope_key,priority:2"`
	Key       string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_user_scope_key,priority:3"`
	SessionID string    `gorm:"type:varchar(36);not null"`
	Mode      string    `gorm:"type:varchar(16);not null"`
	Status    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
