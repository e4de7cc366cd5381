package domain

import (
	"time"

	"gorm.io/gorm"
)

// Answer status values.
const (
	StatusActive  = 0
	StatusRetired = 1
)

// InstanceKey identifies one tracked animal: the animal type number a user
// registered under a given animal number.
type InstanceKey struct {
	UserID       uint   `json:"user_id"`
	AnimalID     uint   `json:"animal_id"`
	AnimalNumber string `json:"animal_number"`
}

// Answer is one row of the answer store. Rows sharing SessionID form one
// revision written by a single request; SessionAt is that revision's
// timestamp and is identical across the session.
//
// Fields:
//   - CategoryID: the category the session was written to. Companion rows
//     fanned out by a write keep the category of the session, not of their
//     question.
//   - Answer: the literal text the user submitted (possibly localized).
//   - Canonical: locale-independent normalization of Answer ("yes", "no",
//     "female", ...) or empty when the answer has no canonical form.
//   - LogicValue: optional client classification (e.g. "cow", "calf").
//   - Status: StatusActive or StatusRetired.
type Answer struct {
	ID           string         `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       uint           `json:"user_id"       gorm:"not null;index:idx_answers_instance,priority:1"`
	AnimalID     uint           `json:"animal_id"     gorm:"not null;index:idx_answers_instance,priority:2"`
	AnimalNumber string         `json:"animal_number" gorm:"type:varchar(64);not null;index:idx_answers_instance,priority:3"`
	CategoryID   uint           `json:"category_id"   gorm:"not null;index:idx_answers_instance,priority:4"`
	QuestionID   uint           `json:"question_id"   gorm:"not null;index"`
	SessionID    string         `json:"session_id"    gorm:"type:char(36);not null;index"`
	SessionAt    time.Time      `json:"session_at"    gorm:"not null;index:idx_answers_instance,priority:5"`
	Answer       string         `json:"answer"        gorm:"type:text;not null"`
	Canonical    string         `json:"canonical"     gorm:"type:varchar(32);not null;default:''"`
	LogicValue   *string        `json:"logic_value,omitempty" gorm:"type:varchar(64)"`
	Status       int            `json:"status"        gorm:"not null;default:0;check:status IN (0,1)"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `json:"-"             gorm:"index"`

	Question Question `json:"-" gorm:"foreignKey:QuestionID"`
}

func (Answer) TableName() string { return "answers" }

// Session is a read model of one revision: its id, timestamp and rows.
type Session struct {
	ID         string    `json:"session_id"`
	CategoryID uint      `json:"category_id"`
	At         time.Time `json:"session_at"`
	Answers    []Answer  `json:"answers"`
}
