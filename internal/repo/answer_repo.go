// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the answer store: append-mostly rows
// grouped into sessions, one session per write batch.
//
// All functions accept a *gorm.DB that may be a transaction handle. Functions
// that select sessions for replacement lock the selected rows (FOR UPDATE on
// PostgreSQL) and must be called inside the write transaction.
//
// Only active rows (status 0, not soft-deleted) are visible to these queries.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-livestock-backend/internal/domain"
)

// activeInstance scopes a query to the active rows of one instance.
func activeInstance(db *gorm.DB, key domain.InstanceKey) *gorm.DB {
	return db.Where("answers.user_id = ? AND answers.animal_id = ? AND answers.animal_number = ? AND answers.status = ?",
		key.UserID, key.AnimalID, key.AnimalNumber, domain.StatusActive)
}

// InsertAnswers writes rows in batches. Callers assign IDs and session fields.
func InsertAnswers(ctx context.Context, db *gorm.DB, rows []domain.Answer) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Omit("Question").CreateInBatches(rows, 100).Error
}

// HasActiveInstance reports whether any active row exists for key.
func HasActiveInstance(ctx context.Context, db *gorm.DB, key domain.InstanceKey) (bool, error) {
	var n int64
	err := activeInstance(db.WithContext(ctx).Model(&domain.Answer{}), key).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

// SessionIDsInRange returns the distinct sessions of categoryID whose
// session_at lies in [from, to), locking their rows.
func SessionIDsInRange(ctx context.Context, db *gorm.DB, key domain.InstanceKey, categoryID uint, from, to time.Time) ([]string, error) {
	var rows []domain.Answer
	q := activeInstance(db.WithContext(ctx).Model(&domain.Answer{}), key).
		Select("answers.id", "answers.session_id").
		Where("answers.category_id = ? AND answers.session_at >= ? AND answers.session_at < ?", categoryID, from.UTC(), to.UTC()).
		Order("answers.session_at ASC, answers.id ASC")
	if err := forUpdate(q).Find(&rows).Error; err != nil {
		return nil, err
	}
	return distinctSessions(rows), nil
}

// SessionIDsAt returns the sessions of categoryID stamped exactly at,
// locking their rows.
func SessionIDsAt(ctx context.Context, db *gorm.DB, key domain.InstanceKey, categoryID uint, at time.Time) ([]string, error) {
	var rows []domain.Answer
	q := activeInstance(db.WithContext(ctx).Model(&domain.Answer{}), key).
		Select("answers.id", "answers.session_id").
		Where("answers.category_id = ? AND answers.session_at = ?", categoryID, at.UTC()).
		Order("answers.id ASC")
	if err := forUpdate(q).Find(&rows).Error; err != nil {
		return nil, err
	}
	return distinctSessions(rows), nil
}

// LatestTaggedAnswer returns the most recent active answer of key whose
// question carries one of tags, across all categories. ErrNotFound when none.
func LatestTaggedAnswer(ctx context.Context, db *gorm.DB, key domain.InstanceKey, tags ...domain.QuestionTag) (*domain.Answer, error) {
	var a domain.Answer
	q := activeInstance(db.WithContext(ctx).Model(&domain.Answer{}), key).
		Joins("JOIN questions qs ON qs.id = answers.question_id").
		Where("qs.question_tag IN ?", tags).
		Order("answers.session_at DESC, answers.created_at DESC, answers.id DESC")
	if err := forUpdate(q).Take(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteSessions hard-deletes every row of the given sessions of key and
// returns the number of rows removed.
func DeleteSessions(ctx context.Context, db *gorm.DB, key domain.InstanceKey, sessionIDs []string) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND animal_id = ? AND animal_number = ? AND session_id IN ?",
			key.UserID, key.AnimalID, key.AnimalNumber, sessionIDs).
		Delete(&domain.Answer{})
	return res.RowsAffected, res.Error
}

// LatestSession returns the active session of categoryID with the greatest
// session_at (ties broken by session id). ErrNotFound when the category has
// no active rows.
func LatestSession(ctx context.Context, db *gorm.DB, key domain.InstanceKey, categoryID uint) (*domain.Session, error) {
	var head domain.Answer
	err := activeInstance(db.WithContext(ctx).Model(&domain.Answer{}), key).
		Where("answers.category_id = ?", categoryID).
		Order("answers.session_at DESC, answers.session_id DESC").
		Take(&head).Error
	if err != nil {
		return nil, err
	}
	rows, err := ListSessionAnswers(ctx, db, []string{head.SessionID})
	if err != nil {
		return nil, err
	}
	return &domain.Session{ID: head.SessionID, CategoryID: categoryID, At: head.SessionAt, Answers: rows}, nil
}

// sessionHead is one (category, session) pair of an instance.
type sessionHead struct {
	CategoryID uint
	SessionID  string
	SessionAt  time.Time
}

// ActiveSessionIDs returns, per category, the id of the latest active session
// of key. Categories without rows are absent.
func ActiveSessionIDs(ctx context.Context, db *gorm.DB, key domain.InstanceKey) (map[uint]string, error) {
	var heads []sessionHead
	err := activeInstance(db.WithContext(ctx).Model(&domain.Answer{}), key).
		Distinct("answers.category_id", "answers.session_id", "answers.session_at").
		Order("answers.session_at DESC, answers.session_id DESC").
		Scan(&heads).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]string)
	for _, h := range heads {
		if _, seen := out[h.CategoryID]; !seen {
			out[h.CategoryID] = h.SessionID
		}
	}
	return out, nil
}

// ListSessionAnswers returns the rows of the given sessions ordered by
// session, then question.
func ListSessionAnswers(ctx context.Context, db *gorm.DB, sessionIDs []string) ([]domain.Answer, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var out []domain.Answer
	err := db.WithContext(ctx).
		Where("session_id IN ? AND status = ?", sessionIDs, domain.StatusActive).
		Order("session_at ASC, session_id ASC, question_id ASC, id ASC").
		Find(&out).Error
	return out, err
}

// ListCategorySessions returns every active session of categoryID for key,
// newest first.
func ListCategorySessions(ctx context.Context, db *gorm.DB, key domain.InstanceKey, categoryID uint) ([]domain.Session, error) {
	var rows []domain.Answer
	err := activeInstance(db.WithContext(ctx).Model(&domain.Answer{}), key).
		Where("answers.category_id = ?", categoryID).
		Order("answers.session_at DESC, answers.session_id DESC, answers.question_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return groupSessions(rows), nil
}

// ListInstanceSessions returns every active session of key, oldest first.
func ListInstanceSessions(ctx context.Context, db *gorm.DB, key domain.InstanceKey) ([]domain.Session, error) {
	var rows []domain.Answer
	err := activeInstance(db.WithContext(ctx).Model(&domain.Answer{}), key).
		Order("answers.session_at ASC, answers.session_id ASC, answers.question_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return groupSessions(rows), nil
}

// RetireInstance marks every active row of key as retired.
func RetireInstance(ctx context.Context, db *gorm.DB, key domain.InstanceKey) (int64, error) {
	res := activeInstance(db.WithContext(ctx).Model(&domain.Answer{}), key).
		Update("status", domain.StatusRetired)
	return res.RowsAffected, res.Error
}

// ListInstances returns the instances of userID that have active rows,
// ordered by animal id then number.
func ListInstances(ctx context.Context, db *gorm.DB, userID uint) ([]domain.InstanceKey, error) {
	var out []domain.InstanceKey
	err := db.WithContext(ctx).
		Model(&domain.Answer{}).
		Where("user_id = ? AND status = ?", userID, domain.StatusActive).
		Distinct("user_id", "animal_id", "animal_number").
		Order("animal_id ASC, animal_number ASC").
		Scan(&out).Error
	return out, err
}

// ListInstancesWithoutHistory returns the instances of userID that have
// active rows but no yield history yet.
func ListInstancesWithoutHistory(ctx context.Context, db *gorm.DB, userID uint) ([]domain.InstanceKey, error) {
	var out []domain.InstanceKey
	err := db.WithContext(ctx).
		Model(&domain.Answer{}).
		Where("answers.user_id = ? AND answers.status = ?", userID, domain.StatusActive).
		Where(`NOT EXISTS (SELECT 1 FROM yield_histories yh
			WHERE yh.user_id = answers.user_id AND yh.animal_id = answers.animal_id AND yh.animal_number = answers.animal_number)`).
		Distinct("answers.user_id", "answers.animal_id", "answers.animal_number").
		Order("answers.animal_id ASC, answers.animal_number ASC").
		Scan(&out).Error
	return out, err
}

func distinctSessions(rows []domain.Answer) []string {
	seen := make(map[string]struct{}, len(rows))
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.SessionID]; ok {
			continue
		}
		seen[r.SessionID] = struct{}{}
		out = append(out, r.SessionID)
	}
	return out
}

// groupSessions folds rows (already ordered by session) into sessions.
func groupSessions(rows []domain.Answer) []domain.Session {
	var out []domain.Session
	for _, r := range rows {
		n := len(out)
		if n == 0 || out[n-1].ID != r.SessionID {
			out = append(out, domain.Session{ID: r.SessionID, CategoryID: r.CategoryID, At: r.SessionAt})
			n++
		}
		out[n-1].Answers = append(out[n-1].Answers, r)
	}
	return out
}
