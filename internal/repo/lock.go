// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the write serialization used by the
// answer store: a transaction-scoped advisory lock per animal instance and
// row locks on sessions about to be replaced.
package repo

import (
	"context"
	"fmt"
	"hash/fnv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-livestock-backend/internal/domain"
)

// supportsRowLocks reports whether the dialect understands SELECT ... FOR UPDATE
// and advisory locks. SQLite serializes writers on its own.
func supportsRowLocks(db *gorm.DB) bool {
	return db.Dialector != nil && db.Dialector.Name() == "postgres"
}

// LockScope returns the advisory lock key for writes to one instance.
func LockScope(key domain.InstanceKey) int64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%d|%d|%s", key.UserID, key.AnimalID, key.AnimalNumber)
	return int64(h.Sum64())
}

// LockInstance takes a transaction-scoped advisory lock for key.
// It must be called with a transaction handle; the lock is released on commit
// or rollback. On SQLite it is a no-op.
func LockInstance(ctx context.Context, tx *gorm.DB, key domain.InstanceKey) error {
	if !supportsRowLocks(tx) {
		return nil
	}
	return tx.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", LockScope(key)).Error
}

// forUpdate adds FOR UPDATE OF <statement table> to a query when the dialect
// supports it. Joined catalog tables stay unlocked.
func forUpdate(q *gorm.DB) *gorm.DB {
	if !supportsRowLocks(q) {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: clause.CurrentTable}})
}
