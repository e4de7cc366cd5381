// Package handlers exposes the answer engine over HTTP.
//
// Handlers are transport-thin: they parse route parameters and bodies, call
// the record, view and yield services, and translate results into the shared
// response envelopes. The acting user comes from middleware.UserID.
package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-livestock-backend/internal/domain"
	"github.com/tbourn/go-livestock-backend/internal/http/middleware"
	"github.com/tbourn/go-livestock-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// RecordService writes animal answers.
type RecordService interface {
	Create(ctx context.Context, userID uint, in services.CreateInput) ([]services.WriteResult, error)
	Write(ctx context.Context, userID uint, in services.WriteInput) (*services.WriteResult, error)
	Retire(ctx context.Context, userID, animalID uint, number string) error
	ListInstances(ctx context.Context, userID uint) ([]domain.InstanceKey, error)
}

// ViewService reads grouped category views and session history.
type ViewService interface {
	View(ctx context.Context, q services.ViewQuery) (services.GroupedView, error)
	Sessions(ctx context.Context, userID, animalID uint, number string, categoryID uint) ([]domain.Session, error)
	Stats(ctx context.Context, userID, animalID uint, number string) (int64, *time.Time, error)
}

// YieldService reads the yield history timeline.
type YieldService interface {
	History(ctx context.Context, userID, animalID uint, number string) ([]domain.YieldHistory, error)
	Stats(ctx context.Context, userID, animalID uint, number string) (int64, *time.Time, error)
}

// IdempotencyStore remembers completed writes so a retried request with the
// same Idempotency-Key is answered from the record. Save is best effort.
type IdempotencyStore interface {
	Save(ctx context.Context, userID uint, scope, key string, res *services.WriteResult, status int) error
}

//
// Handler wiring
//

// Handlers groups the animal, answer and view endpoints.
type Handlers struct {
	records RecordService
	views   ViewService
	yields  YieldService
	idem    IdempotencyStore
}

// New constructs Handlers bound to the given services. idem may be nil, in
// which case Idempotency-Key headers are validated but nothing is stored.
func New(records RecordService, views ViewService, yields YieldService, idem IdempotencyStore) *Handlers {
	return &Handlers{records: records, views: views, yields: yields, idem: idem}
}

// userID returns the id resolved by middleware.UserID, or 0 when the route
// is mounted without it (services reject 0 as invalid input).
func userID(c *gin.Context) uint {
	uid, _ := middleware.UserIDFrom(c)
	return uid
}

// instanceParams reads :animal_id and :number.
func instanceParams(c *gin.Context) (animalID uint, number string, ok bool) {
	id, err := strconv.ParseUint(c.Param("animal_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, "", false
	}
	return uint(id), strings.TrimSpace(c.Param("number")), true
}

// parseID parses a positive numeric id; empty input yields (0, true).
func parseID(raw string) (uint, bool) {
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// weakETag formats a weak validator from a row count and newest write time.
func weakETag(kind string, animalID uint, number string, count int64, latest *time.Time, extra ...string) string {
	var ts int64
	if latest != nil {
		ts = latest.UnixMicro()
	}
	parts := append([]string{
		kind,
		strconv.FormatUint(uint64(animalID), 10),
		number,
		strconv.FormatInt(count, 10),
		strconv.FormatInt(ts, 10),
	}, extra...)
	return `W/"` + strings.Join(parts, ":") + `"`
}
