// Answer HTTP handlers.
//
// This file exposes REST endpoints for category answers:
//   - POST /animals/{animal_id}/{number}/categories/{category_id}/answers
//   - GET  /animals/{animal_id}/{number}/categories/{category_id}/sessions
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous write
// exists for (user, animal, category, key), the stored outcome is returned
// with `Idempotency-Replayed: true` and nothing is written.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-livestock-backend/internal/domain"
	"github.com/tbourn/go-livestock-backend/internal/http/middleware"
	"github.com/tbourn/go-livestock-backend/internal/services"
)

//
// DTOs
//

// WriteAnswersRequest is the JSON payload of a category write. Date is
// required for breeding, milk and health categories (YYYY-MM-DD or
// DD-MM-YYYY).
type WriteAnswersRequest struct {
	Date    string                 `json:"date,omitempty" example:"2025-01-10"`
	Answers []services.AnswerInput `json:"answers" binding:"required"`
}

// WriteAnswersResponse reports the session a write produced.
type WriteAnswersResponse struct {
	SessionID  string     `json:"session_id"`
	SessionAt  *time.Time `json:"session_at,omitempty"`
	CategoryID uint       `json:"category_id"`
	Mode       string     `json:"mode" example:"append"`
	Replaced   []string   `json:"replaced_sessions,omitempty"`
	Companions int        `json:"companion_answers,omitempty"`
	Replayed   bool       `json:"replayed,omitempty"`
}

// ListSessionsResponse lists a category's sessions, newest first.
type ListSessionsResponse struct {
	Sessions []domain.Session `json:"sessions"`
}

//
// Handlers
//

// WriteAnswers godoc
// @ID          writeAnswers
// @Summary     Record category answers
// @Description Records one category's answers for an existing animal. Depending on the
// @Description category, earlier sessions of the same day or date are replaced.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Answers
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  int     true   "Acting user id"  example(42)
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       animal_id        path    int     true   "Animal type id"
// @Param       number           path    string  true   "Animal number"
// @Param       category_id      path    int     true   "Question category id"
// @Param       body             body    handlers.WriteAnswersRequest  true  "Answers"
//
// @Success     201  {object}  handlers.WriteAnswersResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Animal not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Inconsistent yield history"
// @Failure     422  {object}  handlers.ErrorResponse  "Unknown category or question"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /animals/{animal_id}/{number}/categories/{category_id}/answers [post]
func (h *Handlers) WriteAnswers(c *gin.Context) {
	animalID, number, valid := instanceParams(c)
	categoryID, catOK := parseID(c.Param("category_id"))
	if !valid || !catOK || categoryID == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "animal_id and category_id must be positive integers")
		return
	}

	if rec, replay := middleware.Replayed(c); replay {
		c.Header("Idempotency-Replayed", "true")
		ok(c, rec.Status, WriteAnswersResponse{
			SessionID:  rec.SessionID,
			CategoryID: categoryID,
			Mode:       rec.Mode,
			Replayed:   true,
		})
		return
	}

	var req WriteAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "answers required")
		return
	}

	ctx := c.Request.Context()
	uid := userID(c)
	res, err := h.records.Write(ctx, uid, services.WriteInput{
		AnimalID:     animalID,
		AnimalNumber: number,
		CategoryID:   categoryID,
		Date:         req.Date,
		Answers:      req.Answers,
	})
	if err != nil {
		serviceError(c, err)
		return
	}

	if key, has := middleware.GetIdempotencyKey(c); has && h.idem != nil {
		if err := h.idem.Save(ctx, uid, middleware.IdempotencyScope(c), key, res, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not saved")
		}
	}

	at := res.SessionAt
	ok(c, http.StatusCreated, WriteAnswersResponse{
		SessionID:  res.SessionID,
		SessionAt:  &at,
		CategoryID: res.CategoryID,
		Mode:       res.Mode,
		Replaced:   res.Replaced,
		Companions: res.Companions,
	})
}

// ListSessions godoc
// @ID          listSessions
// @Summary     List category sessions
// @Description Returns every active session of one category of an animal, newest first.
// @Tags        Answers
// @Produce     json
//
// @Param       X-User-ID    header  int     true  "Acting user id"  example(42)
// @Param       animal_id    path    int     true  "Animal type id"
// @Param       number       path    string  true  "Animal number"
// @Param       category_id  path    int     true  "Question category id"
//
// @Success     200  {object}  handlers.ListSessionsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Animal not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Unknown category"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /animals/{animal_id}/{number}/categories/{category_id}/sessions [get]
func (h *Handlers) ListSessions(c *gin.Context) {
	animalID, number, valid := instanceParams(c)
	categoryID, catOK := parseID(c.Param("category_id"))
	if !valid || !catOK || categoryID == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "animal_id and category_id must be positive integers")
		return
	}
	sessions, err := h.views.Sessions(c.Request.Context(), userID(c), animalID, number, categoryID)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, ListSessionsResponse{Sessions: sessions})
}
