// View HTTP handlers.
//
//   - GET /animals/{animal_id}/{number}/view            (grouped category view)
//   - GET /animals/{animal_id}/{number}/yield-history   (yield timeline)
//
// Both support weak ETags via If-None-Match and may return 304.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-livestock-backend/internal/domain"
	"github.com/tbourn/go-livestock-backend/internal/services"
)

// YieldHistoryResponse wraps the timeline of one animal, ordered by date.
type YieldHistoryResponse struct {
	History []domain.YieldHistory `json:"history"`
}

// GetView godoc
// @ID          getView
// @Summary     Grouped category view
// @Description Returns every applicable question grouped by category and subcategory,
// @Description localized to lang (falling back to the master text), with the latest
// @Description active answer attached. Supports weak ETag via If-None-Match.
// @Tags        Views
// @Produce     json
//
// @Param       X-User-ID    header  int     true   "Acting user id"  example(42)
// @Param       animal_id    path    int     true   "Animal type id"
// @Param       number       path    string  true   "Animal number"
// @Param       lang         query   string  false  "BCP 47 language tag"  example(mr-IN)
// @Param       category_id  query   int     false  "Restrict to one category"
//
// @Success     200  {object}  services.GroupedView
// @Success     304  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     422  {object}  handlers.ErrorResponse  "Unknown animal, category or language"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /animals/{animal_id}/{number}/view [get]
func (h *Handlers) GetView(c *gin.Context) {
	animalID, number, valid := instanceParams(c)
	categoryID, catOK := parseID(c.Query("category_id"))
	if !valid || !catOK {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "animal_id and category_id must be positive integers")
		return
	}
	ctx := c.Request.Context()
	uid := userID(c)
	lang := c.Query("lang")

	if count, latest, err := h.views.Stats(ctx, uid, animalID, number); err == nil {
		etag := weakETag("view", animalID, number, count, latest, lang, c.Query("category_id"))
		if notModified(c, etag) {
			return
		}
	}

	view, err := h.views.View(ctx, services.ViewQuery{
		UserID:       uid,
		AnimalID:     animalID,
		AnimalNumber: number,
		Language:     lang,
		CategoryID:   categoryID,
	})
	if err != nil {
		c.Writer.Header().Del("ETag")
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}

// GetYieldHistory godoc
// @ID          getYieldHistory
// @Summary     Yield history
// @Description Returns the lactation and pregnancy timeline of an animal ordered by date.
// @Description The first read per user backfills timelines of animals recorded before
// @Description history tracking existed.
// @Tags        Views
// @Produce     json
//
// @Param       X-User-ID  header  int     true  "Acting user id"  example(42)
// @Param       animal_id  path    int     true  "Animal type id"
// @Param       number     path    string  true  "Animal number"
//
// @Success     200  {object}  handlers.YieldHistoryResponse
// @Success     304  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Animal not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /animals/{animal_id}/{number}/yield-history [get]
func (h *Handlers) GetYieldHistory(c *gin.Context) {
	animalID, number, valid := instanceParams(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "animal_id must be a positive integer")
		return
	}
	ctx := c.Request.Context()
	uid := userID(c)

	if count, latest, err := h.yields.Stats(ctx, uid, animalID, number); err == nil && count > 0 {
		if notModified(c, weakETag("yield", animalID, number, count, latest)) {
			return
		}
	}

	rows, err := h.yields.History(ctx, uid, animalID, number)
	if err != nil {
		c.Writer.Header().Del("ETag")
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, YieldHistoryResponse{History: rows})
}
