// Animal HTTP handlers.
//
// This file exposes REST endpoints for animal instances:
//   - POST   /animals                        (register with initial answers)
//   - GET    /animals                        (list active instances, paginated)
//   - DELETE /animals/{animal_id}/{number}   (retire: sold or dead)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-livestock-backend/internal/domain"
	"github.com/tbourn/go-livestock-backend/internal/services"
	"github.com/tbourn/go-livestock-backend/internal/utils"
)

//
// DTOs
//

// CreateAnimalResponse describes a registered instance and the sessions
// written for it, one per question category.
type CreateAnimalResponse struct {
	Animal   domain.InstanceKey     `json:"animal"`
	Sessions []services.WriteResult `json:"sessions"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListAnimalsResponse wraps a page of instances and pagination information.
type ListAnimalsResponse struct {
	Animals    []domain.InstanceKey `json:"animals"`
	Pagination Pagination           `json:"pagination"`
}

//
// Handlers
//

// CreateAnimal godoc
// @ID          createAnimal
// @Summary     Register an animal
// @Description Registers an animal number under an animal type with its initial answers.
// @Description Answers are grouped into one session per question category.
// @Tags        Animals
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  int                    true  "Acting user id"  example(42)
// @Param       body       body    services.CreateInput   true  "Animal and initial answers"
//
// @Success     201  {object}  handlers.CreateAnimalResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing user"
// @Failure     409  {object}  handlers.ErrorResponse  "Animal number already active"
// @Failure     422  {object}  handlers.ErrorResponse  "Unknown animal or question"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /animals [post]
func (h *Handlers) CreateAnimal(c *gin.Context) {
	var req services.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "animal_id, animal_number and answers are required")
		return
	}
	uid := userID(c)
	res, err := h.records.Create(c.Request.Context(), uid, req)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusCreated, CreateAnimalResponse{
		Animal:   domain.InstanceKey{UserID: uid, AnimalID: req.AnimalID, AnimalNumber: req.AnimalNumber},
		Sessions: res,
	})
}

// ListAnimals godoc
// @ID          listAnimals
// @Summary     List active animals
// @Description Returns a page of the user's active animal instances.
// @Tags        Animals
// @Produce     json
//
// @Param       X-User-ID  header  int  true   "Acting user id"  example(42)
// @Param       page       query   int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query   int  false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListAnimalsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing user"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /animals [get]
func (h *Handlers) ListAnimals(c *gin.Context) {
	page, size := utils.ClampPage(c.Query("page"), c.Query("page_size"), 20, 100)

	all, err := h.records.ListInstances(c.Request.Context(), userID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	start, end, pages := utils.Window(len(all), page, size)
	ok(c, http.StatusOK, ListAnimalsResponse{
		Animals: all[start:end],
		Pagination: Pagination{
			Page:       page,
			PageSize:   size,
			Total:      int64(len(all)),
			TotalPages: pages,
			HasNext:    page < pages,
		},
	})
}

// RetireAnimal godoc
// @ID          retireAnimal
// @Summary     Retire an animal
// @Description Marks every active answer of the animal as retired and clears its yield history.
// @Description The animal number can then be registered again.
// @Tags        Animals
//
// @Param       X-User-ID  header  int     true  "Acting user id"  example(42)
// @Param       animal_id  path    int     true  "Animal type id"
// @Param       number     path    string  true  "Animal number"
//
// @Success     204  "Retired"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Animal not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /animals/{animal_id}/{number} [delete]
func (h *Handlers) RetireAnimal(c *gin.Context) {
	animalID, number, valid := instanceParams(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "animal_id must be a positive integer")
		return
	}
	if err := h.records.Retire(c.Request.Context(), userID(c), animalID, number); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}
