// Review HTTP handlers.
//
// Reviews mirror the course routing shape: top-level reads plus nested
// listing/creation under a bootcamp. Creation is limited to the user role
// (publishers cannot review); one review per (user, bootcamp) pair is
// enforced by a unique index, surfacing as a 400 duplicate-key response.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tbourn/go-bootcamp-backend/internal/domain"
	"github.com/tbourn/go-bootcamp-backend/internal/http/middleware"
	"github.com/tbourn/go-bootcamp-backend/internal/query"
)

// ReviewService defines review operations consumed by HTTP handlers.
type ReviewService interface {
	List(ctx context.Context, opts query.Options, base bson.M) ([]domain.Review, query.Pagination, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Review, error)
	Create(ctx context.Context, user *domain.User, bootcampID primitive.ObjectID, r *domain.Review) (*domain.Review, error)
	Update(ctx context.Context, user *domain.User, id primitive.ObjectID, fields bson.M) (*domain.Review, error)
	Delete(ctx context.Context, user *domain.User, id primitive.ObjectID) (*domain.Review, error)
}

// CreateReviewRequest is the JSON payload for reviewing a bootcamp.
type CreateReviewRequest struct {
	Title  string `json:"title" binding:"required,max=100"`
	Text   string `json:"text" binding:"required"`
	Rating int    `json:"rating" binding:"required,min=1,max=10"`
}

// UpdateReviewRequest is the JSON payload for a partial review update.
type UpdateReviewRequest struct {
	Title  *string `json:"title" binding:"omitempty,max=100"`
	Text   *string `json:"text"`
	Rating *int    `json:"rating" binding:"omitempty,min=1,max=10"`
}

// fields lowers the partial update to the merge document.
func (r UpdateReviewRequest) fields() bson.M {
	m := bson.M{}
	setIf(m, "title", r.Title)
	setIf(m, "text", r.Text)
	setIf(m, "rating", r.Rating)
	return m
}

// ListReviews handles GET /reviews and GET /bootcamps/:id/reviews.
func (h *Handlers) ListReviews(c *gin.Context) {
	base := bson.M{}
	if raw := c.Param("id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			fail(c, err)
			return
		}
		base["bootcamp"] = id
	}

	opts := query.Parse(c.Request.URL.Query())
	items, pg, err := h.reviewSvc.List(c.Request.Context(), opts, base)
	if err != nil {
		fail(c, err)
		return
	}
	okList(c, len(items), pg, items)
}

// GetReview handles GET /reviews/:id, with the bootcamp's name and
// description attached.
func (h *Handlers) GetReview(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	review, err := h.reviewSvc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, review)
}

// CreateReview handles POST /bootcamps/:id/reviews (user/admin).
func (h *Handlers) CreateReview(c *gin.Context) {
	bootcampID, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	review := &domain.Review{Title: req.Title, Text: req.Text, Rating: req.Rating}
	created, err := h.reviewSvc.Create(c.Request.Context(), middleware.CurrentUser(c), bootcampID, review)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, created)
}

// UpdateReview handles PUT /reviews/:id (owner or admin).
func (h *Handlers) UpdateReview(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	review, err := h.reviewSvc.Update(c.Request.Context(), middleware.CurrentUser(c), id, req.fields())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, review)
}

// DeleteReview handles DELETE /reviews/:id (owner or admin), echoing the
// deleted record.
func (h *Handlers) DeleteReview(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	review, err := h.reviewSvc.Delete(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, review)
}
