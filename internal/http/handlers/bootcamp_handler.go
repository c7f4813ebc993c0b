// Bootcamp HTTP handlers.
//
// This file exposes REST endpoints for the bootcamp resource:
//   - GET    /bootcamps                          (list, query pipeline)
//   - GET    /bootcamps/:id                      (single)
//   - POST   /bootcamps                          (create, publisher/admin)
//   - PUT    /bootcamps/:id                      (update, owner/admin)
//   - DELETE /bootcamps/:id                      (delete + cascade, owner/admin)
//   - GET    /bootcamps/radius/:zipcode/:distance (geospatial)
//   - PUT    /bootcamps/:id/photo                (multipart upload, owner/admin)
//
// Handlers are transport-thin: they validate input, call application
// services, and shape JSON envelopes. Every error goes through fail().
package handlers

import (
	"context"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tbourn/go-bootcamp-backend/internal/apperr"
	"github.com/tbourn/go-bootcamp-backend/internal/domain"
	"github.com/tbourn/go-bootcamp-backend/internal/http/middleware"
	"github.com/tbourn/go-bootcamp-backend/internal/query"
)

//
// Service contracts (context-aware)
//

// BootcampService defines bootcamp operations consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation.
type BootcampService interface {
	List(ctx context.Context, opts query.Options) ([]domain.Bootcamp, query.Pagination, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Bootcamp, error)
	Create(ctx context.Context, user *domain.User, b *domain.Bootcamp) (*domain.Bootcamp, error)
	Update(ctx context.Context, user *domain.User, id primitive.ObjectID, fields bson.M) (*domain.Bootcamp, error)
	Delete(ctx context.Context, user *domain.User, id primitive.ObjectID) (*domain.Bootcamp, error)
	WithinRadius(ctx context.Context, zipcode string, distance float64) ([]domain.Bootcamp, error)
	UploadPhoto(ctx context.Context, user *domain.User, id primitive.ObjectID, header *multipart.FileHeader) (string, error)
}

//
// DTOs
//

// CreateBootcampRequest is the JSON payload for creating a bootcamp.
type CreateBootcampRequest struct {
	Name          string   `json:"name" binding:"required,max=50"`
	Description   string   `json:"description" binding:"required,max=500"`
	Website       string   `json:"website" binding:"omitempty,url"`
	Phone         string   `json:"phone" binding:"omitempty,max=20"`
	Email         string   `json:"email" binding:"omitempty,email"`
	Address       string   `json:"address" binding:"required"`
	Careers       []string `json:"careers" binding:"required"`
	Housing       bool     `json:"housing"`
	JobAssistance bool     `json:"jobAssistance"`
	JobGuarantee  bool     `json:"jobGuarantee"`
	AcceptGI      bool     `json:"acceptGi"`
}

// UpdateBootcampRequest is the JSON payload for a partial bootcamp update.
// Only non-nil fields are merged; validation re-runs on the merged values.
type UpdateBootcampRequest struct {
	Name          *string   `json:"name" binding:"omitempty,max=50"`
	Description   *string   `json:"description" binding:"omitempty,max=500"`
	Website       *string   `json:"website" binding:"omitempty,url"`
	Phone         *string   `json:"phone" binding:"omitempty,max=20"`
	Email         *string   `json:"email" binding:"omitempty,email"`
	Careers       *[]string `json:"careers"`
	Housing       *bool     `json:"housing"`
	JobAssistance *bool     `json:"jobAssistance"`
	JobGuarantee  *bool     `json:"jobGuarantee"`
	AcceptGI      *bool     `json:"acceptGi"`
}

// fields lowers the partial update to the merge document.
func (r UpdateBootcampRequest) fields() bson.M {
	m := bson.M{}
	setIf(m, "name", r.Name)
	setIf(m, "description", r.Description)
	setIf(m, "website", r.Website)
	setIf(m, "phone", r.Phone)
	setIf(m, "email", r.Email)
	setIf(m, "careers", r.Careers)
	setIf(m, "housing", r.Housing)
	setIf(m, "jobAssistance", r.JobAssistance)
	setIf(m, "jobGuarantee", r.JobGuarantee)
	setIf(m, "acceptGi", r.AcceptGI)
	return m
}

// setIf adds a dereferenced pointer field to the merge document when set.
func setIf[T any](m bson.M, key string, v *T) {
	if v != nil {
		m[key] = *v
	}
}

//
// Helpers
//

// pathID parses the :id route parameter as an ObjectID. A malformed id is
// handed to the translator, which renders it as 404.
func pathID(c *gin.Context, name string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.Param(name))
}

//
// Handlers
//

// ListBootcamps handles GET /bootcamps with filter/sort/select/page/limit
// query parameters.
func (h *Handlers) ListBootcamps(c *gin.Context) {
	opts := query.Parse(c.Request.URL.Query())
	items, pg, err := h.bootcampSvc.List(c.Request.Context(), opts)
	if err != nil {
		fail(c, err)
		return
	}
	okList(c, len(items), pg, items)
}

// GetBootcamp handles GET /bootcamps/:id.
func (h *Handlers) GetBootcamp(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	b, err := h.bootcampSvc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, b)
}

// CreateBootcamp handles POST /bootcamps. The route is role-gated to
// publisher/admin; the publisher single-bootcamp rule lives in the service.
func (h *Handlers) CreateBootcamp(c *gin.Context) {
	var req CreateBootcampRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	b := &domain.Bootcamp{
		Name:          req.Name,
		Description:   req.Description,
		Website:       req.Website,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		Careers:       req.Careers,
		Housing:       req.Housing,
		JobAssistance: req.JobAssistance,
		JobGuarantee:  req.JobGuarantee,
		AcceptGI:      req.AcceptGI,
	}
	created, err := h.bootcampSvc.Create(c.Request.Context(), middleware.CurrentUser(c), b)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, created)
}

// UpdateBootcamp handles PUT /bootcamps/:id (owner or admin).
func (h *Handlers) UpdateBootcamp(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req UpdateBootcampRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	b, err := h.bootcampSvc.Update(c.Request.Context(), middleware.CurrentUser(c), id, req.fields())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, b)
}

// DeleteBootcamp handles DELETE /bootcamps/:id (owner or admin). Courses and
// reviews of the bootcamp are removed as an explicit cascade; the deleted
// record is echoed back.
func (h *Handlers) DeleteBootcamp(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	b, err := h.bootcampSvc.Delete(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, b)
}

// BootcampsInRadius handles GET /bootcamps/radius/:zipcode/:distance.
func (h *Handlers) BootcampsInRadius(c *gin.Context) {
	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil || distance <= 0 {
		fail(c, apperr.BadRequest("Distance must be a positive number"))
		return
	}
	items, err := h.bootcampSvc.WithinRadius(c.Request.Context(), c.Param("zipcode"), distance)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(items), "data": items})
}

// UploadBootcampPhoto handles PUT /bootcamps/:id/photo (multipart form,
// field name "file"). Validation order: record, file present, image type,
// size cap; the photo field is only written after the file is on disk.
func (h *Handlers) UploadBootcampPhoto(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		// Existence of the record is still checked first, matching the
		// documented validation order.
		if _, gerr := h.bootcampSvc.Get(c.Request.Context(), id); gerr != nil {
			fail(c, gerr)
			return
		}
		fail(c, apperr.BadRequest("Please upload a file"))
		return
	}

	filename, err := h.bootcampSvc.UploadPhoto(c.Request.Context(), middleware.CurrentUser(c), id, header)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, filename)
}
