// Course HTTP handlers.
//
// Courses are reachable both top-level (/courses) and nested under their
// bootcamp (/bootcamps/:id/courses). The nested listing scopes the
// query pipeline with an authoritative base filter; the nested create
// injects the bootcamp and user references server-side.
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

// CourseService defines course operations consumed by HTTP handlers.
type CourseService interface {
	List(ctx context.Context, opts query.Options, base bson.M) ([]domain.Course, query.Pagination, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Course, error)
	Create(ctx context.Context, user *domain.User, bootcampID primitive.ObjectID, c *domain.Course) (*domain.Course, error)
	Update(ctx context.Context, user *domain.User, id primitive.ObjectID, fields bson.M) (*domain.Course, error)
	Delete(ctx context.Context, user *domain.User, id primitive.ObjectID) (*domain.Course, error)
}

// CreateCourseRequest is the JSON payload for adding a course to a bootcamp.
type CreateCourseRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description" binding:"required"`
	Weeks        int     `json:"weeks" binding:"required,min=1"`
	Tuition      float64 `json:"tuition" binding:"required,min=0"`
	MinimumSkill string  `json:"minimumSkill" binding:"required,oneof=beginner intermediate advanced"`
	Scholarship  bool    `json:"scholarshipAvailable"`
}

// UpdateCourseRequest is the JSON payload for a partial course update.
type UpdateCourseRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Weeks        *int     `json:"weeks" binding:"omitempty,min=1"`
	Tuition      *float64 `json:"tuition" binding:"omitempty,min=0"`
	MinimumSkill *string  `json:"minimumSkill" binding:"omitempty,oneof=beginner intermediate advanced"`
	Scholarship  *bool    `json:"scholarshipAvailable"`
}

// fields lowers the partial update to the merge document.
func (r UpdateCourseRequest) fields() bson.M {
	m := bson.M{}
	setIf(m, "title", r.Title)
	setIf(m, "description", r.Description)
	setIf(m, "weeks", r.Weeks)
	setIf(m, "tuition", r.Tuition)
	setIf(m, "minimumSkill", r.MinimumSkill)
	setIf(m, "scholarshipAvailable", r.Scholarship)
	return m
}

// ListCourses handles GET /courses and GET /bootcamps/:id/courses.
// The nested form scopes results to the bootcamp; that scope cannot be
// overridden by query parameters.
func (h *Handlers) ListCourses(c *gin.Context) {
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
	items, pg, err := h.courseSvc.List(c.Request.Context(), opts, base)
	if err != nil {
		fail(c, err)
		return
	}
	okList(c, len(items), pg, items)
}

// GetCourse handles GET /courses/:id, with the parent bootcamp's name and
// description attached.
func (h *Handlers) GetCourse(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	course, err := h.courseSvc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, course)
}

// CreateCourse handles POST /bootcamps/:id/courses. Adding a course
// requires owning the bootcamp (or admin).
func (h *Handlers) CreateCourse(c *gin.Context) {
	bootcampID, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	course := &domain.Course{
		Title:        req.Title,
		Description:  req.Description,
		Weeks:        req.Weeks,
		Tuition:      req.Tuition,
		MinimumSkill: req.MinimumSkill,
		Scholarship:  req.Scholarship,
	}
	created, err := h.courseSvc.Create(c.Request.Context(), middleware.CurrentUser(c), bootcampID, course)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, created)
}

// UpdateCourse handles PUT /courses/:id (owner or admin).
func (h *Handlers) UpdateCourse(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), middleware.CurrentUser(c), id, req.fields())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, course)
}

// DeleteCourse handles DELETE /courses/:id (owner or admin), echoing the
// deleted record.
func (h *Handlers) DeleteCourse(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	course, err := h.courseSvc.Delete(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, course)
}
