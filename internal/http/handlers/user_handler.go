// User admin HTTP handlers.
//
// The /users routes are the admin-only CRUD surface over accounts. Every
// route in this family sits behind Protect + Authorize(admin).
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tbourn/go-bootcamp-backend/internal/domain"
	"github.com/tbourn/go-bootcamp-backend/internal/query"
)

// UserService defines admin user operations consumed by HTTP handlers.
type UserService interface {
	List(ctx context.Context, opts query.Options) ([]domain.User, query.Pagination, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	Create(ctx context.Context, u *domain.User, password string) (*domain.User, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M, password string) (*domain.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// CreateUserRequest is the JSON payload for creating an account.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=user publisher admin"`
}

// UpdateUserRequest is the JSON payload for a partial account update.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6"`
	Role     *string `json:"role" binding:"omitempty,oneof=user publisher admin"`
}

// ListUsers handles GET /users (admin).
func (h *Handlers) ListUsers(c *gin.Context) {
	opts := query.Parse(c.Request.URL.Query())
	items, pg, err := h.userSvc.List(c.Request.Context(), opts)
	if err != nil {
		fail(c, err)
		return
	}
	okList(c, len(items), pg, items)
}

// GetUser handles GET /users/:id (admin).
func (h *Handlers) GetUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	u, err := h.userSvc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// CreateUser handles POST /users (admin).
func (h *Handlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	u := &domain.User{Name: req.Name, Email: req.Email, Role: req.Role}
	created, err := h.userSvc.Create(c.Request.Context(), u, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, created)
}

// UpdateUser handles PUT /users/:id (admin).
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	fields := bson.M{}
	setIf(fields, "name", req.Name)
	setIf(fields, "email", req.Email)
	setIf(fields, "role", req.Role)
	password := ""
	if req.Password != nil {
		password = *req.Password
	}

	u, err := h.userSvc.Update(c.Request.Context(), id, fields, password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteUser handles DELETE /users/:id (admin), echoing the deleted record.
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	u, err := h.userSvc.Delete(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
