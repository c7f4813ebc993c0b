package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-bootcamp-backend/internal/domain"
	"github.com/tbourn/go-bootcamp-backend/internal/query"
)

type fakeReviewService struct {
	list   func(ctx context.Context, opts query.Options, base bson.M) ([]domain.Review, query.Pagination, error)
	get    func(ctx context.Context, id primitive.ObjectID) (*domain.Review, error)
	create func(ctx context.Context, user *domain.User, bootcampID primitive.ObjectID, r *domain.Review) (*domain.Review, error)
	update func(ctx context.Context, user *domain.User, id primitive.ObjectID, fields bson.M) (*domain.Review, error)
	delete func(ctx context.Context, user *domain.User, id primitive.ObjectID) (*domain.Review, error)
}

func (f *fakeReviewService) List(ctx context.Context, opts query.Options, base bson.M) ([]domain.Review, query.Pagination, error) {
	return f.list(ctx, opts, base)
}

func (f *fakeReviewService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	return f.get(ctx, id)
}

func (f *fakeReviewService) Create(ctx context.Context, user *domain.User, bootcampID primitive.ObjectID, r *domain.Review) (*domain.Review, error) {
	return f.create(ctx, user, bootcampID, r)
}

func (f *fakeReviewService) Update(ctx context.Context, user *domain.User, id primitive.ObjectID, fields bson.M) (*domain.Review, error) {
	return f.update(ctx, user, id, fields)
}

func (f *fakeReviewService) Delete(ctx context.Context, user *domain.User, id primitive.ObjectID) (*domain.Review, error) {
	return f.delete(ctx, user, id)
}

func newReviewRouter(svc ReviewService, user *domain.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(nil, nil, svc, nil, nil, "/api/v1", 0)
	r := gin.New()
	if user != nil {
		r.Use(asUser(user))
	}
	r.GET("/reviews", h.ListReviews)
	r.GET("/reviews/:id", h.GetReview)
	r.PUT("/reviews/:id", h.UpdateReview)
	r.DELETE("/reviews/:id", h.DeleteReview)
	r.GET("/bootcamps/:id/reviews", h.ListReviews)
	r.POST("/bootcamps/:id/reviews", h.CreateReview)
	return r
}

func TestListReviews_NestedScope(t *testing.T) {
	bootcampID := primitive.NewObjectID()
	var gotBase bson.M
	svc := &fakeReviewService{
		list: func(ctx context.Context, opts query.Options, base bson.M) ([]domain.Review, query.Pagination, error) {
			gotBase = base
			return []domain.Review{{Title: "Great"}}, query.Pagination{Total: 1, Page: 1, Limit: 25}, nil
		},
	}
	w := doJSON(t, newReviewRouter(svc, nil), http.MethodGet, "/bootcamps/"+bootcampID.Hex()+"/reviews", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotBase["bootcamp"] != bootcampID {
		t.Fatalf("base = %v", gotBase)
	}
	if body := decodeBody(t, w); body["count"] != float64(1) {
		t.Fatalf("body = %v", body)
	}
}

func TestCreateReview(t *testing.T) {
	user := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleUser}
	bootcampID := primitive.NewObjectID()
	svc := &fakeReviewService{
		create: func(ctx context.Context, u *domain.User, gotBootcamp primitive.ObjectID, rv *domain.Review) (*domain.Review, error) {
			if gotBootcamp != bootcampID || rv.Rating != 8 {
				t.Fatalf("args = %s %+v", gotBootcamp.Hex(), rv)
			}
			rv.ID = primitive.NewObjectID()
			rv.User = u.ID
			return rv, nil
		},
	}
	w := doJSON(t, newReviewRouter(svc, user), http.MethodPost,
		"/bootcamps/"+bootcampID.Hex()+"/reviews",
		map[string]any{"title": "Learned a lot", "text": "Would recommend", "rating": 8})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateReview_RatingBounds(t *testing.T) {
	user := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleUser}
	svc := &fakeReviewService{
		create: func(ctx context.Context, u *domain.User, id primitive.ObjectID, rv *domain.Review) (*domain.Review, error) {
			t.Fatal("service must not be reached")
			return nil, nil
		},
	}
	w := doJSON(t, newReviewRouter(svc, user), http.MethodPost,
		"/bootcamps/"+primitive.NewObjectID().Hex()+"/reviews",
		map[string]any{"title": "x", "text": "y", "rating": 11})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decodeBody(t, w)["error"].(string); !strings.Contains(msg, "rating") {
		t.Fatalf("error = %q", msg)
	}
}

func TestCreateReview_Duplicate(t *testing.T) {
	user := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleUser}
	svc := &fakeReviewService{
		create: func(ctx context.Context, u *domain.User, id primitive.ObjectID, rv *domain.Review) (*domain.Review, error) {
			return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{
				Code:    11000,
				Message: `E11000 duplicate key error collection: devcamper.reviews index: bootcamp_1_user_1 dup key: { bootcamp: ObjectId('...'), user: ObjectId('...') }`,
			}}}
		},
	}
	w := doJSON(t, newReviewRouter(svc, user), http.MethodPost,
		"/bootcamps/"+primitive.NewObjectID().Hex()+"/reviews",
		map[string]any{"title": "x", "text": "y", "rating": 5})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decodeBody(t, w)["error"].(string); !strings.HasPrefix(msg, "Duplicate field value entered") {
		t.Fatalf("error = %q", msg)
	}
}

func TestUpdateReview_PartialMerge(t *testing.T) {
	user := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleUser}
	svc := &fakeReviewService{
		update: func(ctx context.Context, u *domain.User, id primitive.ObjectID, fields bson.M) (*domain.Review, error) {
			if len(fields) != 1 || fields["rating"] != 9 {
				t.Fatalf("fields = %v", fields)
			}
			return &domain.Review{ID: id, Rating: 9}, nil
		},
	}
	w := doJSON(t, newReviewRouter(svc, user), http.MethodPut,
		"/reviews/"+primitive.NewObjectID().Hex(), map[string]any{"rating": 9})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteReview_Missing(t *testing.T) {
	user := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleUser}
	svc := &fakeReviewService{
		delete: func(ctx context.Context, u *domain.User, id primitive.ObjectID) (*domain.Review, error) {
			return nil, mongo.ErrNoDocuments
		},
	}
	w := doJSON(t, newReviewRouter(svc, user), http.MethodDelete, "/reviews/"+primitive.NewObjectID().Hex(), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}
