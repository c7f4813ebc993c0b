package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-bootcamp-backend/internal/domain"
	"github.com/tbourn/go-bootcamp-backend/internal/query"
)

type fakeCourseService struct {
	list   func(ctx context.Context, opts query.Options, base bson.M) ([]domain.Course, query.Pagination, error)
	get    func(ctx context.Context, id primitive.ObjectID) (*domain.Course, error)
	create func(ctx context.Context, user *domain.User, bootcampID primitive.ObjectID, c *domain.Course) (*domain.Course, error)
	update func(ctx context.Context, user *domain.User, id primitive.ObjectID, fields bson.M) (*domain.Course, error)
	delete func(ctx context.Context, user *domain.User, id primitive.ObjectID) (*domain.Course, error)
}

func (f *fakeCourseService) List(ctx context.Context, opts query.Options, base bson.M) ([]domain.Course, query.Pagination, error) {
	return f.list(ctx, opts, base)
}

func (f *fakeCourseService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Course, error) {
	return f.get(ctx, id)
}

func (f *fakeCourseService) Create(ctx context.Context, user *domain.User, bootcampID primitive.ObjectID, c *domain.Course) (*domain.Course, error) {
	return f.create(ctx, user, bootcampID, c)
}

func (f *fakeCourseService) Update(ctx context.Context, user *domain.User, id primitive.ObjectID, fields bson.M) (*domain.Course, error) {
	return f.update(ctx, user, id, fields)
}

func (f *fakeCourseService) Delete(ctx context.Context, user *domain.User, id primitive.ObjectID) (*domain.Course, error) {
	return f.delete(ctx, user, id)
}

func newCourseRouter(svc CourseService, user *domain.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(nil, svc, nil, nil, nil, "/api/v1", 0)
	r := gin.New()
	if user != nil {
		r.Use(asUser(user))
	}
	r.GET("/courses", h.ListCourses)
	r.GET("/courses/:id", h.GetCourse)
	r.PUT("/courses/:id", h.UpdateCourse)
	r.DELETE("/courses/:id", h.DeleteCourse)
	r.GET("/bootcamps/:id/courses", h.ListCourses)
	r.POST("/bootcamps/:id/courses", h.CreateCourse)
	return r
}

func TestListCourses_NestedScope(t *testing.T) {
	bootcampID := primitive.NewObjectID()
	var gotBase bson.M
	svc := &fakeCourseService{
		list: func(ctx context.Context, opts query.Options, base bson.M) ([]domain.Course, query.Pagination, error) {
			gotBase = base
			return nil, query.Pagination{}, nil
		},
	}
	r := newCourseRouter(svc, nil)

	w := doJSON(t, r, http.MethodGet, "/bootcamps/"+bootcampID.Hex()+"/courses", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotBase["bootcamp"] != bootcampID {
		t.Fatalf("base = %v", gotBase)
	}

	w = doJSON(t, r, http.MethodGet, "/courses", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(gotBase) != 0 {
		t.Fatalf("flat base = %v", gotBase)
	}
}

func TestGetCourse_Missing(t *testing.T) {
	svc := &fakeCourseService{
		get: func(ctx context.Context, id primitive.ObjectID) (*domain.Course, error) {
			return nil, mongo.ErrNoDocuments
		},
	}
	w := doJSON(t, newCourseRouter(svc, nil), http.MethodGet, "/courses/"+primitive.NewObjectID().Hex(), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCreateCourse(t *testing.T) {
	user := &domain.User{ID: primitive.NewObjectID(), Role: domain.RolePublisher}
	bootcampID := primitive.NewObjectID()
	svc := &fakeCourseService{
		create: func(ctx context.Context, u *domain.User, gotBootcamp primitive.ObjectID, course *domain.Course) (*domain.Course, error) {
			if gotBootcamp != bootcampID {
				t.Fatalf("bootcamp = %s", gotBootcamp.Hex())
			}
			if course.Title != "Full Stack Web Dev" || course.Weeks != 12 {
				t.Fatalf("course = %+v", course)
			}
			course.ID = primitive.NewObjectID()
			return course, nil
		},
	}
	w := doJSON(t, newCourseRouter(svc, user), http.MethodPost,
		"/bootcamps/"+bootcampID.Hex()+"/courses",
		map[string]any{
			"title":        "Full Stack Web Dev",
			"description":  "Everything end to end",
			"weeks":        12,
			"tuition":      10000,
			"minimumSkill": "intermediate",
		})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateCourse_BadMinimumSkill(t *testing.T) {
	user := &domain.User{ID: primitive.NewObjectID(), Role: domain.RolePublisher}
	svc := &fakeCourseService{
		create: func(ctx context.Context, u *domain.User, id primitive.ObjectID, course *domain.Course) (*domain.Course, error) {
			t.Fatal("service must not be reached")
			return nil, nil
		},
	}
	w := doJSON(t, newCourseRouter(svc, user), http.MethodPost,
		"/bootcamps/"+primitive.NewObjectID().Hex()+"/courses",
		map[string]any{
			"title":        "X",
			"description":  "Y",
			"weeks":        1,
			"tuition":      100,
			"minimumSkill": "guru",
		})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUpdateCourse_PartialMerge(t *testing.T) {
	user := &domain.User{ID: primitive.NewObjectID(), Role: domain.RolePublisher}
	svc := &fakeCourseService{
		update: func(ctx context.Context, u *domain.User, id primitive.ObjectID, fields bson.M) (*domain.Course, error) {
			if len(fields) != 1 || fields["tuition"] != float64(12000) {
				t.Fatalf("fields = %v", fields)
			}
			return &domain.Course{ID: id}, nil
		},
	}
	w := doJSON(t, newCourseRouter(svc, user), http.MethodPut,
		"/courses/"+primitive.NewObjectID().Hex(), map[string]any{"tuition": 12000})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteCourse_EchoesRecord(t *testing.T) {
	user := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleAdmin}
	svc := &fakeCourseService{
		delete: func(ctx context.Context, u *domain.User, id primitive.ObjectID) (*domain.Course, error) {
			return &domain.Course{ID: id, Title: "Gone"}, nil
		},
	}
	w := doJSON(t, newCourseRouter(svc, user), http.MethodDelete, "/courses/"+primitive.NewObjectID().Hex(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if data := decodeBody(t, w)["data"].(map[string]any); data["title"] != "Gone" {
		t.Fatalf("data = %v", data)
	}
}
