package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-bootcamp-backend/internal/apperr"
	"github.com/tbourn/go-bootcamp-backend/internal/domain"
	"github.com/tbourn/go-bootcamp-backend/internal/query"
)

// CourseRepo defines the persistence contract required by CourseService.
type CourseRepo interface {
	Create(ctx context.Context, db *mongo.Database, c *domain.Course) (*domain.Course, error)
	Get(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Course, error)
	Update(ctx context.Context, db *mongo.Database, id primitive.ObjectID, fields bson.M) (*domain.Course, error)
	Delete(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error
	GetBootcamp(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Bootcamp, error)
	RecomputeAverageCost(ctx context.Context, db *mongo.Database, bootcampID primitive.ObjectID) error
	AttachBootcampInfo(ctx context.Context, db *mongo.Database, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.BootcampRef, error)
}

// CourseService manages the course resource. A course always belongs to one
// bootcamp and cannot outlive it; mutation requires owning the course or the
// admin role.
type CourseService struct {
	DB   *mongo.Database
	Repo CourseRepo
}

// List runs the query pipeline over the courses collection. A non-nil base
// filter (e.g. bootcamp scoping from the nested route) is authoritative.
// The parent bootcamp's name and description are attached to each result.
func (s *CourseService) List(ctx context.Context, opts query.Options, base bson.M) ([]domain.Course, query.Pagination, error) {
	out := []domain.Course{}
	pg, err := opts.Run(ctx, s.DB.Collection("courses"), base, &out)
	if err != nil {
		return nil, query.Pagination{}, err
	}
	if err := s.populate(ctx, out); err != nil {
		return nil, query.Pagination{}, err
	}
	return out, pg, nil
}

// Get returns one course with its bootcamp reference populated.
func (s *CourseService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Course, error) {
	c, err := s.Repo.Get(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	courses := []domain.Course{*c}
	if err := s.populate(ctx, courses); err != nil {
		return nil, err
	}
	return &courses[0], nil
}

// Create adds a course to a bootcamp. The bootcamp must exist, and the caller
// must own it (or be an admin). The owning user and bootcamp references are
// injected server-side, never taken from the request body.
func (s *CourseService) Create(ctx context.Context, user *domain.User, bootcampID primitive.ObjectID, c *domain.Course) (*domain.Course, error) {
	b, err := s.Repo.GetBootcamp(ctx, s.DB, bootcampID)
	if err != nil {
		return nil, err
	}
	if !user.Owns(b.User) {
		return nil, apperr.Unauthorized(
			fmt.Sprintf("User %s is not authorized to add a course to bootcamp %s", user.ID.Hex(), b.ID.Hex()))
	}

	c.Bootcamp = bootcampID
	c.User = user.ID
	created, err := s.Repo.Create(ctx, s.DB, c)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RecomputeAverageCost(ctx, s.DB, bootcampID); err != nil {
		return nil, err
	}
	return created, nil
}

// Update merges fields into the course after the ownership check, then
// refreshes the bootcamp's average cost in case tuition changed.
func (s *CourseService) Update(ctx context.Context, user *domain.User, id primitive.ObjectID, fields bson.M) (*domain.Course, error) {
	c, err := s.Repo.Get(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if !user.Owns(c.User) {
		return nil, apperr.Unauthorized(
			fmt.Sprintf("User %s is not authorized to update this course", user.ID.Hex()))
	}
	// An empty merge is a valid no-op; Mongo rejects an empty $set.
	if len(fields) == 0 {
		return c, nil
	}

	updated, err := s.Repo.Update(ctx, s.DB, id, fields)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RecomputeAverageCost(ctx, s.DB, c.Bootcamp); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the course after the ownership check and refreshes the
// bootcamp's average cost. The deleted record is returned.
func (s *CourseService) Delete(ctx context.Context, user *domain.User, id primitive.ObjectID) (*domain.Course, error) {
	c, err := s.Repo.Get(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if !user.Owns(c.User) {
		return nil, apperr.Unauthorized(
			fmt.Sprintf("User %s is not authorized to delete this course", user.ID.Hex()))
	}

	if err := s.Repo.Delete(ctx, s.DB, id); err != nil {
		return nil, err
	}
	if err := s.Repo.RecomputeAverageCost(ctx, s.DB, c.Bootcamp); err != nil {
		return nil, err
	}
	return c, nil
}

// populate attaches each course's parent bootcamp name and description.
func (s *CourseService) populate(ctx context.Context, courses []domain.Course) error {
	ids := make([]primitive.ObjectID, 0, len(courses))
	seen := map[primitive.ObjectID]bool{}
	for i := range courses {
		if !seen[courses[i].Bootcamp] {
			seen[courses[i].Bootcamp] = true
			ids = append(ids, courses[i].Bootcamp)
		}
	}
	refs, err := s.Repo.AttachBootcampInfo(ctx, s.DB, ids)
	if err != nil {
		return err
	}
	for i := range courses {
		courses[i].BootcampInfo = refs[courses[i].Bootcamp]
	}
	return nil
}
