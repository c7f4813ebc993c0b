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

// ReviewRepo defines the persistence contract required by ReviewService.
type ReviewRepo interface {
	Create(ctx context.Context, db *mongo.Database, r *domain.Review) (*domain.Review, error)
	Get(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Review, error)
	Update(ctx context.Context, db *mongo.Database, id primitive.ObjectID, fields bson.M) (*domain.Review, error)
	Delete(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error
	GetBootcamp(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Bootcamp, error)
	RecomputeAverageRating(ctx context.Context, db *mongo.Database, bootcampID primitive.ObjectID) error
	AttachBootcampInfo(ctx context.Context, db *mongo.Database, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.BootcampRef, error)
}

// ReviewService manages the review resource. At most one review exists per
// (user, bootcamp) pair; the unique index enforces it and the duplicate key
// error surfaces as a 400 through the translator.
type ReviewService struct {
	DB   *mongo.Database
	Repo ReviewRepo
}

// List runs the query pipeline over the reviews collection with base filter
// scoping (e.g. a bootcamp id from the nested route) and attaches bootcamp
// references.
func (s *ReviewService) List(ctx context.Context, opts query.Options, base bson.M) ([]domain.Review, query.Pagination, error) {
	out := []domain.Review{}
	pg, err := opts.Run(ctx, s.DB.Collection("reviews"), base, &out)
	if err != nil {
		return nil, query.Pagination{}, err
	}
	if err := s.populate(ctx, out); err != nil {
		return nil, query.Pagination{}, err
	}
	return out, pg, nil
}

// Get returns one review with its bootcamp reference populated.
func (s *ReviewService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	r, err := s.Repo.Get(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	reviews := []domain.Review{*r}
	if err := s.populate(ctx, reviews); err != nil {
		return nil, err
	}
	return &reviews[0], nil
}

// Create adds a review to a bootcamp. The bootcamp must exist; the reviewing
// user reference is injected server-side. A second review by the same user
// for the same bootcamp fails on the unique index.
func (s *ReviewService) Create(ctx context.Context, user *domain.User, bootcampID primitive.ObjectID, r *domain.Review) (*domain.Review, error) {
	if _, err := s.Repo.GetBootcamp(ctx, s.DB, bootcampID); err != nil {
		return nil, err
	}

	r.Bootcamp = bootcampID
	r.User = user.ID
	created, err := s.Repo.Create(ctx, s.DB, r)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RecomputeAverageRating(ctx, s.DB, bootcampID); err != nil {
		return nil, err
	}
	return created, nil
}

// Update merges fields into the review after the ownership check, then
// refreshes the bootcamp's average rating.
func (s *ReviewService) Update(ctx context.Context, user *domain.User, id primitive.ObjectID, fields bson.M) (*domain.Review, error) {
	r, err := s.Repo.Get(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if !user.Owns(r.User) {
		return nil, apperr.Unauthorized(
			fmt.Sprintf("User %s is not authorized to update this review", user.ID.Hex()))
	}
	// An empty merge is a valid no-op; Mongo rejects an empty $set.
	if len(fields) == 0 {
		return r, nil
	}

	updated, err := s.Repo.Update(ctx, s.DB, id, fields)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RecomputeAverageRating(ctx, s.DB, r.Bootcamp); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the review after the ownership check and refreshes the
// bootcamp's average rating. The deleted record is returned.
func (s *ReviewService) Delete(ctx context.Context, user *domain.User, id primitive.ObjectID) (*domain.Review, error) {
	r, err := s.Repo.Get(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if !user.Owns(r.User) {
		return nil, apperr.Unauthorized(
			fmt.Sprintf("User %s is not authorized to delete this review", user.ID.Hex()))
	}

	if err := s.Repo.Delete(ctx, s.DB, id); err != nil {
		return nil, err
	}
	if err := s.Repo.RecomputeAverageRating(ctx, s.DB, r.Bootcamp); err != nil {
		return nil, err
	}
	return r, nil
}

// populate attaches each review's bootcamp name and description.
func (s *ReviewService) populate(ctx context.Context, reviews []domain.Review) error {
	ids := make([]primitive.ObjectID, 0, len(reviews))
	seen := map[primitive.ObjectID]bool{}
	for i := range reviews {
		if !seen[reviews[i].Bootcamp] {
			seen[reviews[i].Bootcamp] = true
			ids = append(ids, reviews[i].Bootcamp)
		}
	}
	refs, err := s.Repo.AttachBootcampInfo(ctx, s.DB, ids)
	if err != nil {
		return err
	}
	for i := range reviews {
		reviews[i].BootcampInfo = refs[reviews[i].Bootcamp]
	}
	return nil
}
