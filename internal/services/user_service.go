package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/tbourn/go-bootcamp-backend/internal/domain"
	"github.com/tbourn/go-bootcamp-backend/internal/query"
)

// UserRepo defines the persistence contract required by UserService and
// AuthService.
type UserRepo interface {
	Create(ctx context.Context, db *mongo.Database, u *domain.User) (*domain.User, error)
	Get(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.User, error)
	GetByEmail(ctx context.Context, db *mongo.Database, email string) (*domain.User, error)
	GetByResetToken(ctx context.Context, db *mongo.Database, hashedToken string, now time.Time) (*domain.User, error)
	Update(ctx context.Context, db *mongo.Database, id primitive.ObjectID, fields bson.M) (*domain.User, error)
	ClearResetToken(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error
	Delete(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error
}

// UserService is the admin-only CRUD surface over user accounts.
type UserService struct {
	DB   *mongo.Database
	Repo UserRepo
}

// List runs the query pipeline over the users collection.
func (s *UserService) List(ctx context.Context, opts query.Options) ([]domain.User, query.Pagination, error) {
	out := []domain.User{}
	pg, err := opts.Run(ctx, s.DB.Collection("users"), bson.M{}, &out)
	if err != nil {
		return nil, query.Pagination{}, err
	}
	return out, pg, nil
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return s.Repo.Get(ctx, s.DB, id)
}

// Create adds an account with a bcrypt-hashed password.
func (s *UserService) Create(ctx context.Context, u *domain.User, password string) (*domain.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	u.Password = hash
	return s.Repo.Create(ctx, s.DB, u)
}

// Update merges fields into the account; a non-empty password is re-hashed.
func (s *UserService) Update(ctx context.Context, id primitive.ObjectID, fields bson.M, password string) (*domain.User, error) {
	if password != "" {
		hash, err := hashPassword(password)
		if err != nil {
			return nil, err
		}
		fields["password"] = hash
	}
	// An empty merge is a valid no-op; Mongo rejects an empty $set.
	if len(fields) == 0 {
		return s.Repo.Get(ctx, s.DB, id)
	}
	return s.Repo.Update(ctx, s.DB, id, fields)
}

// Delete removes the account and returns the deleted record.
func (s *UserService) Delete(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, err := s.Repo.Get(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Delete(ctx, s.DB, id); err != nil {
		return nil, err
	}
	return u, nil
}

// hashPassword applies bcrypt with its default cost.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// checkPassword reports whether password matches the stored bcrypt hash.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
