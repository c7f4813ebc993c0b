// Package services implements the business rules of the bootcamp directory:
// ownership and role checks, the publisher single-bootcamp rule, explicit
// cascade deletion, geospatial lookup, photo upload, and derived-average
// maintenance. Services return typed application errors (apperr) for every
// predictable failure so the HTTP layer can translate uniformly.
package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-bootcamp-backend/internal/apperr"
	"github.com/tbourn/go-bootcamp-backend/internal/domain"
	"github.com/tbourn/go-bootcamp-backend/internal/geocode"
	"github.com/tbourn/go-bootcamp-backend/internal/query"
	"github.com/tbourn/go-bootcamp-backend/internal/upload"
)

// earthRadiusKM is Earth's mean radius, the divisor that converts a distance
// to the angular radius used by $centerSphere.
const earthRadiusKM = 6378

// BootcampRepo defines the persistence contract required by BootcampService.
type BootcampRepo interface {
	Create(ctx context.Context, db *mongo.Database, b *domain.Bootcamp) (*domain.Bootcamp, error)
	Get(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Bootcamp, error)
	CountByOwner(ctx context.Context, db *mongo.Database, owner primitive.ObjectID) (int64, error)
	Update(ctx context.Context, db *mongo.Database, id primitive.ObjectID, fields bson.M) (*domain.Bootcamp, error)
	Delete(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error
	FindWithin(ctx context.Context, db *mongo.Database, lng, lat, radians float64) ([]domain.Bootcamp, error)
	SetPhoto(ctx context.Context, db *mongo.Database, id primitive.ObjectID, filename string) error
	DeleteCourses(ctx context.Context, db *mongo.Database, bootcampID primitive.ObjectID) error
	DeleteReviews(ctx context.Context, db *mongo.Database, bootcampID primitive.ObjectID) error
}

// BootcampService manages the bootcamp resource.
type BootcampService struct {
	DB   *mongo.Database
	Repo BootcampRepo
	Geo  geocode.Resolver

	// MaxFileUpload caps accepted photo sizes in bytes.
	MaxFileUpload int64
	// UploadDir is where accepted photos are written.
	UploadDir string
}

// List runs the query pipeline over the bootcamps collection.
func (s *BootcampService) List(ctx context.Context, opts query.Options) ([]domain.Bootcamp, query.Pagination, error) {
	out := []domain.Bootcamp{}
	pg, err := opts.Run(ctx, s.DB.Collection("bootcamps"), bson.M{}, &out)
	if err != nil {
		return nil, query.Pagination{}, err
	}
	return out, pg, nil
}

// Get returns one bootcamp by id.
func (s *BootcampService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Bootcamp, error) {
	return s.Repo.Get(ctx, s.DB, id)
}

// Create persists a new bootcamp owned by user. Publishers may own at most
// one bootcamp; admins are exempt. When an address is supplied it is resolved
// to a GeoJSON point before the insert.
func (s *BootcampService) Create(ctx context.Context, user *domain.User, b *domain.Bootcamp) (*domain.Bootcamp, error) {
	if !user.IsAdmin() {
		n, err := s.Repo.CountByOwner(ctx, s.DB, user.ID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, apperr.BadRequest(
				fmt.Sprintf("The user with ID %s has already published a bootcamp", user.ID.Hex()))
		}
	}

	b.User = user.ID
	if err := s.resolveAddress(ctx, b); err != nil {
		return nil, err
	}
	return s.Repo.Create(ctx, s.DB, b)
}

// Update merges fields into the bootcamp after the ownership check.
func (s *BootcampService) Update(ctx context.Context, user *domain.User, id primitive.ObjectID, fields bson.M) (*domain.Bootcamp, error) {
	b, err := s.Repo.Get(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if !user.Owns(b.User) {
		return nil, apperr.Unauthorized(
			fmt.Sprintf("User %s is not authorized to update this bootcamp", user.ID.Hex()))
	}
	// An empty merge is a valid no-op; Mongo rejects an empty $set.
	if len(fields) == 0 {
		return b, nil
	}
	return s.Repo.Update(ctx, s.DB, id, fields)
}

// Delete removes the bootcamp and, as an explicit step, every course and
// review that references it. The storage engine performs no cascade of its
// own. The deleted record is returned so the handler can echo it.
func (s *BootcampService) Delete(ctx context.Context, user *domain.User, id primitive.ObjectID) (*domain.Bootcamp, error) {
	b, err := s.Repo.Get(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if !user.Owns(b.User) {
		return nil, apperr.Unauthorized(
			fmt.Sprintf("User %s is not authorized to delete this bootcamp", user.ID.Hex()))
	}

	if err := s.Repo.DeleteCourses(ctx, s.DB, id); err != nil {
		return nil, err
	}
	if err := s.Repo.DeleteReviews(ctx, s.DB, id); err != nil {
		return nil, err
	}
	if err := s.Repo.Delete(ctx, s.DB, id); err != nil {
		return nil, err
	}
	return b, nil
}

// WithinRadius resolves zipcode and returns all bootcamps within distance of
// it. The distance is divided by Earth's radius to obtain the angular radius
// the containment query expects.
func (s *BootcampService) WithinRadius(ctx context.Context, zipcode string, distance float64) ([]domain.Bootcamp, error) {
	loc, err := s.Geo.Geocode(ctx, zipcode)
	if err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("Could not geocode zipcode %s", zipcode))
	}
	radians := distance / earthRadiusKM
	return s.Repo.FindWithin(ctx, s.DB, loc.Longitude, loc.Latitude, radians)
}

// UploadPhoto validates the uploaded file, writes it under its deterministic
// name, and only then persists the filename on the record. A failed write
// leaves the record untouched.
func (s *BootcampService) UploadPhoto(ctx context.Context, user *domain.User, id primitive.ObjectID, header *multipart.FileHeader) (string, error) {
	b, err := s.Repo.Get(ctx, s.DB, id)
	if err != nil {
		return "", err
	}
	if !user.Owns(b.User) {
		return "", apperr.Unauthorized(
			fmt.Sprintf("User %s is not authorized to update this bootcamp", user.ID.Hex()))
	}

	photo, err := upload.ValidatePhoto(header, id.Hex(), s.MaxFileUpload)
	if err != nil {
		return "", apperr.BadRequest(err.Error())
	}
	if err := photo.Save(s.UploadDir); err != nil {
		return "", apperr.New("Problem with file upload", http.StatusInternalServerError)
	}
	if err := s.Repo.SetPhoto(ctx, s.DB, id, photo.Filename); err != nil {
		return "", err
	}
	return photo.Filename, nil
}

// resolveAddress geocodes b.Address into a GeoJSON point. A missing resolver
// or empty address leaves the location unset.
func (s *BootcampService) resolveAddress(ctx context.Context, b *domain.Bootcamp) error {
	if s.Geo == nil || b.Address == "" {
		return nil
	}
	loc, err := s.Geo.Geocode(ctx, b.Address)
	if err != nil {
		return apperr.BadRequest(fmt.Sprintf("Could not geocode address %q", b.Address))
	}
	b.Location = domain.Location{
		Type:             "Point",
		Coordinates:      []float64{loc.Longitude, loc.Latitude},
		FormattedAddress: loc.FormattedAddress,
		Street:           loc.Street,
		City:             loc.City,
		State:            loc.State,
		Zipcode:          loc.Zipcode,
		Country:          loc.Country,
	}
	return nil
}
