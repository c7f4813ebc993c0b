package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-bootcamp-backend/internal/domain"
)

// CreateBootcamp inserts a new bootcamp owned by b.User and returns it with
// the generated identifier and creation time set.
func CreateBootcamp(ctx context.Context, db *mongo.Database, b *domain.Bootcamp) (*domain.Bootcamp, error) {
	b.ID = primitive.NewObjectID()
	b.CreatedAt = time.Now().UTC()
	if _, err := db.Collection(CollBootcamps).InsertOne(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBootcamp fetches one bootcamp by id, or mongo.ErrNoDocuments.
func GetBootcamp(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Bootcamp, error) {
	var b domain.Bootcamp
	err := db.Collection(CollBootcamps).FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CountBootcampsByOwner reports how many bootcamps a user has published.
// Publishers are limited to one.
func CountBootcampsByOwner(ctx context.Context, db *mongo.Database, owner primitive.ObjectID) (int64, error) {
	return db.Collection(CollBootcamps).CountDocuments(ctx, bson.M{"user": owner})
}

// UpdateBootcamp applies a partial-field merge and returns the updated
// document, or mongo.ErrNoDocuments if the id does not exist.
func UpdateBootcamp(ctx context.Context, db *mongo.Database, id primitive.ObjectID, fields bson.M) (*domain.Bootcamp, error) {
	after := optionsAfter()
	var b domain.Bootcamp
	err := db.Collection(CollBootcamps).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, after).
		Decode(&b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// DeleteBootcamp removes one bootcamp document. Cascading course and review
// removal is the service layer's explicit responsibility.
func DeleteBootcamp(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error {
	res, err := db.Collection(CollBootcamps).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// FindBootcampsWithin returns all bootcamps whose location lies within the
// angular radius (radians) of the point (lng, lat).
func FindBootcampsWithin(ctx context.Context, db *mongo.Database, lng, lat, radians float64) ([]domain.Bootcamp, error) {
	filter := bson.M{
		"location": bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{bson.A{lng, lat}, radians},
			},
		},
	}
	cur, err := db.Collection(CollBootcamps).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := []domain.Bootcamp{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetBootcampPhoto persists the uploaded photo filename on the bootcamp.
func SetBootcampPhoto(ctx context.Context, db *mongo.Database, id primitive.ObjectID, filename string) error {
	res, err := db.Collection(CollBootcamps).
		UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"photo": filename}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// setBootcampAverage writes a recomputed average field (averageCost or
// averageRating); a zero average unsets the field so empty bootcamps do not
// report a stale figure.
func setBootcampAverage(ctx context.Context, db *mongo.Database, id primitive.ObjectID, field string, avg float64) error {
	update := bson.M{"$set": bson.M{field: avg}}
	if avg == 0 {
		update = bson.M{"$unset": bson.M{field: ""}}
	}
	_, err := db.Collection(CollBootcamps).UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
