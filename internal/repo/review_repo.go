package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-bootcamp-backend/internal/domain"
)

// CreateReview inserts a new review. The unique (bootcamp,user) index rejects
// a second review for the same pair with a duplicate key error.
func CreateReview(ctx context.Context, db *mongo.Database, r *domain.Review) (*domain.Review, error) {
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now().UTC()
	if _, err := db.Collection(CollReviews).InsertOne(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetReview fetches one review by id, or mongo.ErrNoDocuments.
func GetReview(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Review, error) {
	var r domain.Review
	if err := db.Collection(CollReviews).FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateReview applies a partial-field merge and returns the updated review.
func UpdateReview(ctx context.Context, db *mongo.Database, id primitive.ObjectID, fields bson.M) (*domain.Review, error) {
	var r domain.Review
	err := db.Collection(CollReviews).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, optionsAfter()).
		Decode(&r)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteReview removes one review document.
func DeleteReview(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error {
	res, err := db.Collection(CollReviews).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteReviewsByBootcamp removes every review referencing the bootcamp.
// Used by the explicit cascade in the bootcamp delete path.
func DeleteReviewsByBootcamp(ctx context.Context, db *mongo.Database, bootcampID primitive.ObjectID) error {
	_, err := db.Collection(CollReviews).DeleteMany(ctx, bson.M{"bootcamp": bootcampID})
	return err
}

// RecomputeAverageRating aggregates the mean rating across a bootcamp's
// reviews and stores it on the bootcamp. Zero reviews clears the field.
func RecomputeAverageRating(ctx context.Context, db *mongo.Database, bootcampID primitive.ObjectID) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"bootcamp": bootcampID}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$bootcamp",
			"averageRating": bson.M{"$avg": "$rating"},
		}}},
	}
	avg, err := runAverage(ctx, db.Collection(CollReviews), pipeline, "averageRating")
	if err != nil {
		return err
	}
	return setBootcampAverage(ctx, db, bootcampID, "averageRating", avg)
}

// AttachBootcampInfo resolves the referenced bootcamps for a page of courses
// or reviews and attaches their name and description, the eager population
// performed after filtering and before the response is shaped.
func AttachBootcampInfo(ctx context.Context, db *mongo.Database, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.BootcampRef, error) {
	refs := map[primitive.ObjectID]*domain.BootcampRef{}
	if len(ids) == 0 {
		return refs, nil
	}
	cur, err := db.Collection(CollBootcamps).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var rows []domain.BootcampRef
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for i := range rows {
		refs[rows[i].ID] = &rows[i]
	}
	return refs, nil
}
