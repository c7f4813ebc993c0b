package repo

import (
	"context"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-bootcamp-backend/internal/domain"
)

// CreateCourse inserts a new course and returns it with id and creation time
// set. The caller is responsible for having injected the bootcamp and user
// references beforehand.
func CreateCourse(ctx context.Context, db *mongo.Database, c *domain.Course) (*domain.Course, error) {
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	if _, err := db.Collection(CollCourses).InsertOne(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCourse fetches one course by id, or mongo.ErrNoDocuments.
func GetCourse(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Course, error) {
	var c domain.Course
	if err := db.Collection(CollCourses).FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCourse applies a partial-field merge and returns the updated course.
func UpdateCourse(ctx context.Context, db *mongo.Database, id primitive.ObjectID, fields bson.M) (*domain.Course, error) {
	var c domain.Course
	err := db.Collection(CollCourses).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, optionsAfter()).
		Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCourse removes one course document.
func DeleteCourse(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error {
	res, err := db.Collection(CollCourses).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteCoursesByBootcamp removes every course referencing the bootcamp.
// Used by the explicit cascade in the bootcamp delete path.
func DeleteCoursesByBootcamp(ctx context.Context, db *mongo.Database, bootcampID primitive.ObjectID) error {
	_, err := db.Collection(CollCourses).DeleteMany(ctx, bson.M{"bootcamp": bootcampID})
	return err
}

// RecomputeAverageCost aggregates the mean tuition across a bootcamp's
// courses and stores it on the bootcamp, rounded up to the nearest ten.
// Zero courses clears the field.
func RecomputeAverageCost(ctx context.Context, db *mongo.Database, bootcampID primitive.ObjectID) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"bootcamp": bootcampID}}},
		{{Key: "$group", Value: bson.M{
			"_id":         "$bootcamp",
			"averageCost": bson.M{"$avg": "$tuition"},
		}}},
	}
	avg, err := runAverage(ctx, db.Collection(CollCourses), pipeline, "averageCost")
	if err != nil {
		return err
	}
	if avg > 0 {
		avg = math.Ceil(avg/10) * 10
	}
	return setBootcampAverage(ctx, db, bootcampID, "averageCost", avg)
}

// runAverage executes an $avg aggregation and extracts the named result
// field. An empty result set yields zero.
func runAverage(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline, field string) (float64, error) {
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	var rows []bson.M
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	switch v := rows[0][field].(type) {
	case float64:
		return v, nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, nil
	}
}
