package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-bootcamp-backend/internal/domain"
)

// CreateUser inserts a new user. The unique email index rejects duplicate
// registrations with a duplicate key error.
func CreateUser(ctx context.Context, db *mongo.Database, u *domain.User) (*domain.User, error) {
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if _, err := db.Collection(CollUsers).InsertOne(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser fetches one user by id, or mongo.ErrNoDocuments.
func GetUser(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.User, error) {
	var u domain.User
	if err := db.Collection(CollUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches one user by email, or mongo.ErrNoDocuments.
func GetUserByEmail(ctx context.Context, db *mongo.Database, email string) (*domain.User, error) {
	var u domain.User
	if err := db.Collection(CollUsers).FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByResetToken fetches the user holding the hashed reset token with an
// unexpired window, or mongo.ErrNoDocuments.
func GetUserByResetToken(ctx context.Context, db *mongo.Database, hashedToken string, now time.Time) (*domain.User, error) {
	var u domain.User
	filter := bson.M{
		"resetPasswordToken":  hashedToken,
		"resetPasswordExpire": bson.M{"$gt": now},
	}
	if err := db.Collection(CollUsers).FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser applies a partial-field merge and returns the updated user.
func UpdateUser(ctx context.Context, db *mongo.Database, id primitive.ObjectID, fields bson.M) (*domain.User, error) {
	var u domain.User
	err := db.Collection(CollUsers).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, optionsAfter()).
		Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ClearResetToken removes the reset token pair from a user record.
func ClearResetToken(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error {
	_, err := db.Collection(CollUsers).UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpire": ""},
	})
	return err
}

// DeleteUser removes one user document.
func DeleteUser(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error {
	res, err := db.Collection(CollUsers).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
