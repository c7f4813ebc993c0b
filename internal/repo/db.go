// Package repo implements the data persistence layer for domain entities,
// backed by the official MongoDB driver. This file contains connection
// bootstrapping and index creation.
//
// All repository functions are context-aware and accept a *mongo.Database
// handle. They follow the "thin repository" approach: no business logic,
// only CRUD persistence and query composition.
//
// Error semantics:
//   - When a document is not found, functions return mongo.ErrNoDocuments.
//   - Unique index violations and other server errors propagate unchanged;
//     the apperr translator maps them at the HTTP boundary.
package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	CollBootcamps = "bootcamps"
	CollCourses   = "courses"
	CollUsers     = "users"
	CollReviews   = "reviews"
)

// optionsAfter returns FindOneAndUpdate options that yield the post-update
// document, mirroring the "new: true" update semantics handlers rely on.
func optionsAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// Connect opens a client for uri, pings the deployment, and returns the named
// database handle.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client.Database(dbName), nil
}

// EnsureIndexes creates the indexes the application depends on:
//   - users.email unique (duplicate registration -> duplicate key error)
//   - reviews (bootcamp,user) unique (one review per user per bootcamp)
//   - bootcamps.location 2dsphere (radius queries)
//   - bootcamps/courses/reviews createdAt (default sort)
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := db.Collection(CollUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(CollReviews).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bootcamp", Value: 1}, {Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(CollBootcamps).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: "2dsphere"}},
	})
	if err != nil {
		return err
	}

	for _, coll := range []string{CollBootcamps, CollCourses, CollReviews} {
		if _, err := db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		}); err != nil {
			return err
		}
	}
	return nil
}
