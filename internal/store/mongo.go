package store

import (
	"context"
	"errors"
	"time"

	"firdesk/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoUnitDoc struct {
	Name      string    `bson:"_id"`
	Body      string    `bson:"body"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoUnit stores a collection as one document of the record_units collection
type MongoUnit struct {
	collection *mongo.Collection
	name       string
}

// NewMongoUnit creates a MongoDB-backed unit
func NewMongoUnit(mongoDB *database.MongoDB, name string) *MongoUnit {
	return &MongoUnit{
		collection: mongoDB.Collection(database.CollectionRecordUnits),
		name:       name,
	}
}

// Name returns the unit name
func (u *MongoUnit) Name() string {
	return u.name
}

// Exists reports whether the document is present
func (u *MongoUnit) Exists(ctx context.Context) (bool, error) {
	n, err := u.collection.CountDocuments(ctx, bson.M{"_id": u.name})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Read returns the stored body, or nil when the document is absent
func (u *MongoUnit) Read(ctx context.Context) ([]byte, error) {
	var doc mongoUnitDoc
	err := u.collection.FindOne(ctx, bson.M{"_id": u.name}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(doc.Body), nil
}

// Write replaces the document, creating it if needed
func (u *MongoUnit) Write(ctx context.Context, data []byte) error {
	doc := mongoUnitDoc{
		Name:      u.name,
		Body:      string(data),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := u.collection.ReplaceOne(ctx, bson.M{"_id": u.name}, doc, options.Replace().SetUpsert(true))
	return err
}
