package auth

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "adminusers"

type userDocument struct {
	ID             primitive.ObjectID `bson:"_id"`
	Email          string             `bson:"email"`
	HashedPassword string             `bson:"hashed_password"`
}

type MongoUserStore struct {
	coll *mongo.Collection
}

// NewMongoUserStore ensures the unique email index before returning.
func NewMongoUserStore(ctx context.Context, db *mongo.Database) (*MongoUserStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &MongoUserStore{coll: db.Collection(usersCollection)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoUserStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensure %s indexes: %w", usersCollection, err)
	}
	return nil
}

func (s *MongoUserStore) GetByEmail(ctx context.Context, email string) (AdminUser, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *MongoUserStore) GetByID(ctx context.Context, id string) (AdminUser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return AdminUser{}, ErrUserNotFound
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.D) (AdminUser, error) {
	var doc userDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return AdminUser{}, ErrUserNotFound
		}
		return AdminUser{}, fmt.Errorf("find admin user: %w", err)
	}
	return AdminUser{ID: doc.ID.Hex(), Email: doc.Email, HashedPassword: doc.HashedPassword}, nil
}

func (s *MongoUserStore) Create(ctx context.Context, user AdminUser) error {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return fmt.Errorf("admin user id: %w", err)
	}
	doc := userDocument{ID: oid, Email: user.Email, HashedPassword: user.HashedPassword}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert admin user: %w", err)
	}
	return nil
}
