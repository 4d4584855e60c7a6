package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	assetsCollection = "mediaassets"
	viewsCollection  = "mediaviewlogs"
)

type assetDocument struct {
	ID      primitive.ObjectID `bson:"_id"`
	Title   string             `bson:"title"`
	Type    string             `bson:"type"`
	FileURL string             `bson:"file_url"`
}

type viewDocument struct {
	ID         primitive.ObjectID `bson:"_id"`
	MediaID    primitive.ObjectID `bson:"media_id"`
	ViewedByIP string             `bson:"viewed_by_ip"`
	Timestamp  time.Time          `bson:"timestamp"`
}

type MongoStore struct {
	assets *mongo.Collection
	views  *mongo.Collection
}

func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &MongoStore{
		assets: db.Collection(assetsCollection),
		views:  db.Collection(viewsCollection),
	}
	_, err := s.views.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "media_id", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("ensure %s indexes: %w", viewsCollection, err)
	}
	return s, nil
}

func (s *MongoStore) CreateAsset(ctx context.Context, a Asset) error {
	oid, err := primitive.ObjectIDFromHex(a.ID)
	if err != nil {
		return ErrInvalidID
	}
	doc := assetDocument{ID: oid, Title: a.Title, Type: a.Type, FileURL: a.FileURL}
	if _, err := s.assets.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert media asset: %w", err)
	}
	return nil
}

func (s *MongoStore) GetAsset(ctx context.Context, id string) (Asset, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Asset{}, ErrNotFound
	}
	var doc assetDocument
	if err := s.assets.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Asset{}, ErrNotFound
		}
		return Asset{}, fmt.Errorf("find media asset: %w", err)
	}
	return Asset{ID: doc.ID.Hex(), Title: doc.Title, Type: doc.Type, FileURL: doc.FileURL}, nil
}

func (s *MongoStore) AppendView(ctx context.Context, v View) error {
	id, err := primitive.ObjectIDFromHex(v.ID)
	if err != nil {
		return fmt.Errorf("media view id: %w", err)
	}
	mediaID, err := primitive.ObjectIDFromHex(v.MediaID)
	if err != nil {
		return ErrInvalidID
	}
	doc := viewDocument{ID: id, MediaID: mediaID, ViewedByIP: v.ViewedByIP, Timestamp: v.Timestamp}
	if _, err := s.views.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert media view: %w", err)
	}
	return nil
}

func (s *MongoStore) ListViews(ctx context.Context, mediaID string) ([]View, error) {
	oid, err := primitive.ObjectIDFromHex(mediaID)
	if err != nil {
		return nil, ErrInvalidID
	}
	cur, err := s.views.Find(ctx, bson.D{{Key: "media_id", Value: oid}},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find media views: %w", err)
	}
	var docs []viewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode media views: %w", err)
	}

	out := make([]View, 0, len(docs))
	for _, d := range docs {
		out = append(out, View{
			ID:         d.ID.Hex(),
			MediaID:    d.MediaID.Hex(),
			ViewedByIP: d.ViewedByIP,
			Timestamp:  d.Timestamp.UTC(),
		})
	}
	return out, nil
}
