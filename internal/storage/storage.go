// Package storage opens the backing store named by STORE_URI. MongoDB is the
// primary document store; PostgreSQL is supported through lib/pq.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var ErrUnsupportedScheme = errors.New("unsupported store scheme")

type Kind string

const (
	KindMongo    Kind = "mongodb"
	KindPostgres Kind = "postgres"
)

type Options struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Backend holds exactly one live connection: SQL for postgres, Mongo for
// mongodb.
type Backend struct {
	Kind  Kind
	SQL   *sql.DB
	Mongo *mongo.Database

	client *mongo.Client
}

func KindOf(uri string) (Kind, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return "", fmt.Errorf("parse store uri: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "mongodb", "mongodb+srv":
		return KindMongo, nil
	case "postgres", "postgresql":
		return KindPostgres, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func Open(ctx context.Context, opts Options) (*Backend, error) {
	kind, err := KindOf(opts.URI)
	if err != nil {
		return nil, err
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	switch kind {
	case KindPostgres:
		db, err := sql.Open("postgres", opts.URI)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		return &Backend{Kind: kind, SQL: db}, nil
	default:
		if strings.TrimSpace(opts.Database) == "" {
			return nil, fmt.Errorf("mongo database name is required")
		}
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		return &Backend{Kind: kind, Mongo: client.Database(opts.Database), client: client}, nil
	}
}

func (b *Backend) Ping(ctx context.Context) error {
	switch {
	case b == nil:
		return fmt.Errorf("store not open")
	case b.SQL != nil:
		return b.SQL.PingContext(ctx)
	case b.client != nil:
		return b.client.Ping(ctx, readpref.Primary())
	default:
		return fmt.Errorf("store not open")
	}
}

func (b *Backend) Close(ctx context.Context) error {
	if b == nil {
		return nil
	}
	if b.SQL != nil {
		return b.SQL.Close()
	}
	if b.client != nil {
		return b.client.Disconnect(ctx)
	}
	return nil
}
