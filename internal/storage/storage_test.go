package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		uri  string
		want Kind
	}{
		{uri: "mongodb://localhost:27017", want: KindMongo},
		{uri: "mongodb+srv://cluster.example.net", want: KindMongo},
		{uri: "postgres://u:p@localhost:5432/media", want: KindPostgres},
		{uri: "PostgreSQL://u:p@localhost/media", want: KindPostgres},
	}
	for _, tt := range tests {
		got, err := KindOf(tt.uri)
		if err != nil {
			t.Fatalf("KindOf(%q) error: %v", tt.uri, err)
		}
		if got != tt.want {
			t.Fatalf("KindOf(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestKindOfUnsupported(t *testing.T) {
	for _, uri := range []string{"redis://localhost:6379", "localhost:27017", ""} {
		if _, err := KindOf(uri); err == nil {
			t.Fatalf("expected error for %q", uri)
		}
	}
	_, err := KindOf("mysql://root@localhost/db")
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), Options{URI: "redis://localhost:6379"})
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestBackendPingAndCloseSQL(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}

	b := &Backend{Kind: KindPostgres, SQL: db}
	mock.ExpectPing()
	if err := b.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
	mock.ExpectClose()
	if err := b.Close(context.Background()); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestNilBackend(t *testing.T) {
	var b *Backend
	if err := b.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error on nil backend")
	}
	if err := b.Close(context.Background()); err != nil {
		t.Fatalf("Close() on nil backend: %v", err)
	}
}
