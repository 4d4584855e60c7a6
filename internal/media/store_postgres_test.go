package media

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewPostgresStore(db)
	if err != nil {
		t.Fatalf("NewPostgresStore() error: %v", err)
	}
	return store, mock
}

func TestPostgresStoreCreateAndGetAsset(t *testing.T) {
	store, mock := newMockStore(t)
	a := Asset{ID: "65f1a2b3c4d5e6f708192a3b", Title: "Trailer", Type: TypeVideo, FileURL: "https://cdn.example.com/t.mp4"}

	mock.ExpectExec("INSERT INTO media_assets").
		WithArgs(a.ID, a.Title, a.Type, a.FileURL).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT id, title, type, file_url FROM media_assets WHERE id = \\$1").
		WithArgs(a.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "type", "file_url"}).
			AddRow(a.ID, a.Title, a.Type, a.FileURL))

	if err := store.CreateAsset(context.Background(), a); err != nil {
		t.Fatalf("CreateAsset() error: %v", err)
	}
	got, err := store.GetAsset(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetAsset() error: %v", err)
	}
	if got != a {
		t.Fatalf("expected %+v, got %+v", a, got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresStoreGetAssetNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, title, type, file_url FROM media_assets").
		WillReturnError(sql.ErrNoRows)

	if _, err := store.GetAsset(context.Background(), "65f1a2b3c4d5e6f708192a3b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStoreViews(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := View{ID: "65f1a2b3c4d5e6f708192a40", MediaID: "65f1a2b3c4d5e6f708192a3b", ViewedByIP: "10.0.0.1", Timestamp: at}

	mock.ExpectExec("INSERT INTO media_view_logs").
		WithArgs(v.ID, v.MediaID, v.ViewedByIP, v.Timestamp).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT id, media_id, viewed_by_ip, viewed_at").
		WithArgs(v.MediaID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "media_id", "viewed_by_ip", "viewed_at"}).
			AddRow(v.ID, v.MediaID, v.ViewedByIP, at).
			AddRow("65f1a2b3c4d5e6f708192a41", v.MediaID, "10.0.0.2", at.Add(time.Hour)))

	if err := store.AppendView(context.Background(), v); err != nil {
		t.Fatalf("AppendView() error: %v", err)
	}
	views, err := store.ListViews(context.Background(), v.MediaID)
	if err != nil {
		t.Fatalf("ListViews() error: %v", err)
	}
	if len(views) != 2 || views[1].ViewedByIP != "10.0.0.2" {
		t.Fatalf("unexpected views: %+v", views)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
