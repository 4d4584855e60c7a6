package migrations

import (
	"context"
	"reflect"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func testFiles() fstest.MapFS {
	return fstest.MapFS{
		"0002_second.sql": {Data: []byte("CREATE TABLE b (id TEXT);")},
		"0001_first.sql":  {Data: []byte("CREATE TABLE a (id TEXT);")},
		"README.md":       {Data: []byte("not a migration")},
	}
}

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS migration_applied").WillReturnResult(sqlmock.NewResult(0, 0))
	svc, err := newService(db, testFiles())
	if err != nil {
		t.Fatalf("newService() error: %v", err)
	}
	svc.nowFunc = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc, mock
}

func TestNewRequiresDatabase(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for nil database")
	}
}

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS migration_applied").WillReturnResult(sqlmock.NewResult(0, 0))
	svc, err := New(db)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	files, err := svc.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
		if len(f.Checksum) != 64 {
			t.Fatalf("expected sha256 checksum for %s, got %q", f.Name, f.Checksum)
		}
	}
	want := []string{"0001_admin_users.sql", "0002_media_assets.sql", "0003_media_view_logs.sql"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
}

func TestListSkipsNonSQLFiles(t *testing.T) {
	svc, _ := newMockService(t)

	files, err := svc.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(files) != 2 || files[0].Name != "0001_first.sql" || files[1].Name != "0002_second.sql" {
		t.Fatalf("unexpected files: %+v", files)
	}
}

func TestStatusMarksApplied(t *testing.T) {
	svc, mock := newMockService(t)

	appliedAt := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT name, applied_at FROM migration_applied").
		WillReturnRows(sqlmock.NewRows([]string{"name", "applied_at"}).AddRow("0001_first.sql", appliedAt))

	status, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if len(status) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(status))
	}
	if !status[0].Applied || status[0].AppliedAt != "2026-02-01T08:00:00Z" {
		t.Fatalf("expected first migration applied, got %+v", status[0])
	}
	if status[1].Applied {
		t.Fatalf("expected second migration pending, got %+v", status[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestApplyRunsPendingInOrder(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery("SELECT name, applied_at FROM migration_applied").
		WillReturnRows(sqlmock.NewRows([]string{"name", "applied_at"}).
			AddRow("0001_first.sql", time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE b").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO migration_applied").
		WithArgs("0002_second.sql", sqlmock.AnyArg(), time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	done, err := svc.Apply(context.Background())
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if !reflect.DeepEqual(done, []string{"0002_second.sql"}) {
		t.Fatalf("unexpected applied list: %v", done)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestApplyRollsBackOnFailure(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery("SELECT name, applied_at FROM migration_applied").
		WillReturnRows(sqlmock.NewRows([]string{"name", "applied_at"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE a").WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	done, err := svc.Apply(context.Background())
	if err == nil {
		t.Fatalf("expected Apply() error")
	}
	if len(done) != 0 {
		t.Fatalf("expected nothing applied, got %v", done)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
