package migrations

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

//go:embed sql/*.sql
var embedded embed.FS

type FileInfo struct {
	Name     string `json:"name"`
	Checksum string `json:"checksum"`
}

type Status struct {
	Name      string `json:"name"`
	Checksum  string `json:"checksum"`
	Applied   bool   `json:"applied"`
	AppliedAt string `json:"applied_at,omitempty"`
}

// Service applies the PostgreSQL schema. Files are applied once, in name
// order, each inside its own transaction.
type Service struct {
	db      *sql.DB
	files   fs.FS
	nowFunc func() time.Time
}

func New(db *sql.DB) (*Service, error) {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return newService(db, sub)
}

func newService(db *sql.DB, files fs.FS) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &Service{db: db, files: files, nowFunc: time.Now}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS migration_applied (
	name TEXT PRIMARY KEY,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL
)`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("ensure migration_applied schema: %w", err)
	}
	return nil
}

func (s *Service) List() ([]FileInfo, error) {
	entries, err := fs.ReadDir(s.files, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := fs.ReadFile(s.files, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		out = append(out, FileInfo{Name: e.Name(), Checksum: checksum(b)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Service) Status(ctx context.Context) ([]Status, error) {
	files, err := s.List()
	if err != nil {
		return nil, err
	}
	applied, err := s.loadApplied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, len(files))
	for _, f := range files {
		appliedAt, ok := applied[f.Name]
		out = append(out, Status{
			Name:      f.Name,
			Checksum:  f.Checksum,
			Applied:   ok,
			AppliedAt: appliedAt,
		})
	}
	return out, nil
}

// Apply runs every pending migration and returns the names it applied.
func (s *Service) Apply(ctx context.Context) ([]string, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, st := range status {
		if st.Applied {
			continue
		}
		body, err := fs.ReadFile(s.files, st.Name)
		if err != nil {
			return done, fmt.Errorf("read migration %s: %w", st.Name, err)
		}
		if err := s.applyOne(ctx, st.Name, st.Checksum, string(body)); err != nil {
			return done, err
		}
		done = append(done, st.Name)
	}
	return done, nil
}

func (s *Service) applyOne(ctx context.Context, name, sum, body string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	const q = `INSERT INTO migration_applied (name, checksum, applied_at) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, q, name, sum, s.nowFunc().UTC()); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}

func (s *Service) loadApplied(ctx context.Context) (map[string]string, error) {
	const q = `SELECT name, applied_at FROM migration_applied`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query migration state: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name string
		var appliedAt time.Time
		if err := rows.Scan(&name, &appliedAt); err != nil {
			return nil, fmt.Errorf("scan migration state: %w", err)
		}
		out[name] = appliedAt.UTC().Format(time.RFC3339)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate migration state: %w", err)
	}
	return out, nil
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
