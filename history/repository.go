package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/capforge/autoloader/pseudocap"
	_ "modernc.org/sqlite"
)

// Repository provides database operations for builds
type Repository struct {
	db *sql.DB
}

// NewRepository opens (and if needed creates) the ledger at dbPath
func NewRepository(dbPath string) (*Repository, error) {
	slog.Info("history_init", "db_path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		slog.Error("history_open_failed", "db_path", dbPath, "error", err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		slog.Error("history_schema_failed", "db_path", dbPath, "error", err)
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// FromReport converts a build report into a ledger record.
func FromReport(report *pseudocap.Report, sha512 string) *Build {
	b := &Build{
		Output:    report.Output,
		StubPath:  report.Stub,
		ImageSize: report.Size(),
		SHA512:    sha512,
		Status:    StatusComplete,
	}
	if off := report.Offset; off != nil {
		b.StubSize = off.CapSize
		b.TableSize = off.Size
		b.FileCount = len(off.Files)
		for i, path := range off.Files {
			b.Payloads = append(b.Payloads, Payload{Slot: i + 1, Path: path, Size: off.FileSize[i]})
		}
	}
	if err := report.Err(); err != nil {
		b.Status = StatusPartial
		b.Errors = err.Error()
	}
	return b
}

// Record inserts a build and its payloads in one transaction
func (r *Repository) Record(ctx context.Context, b *Build) error {
	slog.Info("history_record_build", "output", b.Output, "status", b.Status)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO builds (output, stub_path, stub_size, table_size, file_count, image_size, sha512, status, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.Output, b.StubPath, b.StubSize, b.TableSize, b.FileCount, b.ImageSize, b.SHA512, b.Status, b.Errors)
	if err != nil {
		slog.Error("history_insert_failed", "output", b.Output, "error", err)
		return fmt.Errorf("failed to insert build: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	for _, p := range b.Payloads {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO build_payloads (build_id, slot, path, size) VALUES (?, ?, ?, ?)`,
			id, p.Slot, p.Path, p.Size); err != nil {
			slog.Error("history_insert_payload_failed", "build_id", id, "slot", p.Slot, "error", err)
			return fmt.Errorf("failed to insert payload %d: %w", p.Slot, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	b.ID = id

	slog.Info("history_build_recorded", "build_id", id, "output", b.Output, "status", b.Status)
	return nil
}

const selectBuild = `
	SELECT id, output, stub_path, stub_size, table_size, file_count, image_size,
	       sha512, status, errors, created_at
	FROM builds
`

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(s scanner) (*Build, error) {
	var b Build
	var sha512, errs sql.NullString
	if err := s.Scan(&b.ID, &b.Output, &b.StubPath, &b.StubSize, &b.TableSize, &b.FileCount,
		&b.ImageSize, &sha512, &b.Status, &errs, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.SHA512 = sha512.String
	b.Errors = errs.String
	return &b, nil
}

// Get retrieves a build with its payloads. Returns nil if it does not exist.
func (r *Repository) Get(ctx context.Context, id int64) (*Build, error) {
	b, err := scanBuild(r.db.QueryRowContext(ctx, selectBuild+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		slog.Info("history_build_not_found", "build_id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("history_query_failed", "build_id", id, "error", err)
		return nil, fmt.Errorf("failed to query build: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT slot, path, size FROM build_payloads WHERE build_id = ? ORDER BY slot`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query payloads: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p Payload
		if err := rows.Scan(&p.Slot, &p.Path, &p.Size); err != nil {
			return nil, fmt.Errorf("failed to scan payload: %w", err)
		}
		b.Payloads = append(b.Payloads, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return b, nil
}

// List retrieves all builds, newest first, without payloads
func (r *Repository) List(ctx context.Context) ([]*Build, error) {
	rows, err := r.db.QueryContext(ctx, selectBuild+` ORDER BY id DESC`)
	if err != nil {
		slog.Error("history_list_failed", "error", err)
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var builds []*Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	slog.Debug("history_list_complete", "build_count", len(builds))
	return builds, nil
}
