package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"samved/internal/institute/models"
	id "samved/pkg/domain"
	"samved/pkg/platform/sentinel"
	txcontext "samved/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Upsert applies the same merge rules as models.Institute.Merge in SQL.
func (s *PostgresStore) Upsert(ctx context.Context, inst *models.Institute) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO institutes (code, name, district, state, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6)
		ON CONFLICT (code) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE institutes.name END,
			district = CASE WHEN institutes.district = '' THEN EXCLUDED.district ELSE institutes.district END,
			state = CASE WHEN institutes.state = '' THEN EXCLUDED.state ELSE institutes.state END,
			active = TRUE,
			updated_at = EXCLUDED.updated_at
	`, inst.Code.String(), inst.Name, inst.District, inst.State, inst.CreatedAt, inst.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert institute: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCode(ctx context.Context, code id.InstituteCode) (*models.Institute, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT code, name, district, state, active, created_at, updated_at
		FROM institutes WHERE code = $1
	`, code.String())
	inst, err := scanInstitute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return inst, err
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Institute, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT code, name, district, state, active, created_at, updated_at
		FROM institutes ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("list institutes: %w", err)
	}
	defer rows.Close()
	var out []*models.Institute
	for rows.Next() {
		inst, err := scanInstitute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstitute(row scanner) (*models.Institute, error) {
	var (
		inst models.Institute
		code string
	)
	if err := row.Scan(&code, &inst.Name, &inst.District, &inst.State, &inst.Active, &inst.CreatedAt, &inst.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan institute: %w", err)
	}
	inst.Code = id.InstituteCode(code)
	return &inst, nil
}
