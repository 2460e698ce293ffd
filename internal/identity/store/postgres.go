package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"samved/internal/identity/models"
	"samved/internal/platform/postgres"
	id "samved/pkg/domain"
	"samved/pkg/platform/sentinel"
	txcontext "samved/pkg/platform/tx"
)

// PostgresStore persists identities in the identities table.
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

const identityColumns = `id, email, password_hash, role, name, phone, institute_code,
	institute_name, district, state, team_id, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, ident *models.Identity) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO identities (`+identityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		uuid.UUID(ident.ID),
		ident.Email,
		ident.PasswordHash,
		ident.Role.String(),
		ident.Name,
		ident.Phone,
		ident.InstituteCode.String(),
		ident.InstituteName,
		ident.District,
		ident.State,
		nullTeamID(ident.TeamID),
		ident.CreatedAt,
		ident.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := postgres.UniqueViolation(err); ok {
			if constraint == "identities_single_occupancy" {
				return fmt.Errorf("%s for institute %s: %w", ident.Role, ident.InstituteCode, sentinel.ErrConflict)
			}
			return fmt.Errorf("email %s: %w", ident.Email, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, identityID id.IdentityID) (*models.Identity, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = $1`, uuid.UUID(identityID))
	return scanIdentity(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, addr string) (*models.Identity, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE email = $1`, addr)
	return scanIdentity(row)
}

func (s *PostgresStore) FindOccupant(ctx context.Context, role id.Role, code id.InstituteCode) (*models.Identity, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE role = $1 AND institute_code = $2 LIMIT 1`,
		role.String(), code.String())
	return scanIdentity(row)
}

func (s *PostgresStore) Update(ctx context.Context, ident *models.Identity) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE identities
		SET password_hash = $2, name = $3, phone = $4, institute_code = $5,
		    institute_name = $6, district = $7, state = $8, team_id = $9, updated_at = $10
		WHERE id = $1 AND email = $11
	`,
		uuid.UUID(ident.ID),
		ident.PasswordHash,
		ident.Name,
		ident.Phone,
		ident.InstituteCode.String(),
		ident.InstituteName,
		ident.District,
		ident.State,
		nullTeamID(ident.TeamID),
		ident.UpdatedAt,
		ident.Email,
	)
	if err != nil {
		if _, ok := postgres.UniqueViolation(err); ok {
			return fmt.Errorf("update identity: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("update identity: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, identityID id.IdentityID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, uuid.UUID(identityID))
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ListByTeam(ctx context.Context, teamID id.TeamID) ([]*models.Identity, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE team_id = $1 ORDER BY created_at`, uuid.UUID(teamID))
	if err != nil {
		return nil, fmt.Errorf("list identities by team: %w", err)
	}
	defer rows.Close()

	var out []*models.Identity
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row scanner) (*models.Identity, error) {
	var (
		ident      models.Identity
		identityID uuid.UUID
		role, code string
		teamID     uuid.NullUUID
	)
	err := row.Scan(
		&identityID,
		&ident.Email,
		&ident.PasswordHash,
		&role,
		&ident.Name,
		&ident.Phone,
		&code,
		&ident.InstituteName,
		&ident.District,
		&ident.State,
		&teamID,
		&ident.CreatedAt,
		&ident.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	ident.ID = id.IdentityID(identityID)
	ident.Role = id.Role(role)
	ident.InstituteCode = id.InstituteCode(code)
	if teamID.Valid {
		t := id.TeamID(teamID.UUID)
		ident.TeamID = &t
	}
	return &ident, nil
}

func nullTeamID(teamID *id.TeamID) uuid.NullUUID {
	if teamID == nil || teamID.IsNil() {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*teamID), Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
