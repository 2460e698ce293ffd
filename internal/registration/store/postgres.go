package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"samved/internal/platform/postgres"
	"samved/internal/registration/models"
	id "samved/pkg/domain"
	"samved/pkg/platform/sentinel"
	txcontext "samved/pkg/platform/tx"
)

// PostgresStore keeps the indexed lookup columns in typed columns and the
// rest of the registration in a JSONB payload.
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

// payload is the JSONB form. The password hash is stored here because
// models.StagedRegistration hides it from JSON.
type payload struct {
	models.StagedRegistration
	LeaderPasswordHash string `json:"leader_password_hash"`
}

func (s *PostgresStore) Create(ctx context.Context, reg *models.StagedRegistration) error {
	body, err := json.Marshal(payload{StagedRegistration: *reg, LeaderPasswordHash: reg.LeaderPasswordHash})
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO staged_registrations (id, team_name, leader_email, participant_emails, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		uuid.UUID(reg.ID),
		reg.TeamName,
		reg.LeaderEmail,
		pq.Array(reg.ParticipantEmails()),
		body,
		string(reg.Status),
		reg.CreatedAt,
	)
	if err != nil {
		if constraint, ok := postgres.UniqueViolation(err); ok {
			return fmt.Errorf("%s: %w", constraint, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, regID id.RegistrationID) (*models.StagedRegistration, error) {
	return s.findOne(ctx, `SELECT payload FROM staged_registrations WHERE id = $1`, uuid.UUID(regID))
}

func (s *PostgresStore) FindByTeamName(ctx context.Context, name string) (*models.StagedRegistration, error) {
	return s.findOne(ctx, `SELECT payload FROM staged_registrations WHERE team_name = $1`, name)
}

func (s *PostgresStore) FindByLeaderEmail(ctx context.Context, addr string) (*models.StagedRegistration, error) {
	return s.findOne(ctx, `SELECT payload FROM staged_registrations WHERE leader_email = $1`, addr)
}

func (s *PostgresStore) FindByParticipantEmail(ctx context.Context, addr string) (*models.StagedRegistration, error) {
	return s.findOne(ctx, `SELECT payload FROM staged_registrations WHERE participant_emails @> ARRAY[$1]::text[] LIMIT 1`, addr)
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]*models.StagedRegistration, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT payload FROM staged_registrations WHERE status = $1 ORDER BY created_at DESC`,
		string(models.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()
	var out []*models.StagedRegistration
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		reg, err := decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, regID id.RegistrationID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM staged_registrations WHERE id = $1`, uuid.UUID(regID))
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.StagedRegistration, error) {
	var body []byte
	if err := s.execer(ctx).QueryRowContext(ctx, query, arg).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return decode(body)
}

func decode(body []byte) (*models.StagedRegistration, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode registration: %w", err)
	}
	reg := p.StagedRegistration
	reg.LeaderPasswordHash = p.LeaderPasswordHash
	return &reg, nil
}
