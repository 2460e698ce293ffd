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
	"samved/internal/team/models"
	id "samved/pkg/domain"
	"samved/pkg/platform/sentinel"
	txcontext "samved/pkg/platform/tx"
)

// PostgresStore keeps team attributes in a JSONB payload and the member set
// in team_members, whose unique identity_id constraint enforces one team per
// identity.
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

func (s *PostgresStore) Create(ctx context.Context, team *models.Team) error {
	body, err := json.Marshal(team)
	if err != nil {
		return fmt.Errorf("marshal team: %w", err)
	}
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		_, err := s.execer(ctx).ExecContext(ctx, `
			INSERT INTO teams (id, name, leader_id, spoc_id, mentor_id, payload, status, approved_by, approved_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			uuid.UUID(team.ID),
			team.Name,
			uuid.UUID(team.LeaderID),
			nullIdentity(&team.SPOC.ID),
			nullIdentity(&team.Mentor.ID),
			body,
			string(team.Status),
			nullIdentity(team.ApprovedBy),
			team.ApprovedAt,
			team.CreatedAt,
		)
		if err != nil {
			if constraint, ok := postgres.UniqueViolation(err); ok && constraint == "teams_name_key" {
				return fmt.Errorf("team name %q: %w", team.Name, sentinel.ErrAlreadyUsed)
			}
			return fmt.Errorf("insert team: %w", err)
		}
		return s.insertMembers(ctx, team)
	})
}

func (s *PostgresStore) insertMembers(ctx context.Context, team *models.Team) error {
	for pos, m := range team.MemberIDs {
		_, err := s.execer(ctx).ExecContext(ctx,
			`INSERT INTO team_members (team_id, identity_id, position) VALUES ($1, $2, $3)`,
			uuid.UUID(team.ID), uuid.UUID(m), pos)
		if err != nil {
			if _, ok := postgres.UniqueViolation(err); ok {
				return fmt.Errorf("identity %s: %w", m, sentinel.ErrConflict)
			}
			return fmt.Errorf("insert team member: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, teamID id.TeamID) (*models.Team, error) {
	var body []byte
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT payload FROM teams WHERE id = $1`, uuid.UUID(teamID)).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find team: %w", err)
	}
	team, err := decode(body)
	if err != nil {
		return nil, err
	}
	if team.MemberIDs, err = s.members(ctx, teamID); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *PostgresStore) members(ctx context.Context, teamID id.TeamID) ([]id.IdentityID, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT identity_id FROM team_members WHERE team_id = $1 ORDER BY position`, uuid.UUID(teamID))
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()
	var out []id.IdentityID
	for rows.Next() {
		var u uuid.UUID
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		out = append(out, id.IdentityID(u))
	}
	return out, rows.Err()
}

func (s *PostgresStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM teams WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check team name: %w", err)
	}
	return exists, nil
}

// UpdateMembers rewrites the member rows and the payload timestamp.
func (s *PostgresStore) UpdateMembers(ctx context.Context, team *models.Team) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		res, err := s.execer(ctx).ExecContext(ctx,
			`UPDATE teams SET payload = jsonb_set(payload, '{updated_at}', to_jsonb($2::timestamptz)) WHERE id = $1`,
			uuid.UUID(team.ID), team.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update team: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		} else if n == 0 {
			return sentinel.ErrNotFound
		}
		if _, err := s.execer(ctx).ExecContext(ctx,
			`DELETE FROM team_members WHERE team_id = $1`, uuid.UUID(team.ID)); err != nil {
			return fmt.Errorf("clear team members: %w", err)
		}
		return s.insertMembers(ctx, team)
	})
}

func (s *PostgresStore) Delete(ctx context.Context, teamID id.TeamID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, uuid.UUID(teamID))
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
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

func (s *PostgresStore) List(ctx context.Context) ([]*models.Team, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT t.payload, COALESCE(array_agg(m.identity_id::text ORDER BY m.position)
			FILTER (WHERE m.identity_id IS NOT NULL), '{}')
		FROM teams t
		LEFT JOIN team_members m ON m.team_id = t.id
		GROUP BY t.id
		ORDER BY t.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()
	var out []*models.Team
	for rows.Next() {
		var body []byte
		var memberIDs []string
		if err := rows.Scan(&body, pq.Array(&memberIDs)); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		team, err := decode(body)
		if err != nil {
			return nil, err
		}
		team.MemberIDs = team.MemberIDs[:0]
		for _, raw := range memberIDs {
			u, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("parse member id: %w", err)
			}
			team.MemberIDs = append(team.MemberIDs, id.IdentityID(u))
		}
		out = append(out, team)
	}
	return out, rows.Err()
}

func decode(body []byte) (*models.Team, error) {
	var team models.Team
	if err := json.Unmarshal(body, &team); err != nil {
		return nil, fmt.Errorf("decode team: %w", err)
	}
	return &team, nil
}

func nullIdentity(v *id.IdentityID) uuid.NullUUID {
	if v == nil || v.IsNil() {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}
