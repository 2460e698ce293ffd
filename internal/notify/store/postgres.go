package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"samved/internal/notify/models"
	id "samved/pkg/domain"
	txcontext "samved/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateBatch inserts every record in one transaction.
func (s *PostgresStore) CreateBatch(ctx context.Context, records []*models.Notification) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		tx, _ := txcontext.From(ctx)
		for _, n := range records {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO notifications (id, identity_id, title, message, kind, team_id, triggered_by, read, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`,
				uuid.UUID(n.ID),
				uuid.UUID(n.IdentityID),
				n.Title,
				n.Message,
				string(n.Level),
				nullUUID(n.TeamID),
				nullUUID(n.TriggeredBy),
				n.Read,
				n.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert notification: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) ListByRecipient(ctx context.Context, identityID id.IdentityID) ([]*models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, identity_id, title, message, kind, team_id, triggered_by, read, created_at
		FROM notifications
		WHERE identity_id = $1
		ORDER BY created_at DESC
	`, uuid.UUID(identityID))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var (
			n                   models.Notification
			nid, recipient      uuid.UUID
			level               string
			teamID, triggeredBy uuid.NullUUID
		)
		if err := rows.Scan(&nid, &recipient, &n.Title, &n.Message, &level, &teamID, &triggeredBy, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ID = id.NotificationID(nid)
		n.IdentityID = id.IdentityID(recipient)
		n.Level = models.Level(level)
		if teamID.Valid {
			t := id.TeamID(teamID.UUID)
			n.TeamID = &t
		}
		if triggeredBy.Valid {
			t := id.IdentityID(triggeredBy.UUID)
			n.TriggeredBy = &t
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func nullUUID[T ~[16]byte](v *T) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}
