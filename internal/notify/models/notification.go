package models

import (
	"time"

	id "samved/pkg/domain"
)

// Notification is one in-app message for one recipient.
type Notification struct {
	ID          id.NotificationID `json:"id"`
	IdentityID  id.IdentityID     `json:"identity_id"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Level       Level             `json:"level"`
	TeamID      *id.TeamID        `json:"team_id,omitempty"`
	TriggeredBy *id.IdentityID    `json:"triggered_by,omitempty"`
	Read        bool              `json:"read"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Fanout expands an in-app intent into one record per recipient.
func Fanout(intent Intent, now time.Time) []*Notification {
	out := make([]*Notification, 0, len(intent.Recipients))
	var triggeredBy *id.IdentityID
	if !intent.TriggeredBy.IsNil() {
		t := intent.TriggeredBy
		triggeredBy = &t
	}
	level := intent.Level
	if level == "" {
		level = LevelInfo
	}
	for _, recipient := range intent.Recipients {
		out = append(out, &Notification{
			ID:          id.NewNotificationID(),
			IdentityID:  recipient,
			Title:       intent.Title,
			Message:     intent.Message,
			Level:       level,
			TeamID:      intent.TeamID,
			TriggeredBy: triggeredBy,
			CreatedAt:   now,
		})
	}
	return out
}
