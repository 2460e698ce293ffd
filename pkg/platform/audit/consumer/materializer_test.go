package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"samved/internal/platform/kafka/consumer"
	audit "samved/pkg/platform/audit"
	auditpg "samved/pkg/platform/audit/store/postgres"
)

type recordingWriter struct {
	ids    []uuid.UUID
	events []audit.Event
	err    error
}

func (w *recordingWriter) AppendWithID(_ context.Context, eventID uuid.UUID, event audit.Event) error {
	if w.err != nil {
		return w.err
	}
	w.ids = append(w.ids, eventID)
	w.events = append(w.events, event)
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestMaterializer_StoresDecodedEvent(t *testing.T) {
	w := &recordingWriter{}
	m := NewMaterializer(w, newTestLogger())

	eventID := uuid.New()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	body, err := json.Marshal(auditpg.Payload{
		ID:        eventID.String(),
		Category:  string(audit.CategoryCompliance),
		Timestamp: ts,
		Subject:   "team-1",
		Action:    string(audit.EventTeamPromoted),
		ActorID:   "admin-1",
		Detail:    map[string]string{"team_name": "Alpha"},
	})
	require.NoError(t, err)

	require.NoError(t, m.Handle(context.Background(), &consumer.Message{Topic: "samved.audit", Value: body}))
	require.Len(t, w.events, 1)
	assert.Equal(t, eventID, w.ids[0])
	assert.Equal(t, string(audit.EventTeamPromoted), w.events[0].Action)
	assert.Equal(t, ts, w.events[0].Timestamp)
	assert.Equal(t, "Alpha", w.events[0].Detail["team_name"])
}

func TestMaterializer_SkipsMalformed(t *testing.T) {
	w := &recordingWriter{}
	m := NewMaterializer(w, newTestLogger())

	assert.NoError(t, m.Handle(context.Background(), &consumer.Message{Value: []byte("not json")}))
	assert.NoError(t, m.Handle(context.Background(), &consumer.Message{Value: []byte(`{"id":"nope"}`)}))
	assert.Empty(t, w.events)
}

func TestMaterializer_PropagatesStoreError(t *testing.T) {
	w := &recordingWriter{err: errors.New("db down")}
	m := NewMaterializer(w, newTestLogger())
	body, _ := json.Marshal(auditpg.Payload{ID: uuid.NewString(), Action: "team_deleted"})
	assert.Error(t, m.Handle(context.Background(), &consumer.Message{Value: body}))
}
