package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/audit"
	auditmemory "samved/pkg/platform/audit/store/memory"
)

func seeded(t *testing.T, n int) *Service {
	t.Helper()
	store := auditmemory.NewInMemoryStore()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := range n {
		require.NoError(t, store.Append(context.Background(), audit.Event{
			Subject:   fmt.Sprintf("reg-%d", i%2),
			Action:    string(audit.EventRegistrationStaged),
			Timestamp: start.Add(time.Duration(i) * time.Minute),
		}))
	}
	return New(store)
}

func TestRecent(t *testing.T) {
	svc := seeded(t, 5)
	ctx := context.Background()

	events, err := svc.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = svc.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, events, 5)

	_, err = svc.Recent(ctx, -1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestForSubject(t *testing.T) {
	svc := seeded(t, 5)

	events, err := svc.ForSubject(context.Background(), "reg-0")
	require.NoError(t, err)
	assert.Len(t, events, 3)

	_, err = svc.ForSubject(context.Background(), "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
