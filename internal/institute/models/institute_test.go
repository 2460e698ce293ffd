package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "samved/pkg/domain-errors"
)

func TestNewInstitute(t *testing.T) {
	now := time.Now()

	t.Run("normalizes code", func(t *testing.T) {
		inst, err := NewInstitute("  abc01 ", " ABC College ", "", "", now)
		require.NoError(t, err)
		assert.Equal(t, "ABC01", inst.Code.String())
		assert.Equal(t, "ABC College", inst.Name)
		assert.True(t, inst.Active)
	})

	t.Run("rejects blank code", func(t *testing.T) {
		_, err := NewInstitute("   ", "x", "", "", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestMerge(t *testing.T) {
	now := time.Now()
	existing, _ := NewInstitute("ABC", "Old Name", "Pune", "", now)
	incoming, _ := NewInstitute("abc", "New Name", "Mumbai", "MH", now.Add(time.Hour))

	existing.Merge(incoming)

	assert.Equal(t, "New Name", existing.Name)
	assert.Equal(t, "Pune", existing.District, "district is only backfilled")
	assert.Equal(t, "MH", existing.State)
	assert.Equal(t, incoming.UpdatedAt, existing.UpdatedAt)

	blank, _ := NewInstitute("abc", "", "", "", now)
	existing.Merge(blank)
	assert.Equal(t, "New Name", existing.Name, "empty name keeps stored name")
}
