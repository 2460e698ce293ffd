package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	assert.True(t, Valid("leader@college.edu"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("not-an-address"))
	assert.False(t, Valid(" leader@college.edu"))
	assert.False(t, Valid("Leader <leader@college.edu>"))
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Asha Rao", Greeting("  Asha Rao ", "x@y.z"))
	assert.Equal(t, "Priya Sharma", Greeting("", "priya.sharma@college.edu"))
	assert.Equal(t, "Ravi", Greeting("", "ravi@college.edu"))
	assert.Equal(t, "Participant", Greeting("", ""))
}
