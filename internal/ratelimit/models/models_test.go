package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDenied(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	r := Denied(10, now.Add(1500*time.Millisecond), now)
	assert.False(t, r.Allowed)
	assert.Equal(t, 0, r.Remaining)
	assert.Equal(t, 2, r.RetryAfter)

	assert.Equal(t, 0, Denied(10, now.Add(-time.Second), now).RetryAfter)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "rl:buyer_create:user:alice", Key("buyer_create", SubjectUser, "alice"))
}
