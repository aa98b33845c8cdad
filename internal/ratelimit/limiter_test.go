package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinBurst(t *testing.T) {
	l := New(30, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("voter-1"), "request %d should pass", i)
	}
	assert.False(t, l.Allow("voter-1"))
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(30, 1)

	assert.True(t, l.Allow("voter-1"))
	assert.False(t, l.Allow("voter-1"))
	assert.True(t, l.Allow("voter-2"))
}

func TestResetClearsCounter(t *testing.T) {
	l := New(30, 1)

	assert.True(t, l.Allow("voter-1"))
	assert.False(t, l.Allow("voter-1"))

	l.Reset("voter-1")
	assert.True(t, l.Allow("voter-1"))
}

func TestResetAll(t *testing.T) {
	l := New(30, 1)

	l.Allow("voter-1")
	l.Allow("voter-2")
	l.ResetAll()

	assert.True(t, l.Allow("voter-1"))
	assert.True(t, l.Allow("voter-2"))
}
