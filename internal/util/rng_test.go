package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsDeterministic(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 16; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
	}
	assert.Equal(t, New(1).Int63(), New(0).Int63(), "zero seed maps to 1")
}

func TestJobSeed(t *testing.T) {
	assert.Equal(t, int64(100), JobSeed(100, 0))
	assert.Equal(t, int64(100+3*7919), JobSeed(100, 3))
	seen := map[int64]bool{}
	for i := 0; i < 64; i++ {
		seen[JobSeed(5, i)] = true
	}
	assert.Len(t, seen, 64)
}
