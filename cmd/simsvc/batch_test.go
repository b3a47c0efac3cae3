package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lanebattle/internal/config"
)

func TestBatchTotalsIgnoreWorkerCount(t *testing.T) {
	cfg := config.Default()
	one := runBatch(cfg, 77, 6, 4, 1, zap.NewNop())
	many := runBatch(cfg, 77, 6, 4, 4, zap.NewNop())

	require.Zero(t, one.Failed)
	assert.Equal(t, one, many)
	total := 0
	for _, v := range one.Wins {
		total += v
	}
	assert.Equal(t, 6, total)
}
