package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultQueueConfig(t *testing.T) {
	cfg := DefaultQueueConfig()

	assert.Equal(t, 5, cfg.WorkerCount)
	assert.Equal(t, 60*time.Second, cfg.TickInterval)
	assert.Equal(t, 50, cfg.MaxBatch)
	assert.Equal(t, 5*time.Minute, cfg.CallTimeout)
	assert.Equal(t, 60*time.Second, cfg.DrainTimeout)
	assert.Equal(t, 5*time.Minute, cfg.OrphanDetectionInterval)
	assert.Equal(t, 2*time.Minute, cfg.OrphanGrace)
}

func TestOrphanThreshold_AddsGraceToCallTimeout(t *testing.T) {
	cfg := DefaultQueueConfig()
	assert.Equal(t, 7*time.Minute, cfg.OrphanThreshold())
}
