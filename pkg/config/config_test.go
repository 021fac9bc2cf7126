package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_UsesDefaultsWhenUnset(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.Equal(t, "postop-followup-agent", cfg.Fabric.AgentName)
	require.Equal(t, "claude-sonnet-4-5", cfg.LLM.Model)
	require.Equal(t, 5, cfg.Queue.WorkerCount)
}

func TestLoadFromEnv_OverlaysQueueTuning(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "12")
	t.Setenv("TICK_INTERVAL_S", "30")
	t.Setenv("CALL_TIMEOUT_S", "120")
	t.Setenv("DRAIN_TIMEOUT_S", "45")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	require.Equal(t, 12, cfg.Queue.WorkerCount)
	require.Equal(t, 30*time.Second, cfg.Queue.TickInterval)
	require.Equal(t, 120*time.Second, cfg.Queue.CallTimeout)
	require.Equal(t, 45*time.Second, cfg.Queue.DrainTimeout)
}

func TestLoadFromEnv_RejectsNonIntegerTuning(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "not-a-number")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_RejectsTrunkIDWithUnknownPrefix(t *testing.T) {
	t.Setenv("SIP_OUTBOUND_TRUNK_ID", "trunk-123")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_AcceptsTrunkIDWithKnownPrefix(t *testing.T) {
	t.Setenv("SIP_OUTBOUND_TRUNK_ID", "ST_abc123")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.Equal(t, "ST_abc123", cfg.Fabric.SIPOutboundTrunkID)
}

func TestLoadFromEnv_OverlaysArchiveAndEmailFromEnv(t *testing.T) {
	t.Setenv("ARCHIVE_DB_HOST", "archive.internal")
	t.Setenv("ARCHIVE_DB_PORT", "5433")
	t.Setenv("EMAIL_SMTP_HOST", "smtp.internal")
	t.Setenv("EMAIL_SMTP_PORT", "2525")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	require.Equal(t, "archive.internal", cfg.Archive.Host)
	require.Equal(t, 5433, cfg.Archive.Port)
	require.Equal(t, "smtp.internal", cfg.Email.SMTPHost)
	require.Equal(t, 2525, cfg.Email.SMTPPort)
}
