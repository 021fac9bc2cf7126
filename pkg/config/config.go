// Package config loads postop-callsvc's environment-driven
// configuration: one struct per concern, each with a DefaultXConfig
// constructor and an env-overlay loader.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// sipTrunkIDPrefix is the known trunk-id prefix the Call Fabric
// platform assigns outbound SIP trunks ("SIP Trunk").
const sipTrunkIDPrefix = "ST_"

// RedisConfig configures the Atomic Store's Redis connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ArchiveConfig configures the durable archive-store Postgres connection.
type ArchiveConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// FabricConfig configures the Call Fabric adapter.
type FabricConfig struct {
	URL              string
	SIPOutboundTrunkID string
	AgentName        string
}

// LLMConfig configures the LLM adapter.
type LLMConfig struct {
	APIKey  string
	Model   string
	TimeoutS int
}

// EmailConfig configures the Email adapter.
type EmailConfig struct {
	SMTPHost string
	SMTPPort int
	From     string
	Username string
	Password string
}

// Config is the full service configuration, assembled from environment
// variables at startup.
type Config struct {
	HTTPPort string
	Redis    RedisConfig
	Archive  ArchiveConfig
	Fabric   FabricConfig
	LLM      LLMConfig
	Email    EmailConfig
	Queue    *QueueConfig
}

// LoadFromEnv reads the full config surface from the environment:
// CALL_FABRIC_URL, SIP_OUTBOUND_TRUNK_ID, AGENT_NAME, STORE_URL,
// LLM_API_KEY, EMAIL_*, TICK_INTERVAL_S, MAX_BATCH, WORKER_CONCURRENCY,
// CALL_TIMEOUT_S, DRAIN_TIMEOUT_S. A non-empty SIP_OUTBOUND_TRUNK_ID
// must carry the platform's known trunk-id prefix.
func LoadFromEnv() (*Config, error) {
	queue := DefaultQueueConfig()

	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
		}
		queue.WorkerCount = n
	}
	if v := os.Getenv("TICK_INTERVAL_S"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TICK_INTERVAL_S: %w", err)
		}
		queue.TickInterval = time.Duration(n) * time.Second
	}
	if v := os.Getenv("MAX_BATCH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_BATCH: %w", err)
		}
		queue.MaxBatch = n
	}
	if v := os.Getenv("CALL_TIMEOUT_S"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CALL_TIMEOUT_S: %w", err)
		}
		queue.CallTimeout = time.Duration(n) * time.Second
	}
	if v := os.Getenv("DRAIN_TIMEOUT_S"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DRAIN_TIMEOUT_S: %w", err)
		}
		queue.DrainTimeout = time.Duration(n) * time.Second
	}

	dbPort, _ := strconv.Atoi(getEnvOrDefault("ARCHIVE_DB_PORT", "5432"))
	llmTimeout, _ := strconv.Atoi(getEnvOrDefault("LLM_TIMEOUT_S", "30"))

	cfg := &Config{
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("STORE_URL", "localhost:6379"),
			Password: os.Getenv("STORE_PASSWORD"),
		},
		Archive: ArchiveConfig{
			Host:            os.Getenv("ARCHIVE_DB_HOST"),
			Port:            dbPort,
			User:            getEnvOrDefault("ARCHIVE_DB_USER", "postop"),
			Password:        os.Getenv("ARCHIVE_DB_PASSWORD"),
			Database:        getEnvOrDefault("ARCHIVE_DB_NAME", "postop_archive"),
			SSLMode:         getEnvOrDefault("ARCHIVE_DB_SSLMODE", "disable"),
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
		},
		Fabric: FabricConfig{
			URL:                os.Getenv("CALL_FABRIC_URL"),
			SIPOutboundTrunkID: os.Getenv("SIP_OUTBOUND_TRUNK_ID"),
			AgentName:          getEnvOrDefault("AGENT_NAME", "postop-followup-agent"),
		},
		LLM: LLMConfig{
			APIKey:   os.Getenv("LLM_API_KEY"),
			Model:    getEnvOrDefault("LLM_MODEL", "claude-sonnet-4-5"),
			TimeoutS: llmTimeout,
		},
		Email: EmailConfig{
			SMTPHost: os.Getenv("EMAIL_SMTP_HOST"),
			SMTPPort: mustAtoiOrDefault(os.Getenv("EMAIL_SMTP_PORT"), 587),
			From:     os.Getenv("EMAIL_FROM"),
			Username: os.Getenv("EMAIL_USERNAME"),
			Password: os.Getenv("EMAIL_PASSWORD"),
		},
		Queue: queue,
	}

	if cfg.Fabric.SIPOutboundTrunkID != "" && !strings.HasPrefix(cfg.Fabric.SIPOutboundTrunkID, sipTrunkIDPrefix) {
		return nil, fmt.Errorf("invalid SIP_OUTBOUND_TRUNK_ID %q: must start with %q", cfg.Fabric.SIPOutboundTrunkID, sipTrunkIDPrefix)
	}

	return cfg, nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoiOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
