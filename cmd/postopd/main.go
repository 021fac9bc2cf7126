// postopd runs the post-discharge follow-up call service: the worker
// pool that dials scheduled calls, the HTTP query/trigger API, or both
// in one process, selected by -mode.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chriscow/postop-callsvc/pkg/analyzer"
	"github.com/chriscow/postop-callsvc/pkg/api"
	"github.com/chriscow/postop-callsvc/pkg/archivestore"
	"github.com/chriscow/postop-callsvc/pkg/atomicstore"
	"github.com/chriscow/postop-callsvc/pkg/callexec"
	"github.com/chriscow/postop-callsvc/pkg/config"
	"github.com/chriscow/postop-callsvc/pkg/fabric"
	"github.com/chriscow/postop-callsvc/pkg/llmadapter"
	"github.com/chriscow/postop-callsvc/pkg/queue"
	"github.com/chriscow/postop-callsvc/pkg/scheduler"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	mode := flag.String("mode", getEnv("POSTOPD_MODE", "both"), "one of: both, worker-only, api-only")
	envFile := flag.String("env-file", getEnv("ENV_FILE", ".env"), "path to a .env file to load")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("warning: could not load %s: %v (continuing with existing environment)", *envFile, err)
	} else {
		log.Printf("loaded environment from %s", *envFile)
	}

	if *mode != "both" && *mode != "worker-only" && *mode != "api-only" {
		log.Fatalf("invalid -mode %q: must be both, worker-only, or api-only", *mode)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()

	var archiveSink atomicstore.ArchiveSink
	if cfg.Archive.Host != "" {
		archiveClient, err := archivestore.NewClient(ctx, archivestore.Config{
			Host:            cfg.Archive.Host,
			Port:            cfg.Archive.Port,
			User:            cfg.Archive.User,
			Password:        cfg.Archive.Password,
			Database:        cfg.Archive.Database,
			SSLMode:         cfg.Archive.SSLMode,
			MaxOpenConns:    cfg.Archive.MaxOpenConns,
			MaxIdleConns:    cfg.Archive.MaxIdleConns,
			ConnMaxLifetime: cfg.Archive.ConnMaxLifetime,
		})
		if err != nil {
			log.Fatalf("failed to connect to archive database: %v", err)
		}
		defer archiveClient.Close()
		archiveSink = archiveClient
		slog.Info("connected to archive database", "host", cfg.Archive.Host, "database", cfg.Archive.Database)
	} else {
		slog.Warn("ARCHIVE_DB_HOST not set, aged-out calls will not be archived")
	}

	store, err := atomicstore.New(ctx, rdb, archiveSink)
	if err != nil {
		log.Fatalf("failed to initialize atomic store: %v", err)
	}
	slog.Info("connected to atomic store", "addr", cfg.Redis.Addr)

	var fabricAdapter fabric.Adapter
	if cfg.Fabric.URL != "" {
		fabricAdapter = fabric.NewBreakerAdapter(fabric.NewHTTPClient(cfg.Fabric.URL))
	} else {
		slog.Warn("CALL_FABRIC_URL not set, using the in-memory mock fabric adapter")
		fabricAdapter = fabric.NewMockAdapter()
	}

	var llm llmadapter.Client
	if cfg.LLM.APIKey != "" {
		llm = llmadapter.NewBreakerClient(llmadapter.NewAnthropicClient(cfg.LLM.APIKey))
	} else {
		slog.Warn("LLM_API_KEY not set, using the deterministic mock LLM client")
		llm = llmadapter.NewMockClient()
	}

	// The dialog controller (pkg/dialogcontroller, which owns the email
	// adapter) runs inside the live-call agent process dispatched by the
	// Call Fabric, not here: postopd only schedules and executes the
	// follow-up calls that controller's captured instructions produce.

	sched := scheduler.New(store)
	transcriptAnalyzer := analyzer.New(llm)
	executor := callexec.New(fabricAdapter, store, callexec.Config{
		AgentName:          cfg.Fabric.AgentName,
		SIPOutboundTrunkID: cfg.Fabric.SIPOutboundTrunkID,
	})

	var pool *queue.Pool
	if *mode == "both" || *mode == "worker-only" {
		podID := getEnv("POD_ID", uuid.NewString())
		pool = queue.NewPool(podID, store, executor, cfg.Queue)
		pool.Start(ctx)
		slog.Info("worker pool started", "pod_id", podID, "worker_count", cfg.Queue.WorkerCount)
	}

	if *mode == "both" || *mode == "api-only" {
		server := api.NewServer(sched, transcriptAnalyzer, store, pool)
		go func() {
			slog.Info("http server listening", "port", cfg.HTTPPort)
			if err := server.Run(fmt.Sprintf(":%s", cfg.HTTPPort)); err != nil {
				log.Fatalf("http server stopped: %v", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("shutdown signal received, stopping")

	if pool != nil {
		pool.Stop()
	}
	slog.Info("postopd stopped")
}
