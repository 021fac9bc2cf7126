// Package archivestore is the durable long-term tier for aged-out
// CallScheduleItems: ent + PostgreSQL, with embedded golang-migrate
// migrations run at client construction.
package archivestore

import (
	"context"
	stdsql "database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/chriscow/postop-callsvc/ent"
	"github.com/chriscow/postop-callsvc/ent/archivedcall"
	"github.com/chriscow/postop-callsvc/pkg/callmodel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations
var migrationsFS embed.FS

// Config holds archive-database connection configuration.
type Config struct {
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

// Client wraps the ent client for the archive store.
type Client struct {
	*ent.Client
	db *stdsql.DB
}

// DB returns the underlying *sql.DB for health checks.
func (c *Client) DB() *stdsql.DB { return c.db }

// NewClient opens a pooled connection, runs migrations, and returns a
// ready-to-use archive store Client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := stdsql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging archive database: %w", err)
	}

	drv := entsql.OpenDB(dialect.Postgres, db)
	entClient := ent.NewClient(ent.Driver(drv))

	if err := runMigrations(db, cfg.Database); err != nil {
		_ = entClient.Close()
		return nil, fmt.Errorf("running archive migrations: %w", err)
	}

	return &Client{Client: entClient, db: db}, nil
}

func runMigrations(db *stdsql.DB, dbName string) error {
	if _, err := fs.ReadDir(migrationsFS, "migrations"); err != nil {
		return fmt.Errorf("reading embedded migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("creating postgres migrate driver: %w", err)
	}
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, dbName, driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("applying migrations: %w", err)
	}

	// Do not call m.Close(): it would close the shared *sql.DB via the
	// postgres driver and break the ent client using the same handle.
	return sourceDriver.Close()
}

// Put stores an ArchivedCall row. Satisfies atomicstore.ArchiveSink.
func (c *Client) Put(ctx context.Context, call *callmodel.ArchivedCall) error {
	return c.Client.ArchivedCall.Create().
		SetID(call.ID).
		SetPatientID(call.PatientID).
		SetCallType(string(call.CallType)).
		SetArchivedAt(call.ArchivedAt).
		SetPayload(call.Payload).
		OnConflictColumns(archivedcall.FieldID).
		Ignore().
		Exec(ctx)
}

// GetByID reads a single archived call, e.g. for a query-API lookup
// that falls through from the hot Redis path.
func (c *Client) GetByID(ctx context.Context, id string) (*callmodel.ArchivedCall, error) {
	row, err := c.Client.ArchivedCall.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &callmodel.ArchivedCall{
		ID:         row.ID,
		PatientID:  row.PatientID,
		CallType:   callmodel.CallTypeFromString(row.CallType),
		ArchivedAt: row.ArchivedAt,
		Payload:    row.Payload,
	}, nil
}

// ByPatient lists archived calls for a patient, newest first.
func (c *Client) ByPatient(ctx context.Context, patientID string) ([]*callmodel.ArchivedCall, error) {
	rows, err := c.Client.ArchivedCall.Query().
		Where(archivedcall.PatientIDEQ(patientID)).
		Order(ent.Desc(archivedcall.FieldArchivedAt)).
		All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*callmodel.ArchivedCall, 0, len(rows))
	for _, row := range rows {
		out = append(out, &callmodel.ArchivedCall{
			ID:         row.ID,
			PatientID:  row.PatientID,
			CallType:   callmodel.CallTypeFromString(row.CallType),
			ArchivedAt: row.ArchivedAt,
			Payload:    row.Payload,
		})
	}
	return out, nil
}
