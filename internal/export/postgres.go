// Package export copies normalized relations into PostgreSQL so they can
// be joined with other datasets or served by BI tools.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/config"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/logging"
)

// Columns is the column order used by CopyFrom.
var Columns = []string{
	"batch_id",
	"source",
	"load_id",
	"commodity",
	"country",
	"country_code",
	"year",
	"statistic_type",
	"quantity",
	"units",
	"exported_at",
}

const createTableSQL = `CREATE TABLE IF NOT EXISTS %[1]s (
	batch_id       uuid             NOT NULL,
	source         text             NOT NULL,
	load_id        text             NOT NULL,
	commodity      text             NOT NULL,
	country        text             NOT NULL,
	country_code   text,
	year           integer          NOT NULL,
	statistic_type text,
	quantity       double precision NOT NULL,
	units          text,
	exported_at    timestamptz      NOT NULL
)`

const createIndexSQL = `CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s (source, commodity, year)`

// Conn is the subset of pgx used to write an export. Both *pgxpool.Pool
// and pgx.Tx satisfy it.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Beginner starts transactions.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Result describes a finished export.
type Result struct {
	BatchID  uuid.UUID `json:"batch_id"`
	Source   string    `json:"source"`
	Rows     int64     `json:"rows"`
	Replaced int64     `json:"replaced"`
	Duration time.Duration
}

// Exporter writes relations into one table.
type Exporter struct {
	db    Beginner
	table pgx.Identifier
}

// NewExporter creates an exporter writing to table, which may be
// schema-qualified ("stats.mineral_observations").
func NewExporter(db Beginner, table string) *Exporter {
	return &Exporter{db: db, table: pgx.Identifier(strings.Split(table, "."))}
}

// NewPool opens a connection pool sized from cfg and verifies it.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Export replaces the rows of rel.Source with the current relation inside
// one transaction. Readers never see a half-written source.
func (e *Exporter) Export(ctx context.Context, rel *core.Relation) (Result, error) {
	var res Result
	start := time.Now()

	err := pgx.BeginFunc(ctx, e.db, func(tx pgx.Tx) error {
		var err error
		res, err = e.write(ctx, tx, rel, uuid.New(), time.Now().UTC())
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("export %s: %w", rel.Source, err)
	}

	res.Duration = time.Since(start)
	logging.WithFields(ctx, "source", rel.Source, "batch_id", res.BatchID.String()).Info("relation exported",
		"rows", res.Rows,
		"replaced", res.Replaced,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Exporter) write(ctx context.Context, conn Conn, rel *core.Relation, batchID uuid.UUID, at time.Time) (Result, error) {
	res := Result{BatchID: batchID, Source: rel.Source}

	if err := e.ensureSchema(ctx, conn); err != nil {
		return res, err
	}

	tag, err := conn.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE source = $1", e.table.Sanitize()), rel.Source)
	if err != nil {
		return res, fmt.Errorf("delete previous rows: %w", err)
	}
	res.Replaced = tag.RowsAffected()

	n, err := conn.CopyFrom(ctx, e.table, Columns, pgx.CopyFromSlice(len(rel.Observations), func(i int) ([]any, error) {
		return Row(rel, rel.Observations[i], batchID, at), nil
	}))
	if err != nil {
		return res, fmt.Errorf("copy rows: %w", err)
	}
	res.Rows = n

	slog.Debug("copy finished", "table", e.table.Sanitize(), "rows", n)
	return res, nil
}

// ensureSchema creates the export table and its index when missing.
func (e *Exporter) ensureSchema(ctx context.Context, conn Conn) error {
	table := e.table.Sanitize()
	index := pgx.Identifier{e.table[len(e.table)-1] + "_source_commodity_year_idx"}.Sanitize()

	if _, err := conn.Exec(ctx, fmt.Sprintf(createTableSQL, table)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf(createIndexSQL, table, index)); err != nil {
		return fmt.Errorf("create index on %s: %w", table, err)
	}
	return nil
}

// Row converts one observation into CopyFrom values in Columns order.
// Empty optional text becomes NULL.
func Row(rel *core.Relation, o core.Observation, batchID uuid.UUID, at time.Time) []any {
	return []any{
		batchID,
		rel.Source,
		rel.LoadID,
		o.Commodity,
		o.Country,
		nullable(o.CountryCode),
		int32(o.Year),
		nullable(o.StatisticType),
		o.Quantity,
		nullable(o.Units),
		at,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
