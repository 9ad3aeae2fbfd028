package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"social-graph/backend/internal/metrics"
	"social-graph/backend/internal/pagination"
	apperrors "social-graph/backend/pkg/errors"
)

// Runner executes tagged query templates against the graph store. Every call
// is one transaction on its own session.
type Runner interface {
	Read(ctx context.Context, q Query, params map[string]any) ([]Row, error)
	Write(ctx context.Context, q Query, params map[string]any) ([]Row, error)
	ReadPage(ctx context.Context, data, count Query, params map[string]any, opts pagination.Options) (*Page, error)
}

// Page is a bounded slice of rows plus the size of the full result set.
type Page struct {
	Rows       []Row
	Pagination pagination.Pagination
}

// Config holds the connection settings for Open.
type Config struct {
	URI            string
	User           string
	Password       string
	Database       string
	MaxPoolSize    int
	AcquireTimeout time.Duration
	QueryTimeout   time.Duration
}

// Store owns the Neo4j driver and its connection pool. It is created once by
// the process entry point and closed at shutdown.
type Store struct {
	driver       neo4j.DriverWithContext
	database     string
	queryTimeout time.Duration
	logger       *zap.Logger
}

var _ Runner = (*Store)(nil)

// Open creates the driver and verifies connectivity.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.User, cfg.Password, ""),
		func(c *neo4j.Config) {
			if cfg.MaxPoolSize > 0 {
				c.MaxConnectionPoolSize = cfg.MaxPoolSize
			}
			if cfg.AcquireTimeout > 0 {
				c.ConnectionAcquisitionTimeout = cfg.AcquireTimeout
			}
		},
	)
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(cfg.URI, err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(context.WithoutCancel(ctx))
		return nil, apperrors.NewGraphConnectionFailed(cfg.URI, err)
	}

	return NewStore(driver, cfg.Database, cfg.QueryTimeout, logger), nil
}

// NewStore wraps an existing driver.
func NewStore(driver neo4j.DriverWithContext, database string, queryTimeout time.Duration, logger *zap.Logger) *Store {
	return &Store{
		driver:       driver,
		database:     database,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

// Close closes the Neo4j driver connection pool
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Read runs q inside a read transaction.
func (s *Store) Read(ctx context.Context, q Query, params map[string]any) ([]Row, error) {
	var rows []Row
	err := s.execute(ctx, neo4j.AccessModeRead, q, func(ctx context.Context, tx neo4j.ExplicitTransaction) error {
		var err error
		rows, err = collect(ctx, tx, q, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Write runs q inside a write transaction.
func (s *Store) Write(ctx context.Context, q Query, params map[string]any) ([]Row, error) {
	var rows []Row
	err := s.execute(ctx, neo4j.AccessModeWrite, q, func(ctx context.Context, tx neo4j.ExplicitTransaction) error {
		var err error
		rows, err = collect(ctx, tx, q, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadPage runs the data template with skip/limit bound from opts, and the
// count template, in a single read transaction. The count template must
// return a single `total` column.
func (s *Store) ReadPage(ctx context.Context, data, count Query, params map[string]any, opts pagination.Options) (*Page, error) {
	bound := make(map[string]any, len(params)+3)
	for k, v := range params {
		bound[k] = v
	}
	for k, v := range opts.Params() {
		bound[k] = v
	}

	page := &Page{}
	err := s.execute(ctx, neo4j.AccessModeRead, data, func(ctx context.Context, tx neo4j.ExplicitTransaction) error {
		rows, err := collect(ctx, tx, data, bound)
		if err != nil {
			return err
		}
		totals, err := collect(ctx, tx, count, bound)
		if err != nil {
			return err
		}
		var total int64
		if len(totals) > 0 {
			total = totals[0].Int64("total")
		}
		page.Rows = rows
		page.Pagination = opts.Meta(total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// execute scopes a session and an explicit transaction to one call. Explicit
// transactions are used so the driver never retries on the engine's behalf.
func (s *Store) execute(ctx context.Context, mode neo4j.AccessMode, q Query, work func(context.Context, neo4j.ExplicitTransaction) error) (err error) {
	if s.queryTimeout > 0 {
		if deadline, ok := ctx.Deadline(); !ok || time.Until(deadline) > s.queryTimeout {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
			defer cancel()
		}
	}

	start := time.Now()
	modeName := accessModeName(mode)
	defer func() {
		kind := string(apperrors.KindOf(err))
		metrics.RecordGraphQuery(q.Name, modeName, time.Since(start), kind)
		if err != nil {
			s.logger.Warn("Graph query failed",
				zap.String("query", q.Name),
				zap.String("mode", modeName),
				zap.String("kind", kind),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		s.logger.Debug("Graph query",
			zap.String("query", q.Name),
			zap.String("mode", modeName),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	// Cleanup must still reach the pool after the caller's context is done.
	cleanupCtx := context.WithoutCancel(ctx)

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
	defer session.Close(cleanupCtx)

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		return classify(ctx, q.Name, s.queryTimeout, err)
	}
	// Close rolls back anything not committed.
	defer tx.Close(cleanupCtx)

	if err := work(ctx, tx); err != nil {
		return classify(ctx, q.Name, s.queryTimeout, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(ctx, q.Name, s.queryTimeout, err)
	}
	return nil
}

func collect(ctx context.Context, tx neo4j.ExplicitTransaction, q Query, params map[string]any) ([]Row, error) {
	result, err := tx.Run(ctx, q.Cypher, params)
	if err != nil {
		return nil, err
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, NewRow(record.Keys, record.Values))
	}
	return rows, nil
}

func accessModeName(mode neo4j.AccessMode) string {
	if mode == neo4j.AccessModeWrite {
		return "write"
	}
	return "read"
}
