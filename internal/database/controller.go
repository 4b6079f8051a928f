// Package database owns the lifecycle of the live application database
// connection: connect, disconnect, and schema migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Ben2303/gamevault-backend/internal/config"
	gverrors "github.com/Ben2303/gamevault-backend/internal/errors"
	"github.com/Ben2303/gamevault-backend/internal/logger"
	"github.com/cenkalti/backoff/v4"

	// database/sql drivers for the two supported engines
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Controller owns the live database connection. The backup orchestrator
// disconnects it for the duration of a backup or restore and reconnects
// it afterwards; everything else in the server reaches the database
// through DB().
type Controller struct {
	cfg *config.Config
	log logger.Logger

	mu sync.Mutex
	db *sql.DB
}

// NewController creates a disconnected controller.
func NewController(cfg *config.Config, log logger.Logger) *Controller {
	return &Controller{cfg: cfg, log: log}
}

// Connect establishes the live connection. Calling Connect on an
// already-connected controller is a no-op. Transient failures are
// retried with exponential backoff.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}

	driver, dsn, err := c.dataSource()
	if err != nil {
		return err
	}

	operation := func() error {
		db, openErr := sql.Open(driver, dsn)
		if openErr != nil {
			return backoff.Permanent(openErr)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if pingErr := db.PingContext(pingCtx); pingErr != nil {
			db.Close()
			return pingErr
		}

		c.db = db
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("cannot connect to %s database: %w", strings.ToLower(string(c.cfg.DatabaseSystem)), err)
	}

	c.log.Info("Database connected", "driver", driver, "database", c.cfg.Database)
	return nil
}

// Disconnect closes the live connection. Disconnecting an already
// disconnected controller is a no-op.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	err := c.db.Close()
	c.db = nil
	c.log.Info("Database disconnected")
	return err
}

// DB returns the current connection handle, or nil when disconnected.
// Callers must fetch it per use: the handle changes across a restore.
func (c *Controller) DB() *sql.DB {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db
}

// Rebind rewrites '?' placeholders to the dialect of the configured
// engine ($1, $2, ... for PostgreSQL).
func (c *Controller) Rebind(query string) string {
	if c.cfg.DatabaseSystem != config.SystemPostgres {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (c *Controller) dataSource() (driver, dsn string, err error) {
	switch c.cfg.DatabaseSystem {
	case config.SystemPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.cfg.Username, c.cfg.Password),
			Host:   fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port),
			Path:   "/" + c.cfg.Database,
		}
		return "pgx", u.String(), nil

	case config.SystemSQLite:
		if c.cfg.InMemoryDB {
			return "sqlite3", ":memory:", nil
		}
		return "sqlite3", c.cfg.SQLitePath(), nil

	default:
		return "", "", gverrors.NewConfiguration("unknown database system").
			WithDetails(fmt.Sprintf("DB_SYSTEM=%s", c.cfg.DatabaseSystem))
	}
}
