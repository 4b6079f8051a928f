package backup

import (
	"context"
	"crypto/subtle"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Ben2303/gamevault-backend/internal/config"
	gverrors "github.com/Ben2303/gamevault-backend/internal/errors"
	"github.com/Ben2303/gamevault-backend/internal/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// ConnectionController is the live-connection lifecycle contract the
// orchestrator needs from the database layer.
type ConnectionController interface {
	Connect(ctx context.Context) error
	Disconnect() error
	RunMigrations(ctx context.Context) error
}

// Orchestrator sequences backup and restore operations: it validates the
// caller's password, disconnects the live database connection for the
// duration of the operation, delegates to the engine strategy, and
// guarantees the connection is re-established before returning.
//
// A process-wide mutex serializes operations; the disconnect/operate/
// reconnect sequence is not designed for concurrent overlap.
type Orchestrator struct {
	cfg      *config.Config
	log      logger.Logger
	db       ConnectionController
	strategy Strategy
	builder  *ArtifactBuilder

	mu  sync.Mutex
	now func() time.Time
}

// NewOrchestrator wires the backup/restore core together.
func NewOrchestrator(cfg *config.Config, log logger.Logger, db ConnectionController, strategy Strategy, fs afero.Fs) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		log:      log,
		db:       db,
		strategy: strategy,
		builder:  NewArtifactBuilder(fs),
		now:      time.Now,
	}
}

// Backup creates a full backup of the live database and returns it as a
// downloadable stream. The live connection is disconnected for the
// duration of the dump and reconnected before returning, even on failure.
func (o *Orchestrator) Backup(ctx context.Context, password string) (*Download, error) {
	if err := o.authorize(password); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	op := o.log.StartOperation("backup")
	target := filepath.Join(os.TempDir(), BackupFilename(o.now()))

	if err := o.db.Disconnect(); err != nil {
		op.Fail("cannot disconnect live database connection")
		return nil, gverrors.NewInternal("cannot disconnect database connection", err)
	}

	artifact, backupErr := o.strategy.BackupTo(ctx, target)

	if err := o.reconnect(ctx); err != nil {
		op.Fail("reconnect failed")
		if backupErr != nil {
			return nil, gverrors.NewInternal("backup failed and database could not be reconnected",
				multierror.Append(backupErr, err))
		}
		return nil, err
	}

	if backupErr != nil {
		op.Fail("backup failed")
		return nil, backupErr
	}

	download, err := o.builder.Open(artifact)
	if err != nil {
		op.Fail("cannot open backup artifact")
		return nil, err
	}

	op.Complete("backup ready", "filename", download.Filename, "size", download.Size)
	return download, nil
}

// Restore replaces the live database with the uploaded dump. The live
// connection is reconnected before any error propagates; schema
// migrations run afterwards unless the restore ended fatally.
func (o *Orchestrator) Restore(ctx context.Context, pkg RestorePackage) error {
	if err := o.authorize(pkg.Password); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	op := o.log.StartOperation("restore")

	if err := o.db.Disconnect(); err != nil {
		op.Fail("cannot disconnect live database connection")
		return gverrors.NewInternal("cannot disconnect database connection", err)
	}

	restoreErr := o.strategy.RestoreFrom(ctx, pkg.Data)

	if err := o.reconnect(ctx); err != nil {
		op.Fail("reconnect failed")
		if restoreErr != nil {
			return gverrors.NewInternal("restore failed and database could not be reconnected",
				multierror.Append(restoreErr, err))
		}
		return err
	}

	if gverrors.Fatal(restoreErr) {
		// Rollback already failed; do not run migrations against a
		// database in an unknown state.
		op.Fail("restore failed fatally")
		return restoreErr
	}

	if err := o.db.RunMigrations(ctx); err != nil {
		op.Fail("post-restore migrations failed")
		if restoreErr != nil {
			return gverrors.NewInternal("rolled-back restore left unmigratable state",
				multierror.Append(restoreErr, err))
		}
		return gverrors.NewInternal("post-restore migrations failed", err)
	}

	if restoreErr != nil {
		op.Fail("restore failed, previous state recovered")
		return restoreErr
	}

	op.Complete("restore applied")
	return nil
}

// authorize performs the shared pre-operation checks. It must not have
// side effects: a rejected call leaves the connection and the filesystem
// untouched.
func (o *Orchestrator) authorize(password string) error {
	if o.cfg.InMemoryDB {
		return gverrors.NewConfiguration("backup and restore are not possible with an in-memory database")
	}

	if subtle.ConstantTimeCompare([]byte(password), []byte(o.cfg.Password)) != 1 {
		return gverrors.NewAuthorization("incorrect database password")
	}
	return nil
}

// reconnect re-establishes the live connection. Failure here is always
// fatal: the application must never be left without a connection.
func (o *Orchestrator) reconnect(ctx context.Context) error {
	if err := o.db.Connect(ctx); err != nil {
		o.log.Error("Could not re-establish database connection after operation", "error", err)
		return gverrors.NewInternal("database connection could not be re-established", err)
	}
	return nil
}
