package backup

import (
	"context"
	stderrors "errors"
	"io"
	"strconv"
	"strings"

	"github.com/Ben2303/gamevault-backend/internal/config"
	"github.com/Ben2303/gamevault-backend/internal/database"
	gverrors "github.com/Ben2303/gamevault-backend/internal/errors"
	"github.com/Ben2303/gamevault-backend/internal/logger"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// PostgresStrategy backs up and restores a PostgreSQL database using the
// native client tools (pg_dump, pg_restore, psql). Credentials are passed
// through the environment, never on the command line.
type PostgresStrategy struct {
	cfg     *config.Config
	log     logger.Logger
	runner  Runner
	fs      afero.Fs
	builder *ArtifactBuilder

	snapshotPath string
	stagingPath  string
}

// NewPostgresStrategy creates the PostgreSQL engine strategy.
func NewPostgresStrategy(cfg *config.Config, log logger.Logger, runner Runner, fs afero.Fs) *PostgresStrategy {
	return &PostgresStrategy{
		cfg:          cfg,
		log:          log,
		runner:       runner,
		fs:           fs,
		builder:      NewArtifactBuilder(fs),
		snapshotPath: DefaultSnapshotPath(),
		stagingPath:  DefaultStagingPath(),
	}
}

func (s *PostgresStrategy) connArgs() []string {
	return []string{
		"--host", s.cfg.Host,
		"--port", strconv.Itoa(s.cfg.Port),
		"--username", s.cfg.Username,
	}
}

func (s *PostgresStrategy) credentials() []string {
	return []string{"PGPASSWORD=" + s.cfg.Password}
}

// BackupTo dumps the configured database to path in custom format.
func (s *PostgresStrategy) BackupTo(ctx context.Context, path string) (*Artifact, error) {
	args := append(s.connArgs(),
		"--format", "custom",
		"--file", path,
		s.cfg.Database,
	)

	if _, err := s.runner.Run(ctx, "pg_dump", args, s.credentials()); err != nil {
		// Never leave a partial dump behind
		_ = s.fs.Remove(path)
		return nil, err
	}

	artifact, err := s.builder.Describe(path)
	if err != nil {
		return nil, err
	}
	if artifact.SizeBytes == 0 {
		_ = s.fs.Remove(path)
		return nil, gverrors.NewProcessExecution("pg_dump produced an empty dump", "", nil)
	}

	s.log.Info("PostgreSQL backup created",
		"database", s.cfg.Database, "path", path,
		"size", humanize.Bytes(uint64(artifact.SizeBytes)))
	return artifact, nil
}

// RestoreFrom applies an uploaded dump. A pre-restore snapshot is taken
// first; on apply failure the snapshot is restored. The staging file is
// always left on disk if rollback fails, so an operator can recover it.
func (s *PostgresStrategy) RestoreFrom(ctx context.Context, data io.Reader) error {
	snapshotTaken := true
	if _, err := s.BackupTo(ctx, s.snapshotPath); err != nil {
		if !s.databaseMissing(err) {
			// Live data is untouched at this point
			return gverrors.NewRestore("pre-restore snapshot failed", err)
		}
		// Fresh install: nothing to snapshot, rollback will be a no-op
		s.log.Warn("No existing database to snapshot, continuing without rollback protection",
			"database", s.cfg.Database)
		snapshotTaken = false
	}

	if err := stageUpload(s.fs, data, s.stagingPath); err != nil {
		return gverrors.NewRestore("cannot stage uploaded dump", err)
	}

	applyErr := s.apply(ctx, s.stagingPath)
	if applyErr == nil {
		_ = s.fs.Remove(s.stagingPath)
		s.log.Info("PostgreSQL restore completed", "database", s.cfg.Database)
		return nil
	}

	if !snapshotTaken {
		return gverrors.NewRestore("restore failed on a fresh install, nothing to roll back", applyErr)
	}

	s.log.Warn("Restore failed, rolling back to pre-restore snapshot",
		"database", s.cfg.Database, "error", applyErr)
	if rollbackErr := s.apply(ctx, s.snapshotPath); rollbackErr != nil {
		// Keep the staging file as evidence for manual recovery
		combined := multierror.Append(applyErr, rollbackErr)
		s.log.Error("Rollback failed, database may be inconsistent",
			"database", s.cfg.Database,
			"staging_file", s.stagingPath,
			"snapshot_file", s.snapshotPath,
			"error", combined)
		return gverrors.NewInternal("restore failed and rollback failed, manual intervention required", combined)
	}

	s.log.Info("Rollback to pre-restore snapshot succeeded", "database", s.cfg.Database)
	return gverrors.NewRestore("restore failed, previous state was recovered", applyErr)
}

// apply drops and recreates the target database, then restores the dump
// at path into it.
func (s *PostgresStrategy) apply(ctx context.Context, path string) error {
	if err := s.recreateDatabase(ctx); err != nil {
		return err
	}

	args := append(s.connArgs(),
		"--dbname", s.cfg.Database,
		"--format", "custom",
		path,
	)
	_, err := s.runner.Run(ctx, "pg_restore", args, s.credentials())
	return err
}

func (s *PostgresStrategy) recreateDatabase(ctx context.Context) error {
	quoted := database.QuoteIdentifier(s.cfg.Database)
	statements := []string{
		"DROP DATABASE IF EXISTS " + quoted,
		"CREATE DATABASE " + quoted,
	}

	for _, stmt := range statements {
		// Run against the maintenance database; the target may not exist
		args := append(s.connArgs(), "--dbname", "postgres", "--command", stmt)
		if _, err := s.runner.Run(ctx, "psql", args, s.credentials()); err != nil {
			return err
		}
	}
	return nil
}

// databaseMissing recognizes a pg_dump failure caused by the target
// database not existing yet (fresh install).
func (s *PostgresStrategy) databaseMissing(err error) bool {
	var e *gverrors.Error
	if !stderrors.As(err, &e) {
		return false
	}
	return strings.Contains(e.Details, "does not exist")
}
