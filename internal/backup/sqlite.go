package backup

import (
	"context"
	"fmt"
	"io"

	"github.com/Ben2303/gamevault-backend/internal/config"
	gverrors "github.com/Ben2303/gamevault-backend/internal/errors"
	"github.com/Ben2303/gamevault-backend/internal/logger"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// SQLiteStrategy backs up and restores a SQLite database by copying the
// live database file. No external tools are involved.
type SQLiteStrategy struct {
	cfg     *config.Config
	log     logger.Logger
	fs      afero.Fs
	builder *ArtifactBuilder

	snapshotPath string
	stagingPath  string
}

// NewSQLiteStrategy creates the SQLite engine strategy.
func NewSQLiteStrategy(cfg *config.Config, log logger.Logger, fs afero.Fs) *SQLiteStrategy {
	return &SQLiteStrategy{
		cfg:          cfg,
		log:          log,
		fs:           fs,
		builder:      NewArtifactBuilder(fs),
		snapshotPath: DefaultSnapshotPath(),
		stagingPath:  DefaultStagingPath(),
	}
}

// BackupTo copies the live database file to path.
func (s *SQLiteStrategy) BackupTo(ctx context.Context, path string) (*Artifact, error) {
	live := s.cfg.SQLitePath()

	if exists, err := afero.Exists(s.fs, live); err != nil {
		return nil, fmt.Errorf("cannot check live database file: %w", err)
	} else if !exists {
		return nil, gverrors.NewNotFound(fmt.Sprintf("live database file does not exist: %s", live))
	}

	if err := copyFile(s.fs, live, path); err != nil {
		_ = s.fs.Remove(path)
		return nil, fmt.Errorf("cannot copy live database: %w", err)
	}

	artifact, err := s.builder.Describe(path)
	if err != nil {
		return nil, err
	}

	s.log.Info("SQLite backup created",
		"path", path, "size", humanize.Bytes(uint64(artifact.SizeBytes)))
	return artifact, nil
}

// RestoreFrom overwrites the live database file with the uploaded one.
// An existing live file is snapshotted first and copied back on failure;
// on a fresh install rollback is a no-op.
func (s *SQLiteStrategy) RestoreFrom(ctx context.Context, data io.Reader) error {
	live := s.cfg.SQLitePath()

	snapshotTaken := false
	if exists, err := afero.Exists(s.fs, live); err != nil {
		return gverrors.NewRestore("cannot check live database file", err)
	} else if exists {
		if err := copyFile(s.fs, live, s.snapshotPath); err != nil {
			// Live data is untouched at this point
			return gverrors.NewRestore("pre-restore snapshot failed", err)
		}
		snapshotTaken = true
	} else {
		s.log.Warn("No existing database file to snapshot, continuing without rollback protection",
			"path", live)
	}

	if err := stageUpload(s.fs, data, s.stagingPath); err != nil {
		return gverrors.NewRestore("cannot stage uploaded database file", err)
	}

	applyErr := copyFile(s.fs, s.stagingPath, live)
	if applyErr == nil {
		_ = s.fs.Remove(s.stagingPath)
		s.log.Info("SQLite restore completed", "path", live)
		return nil
	}

	if !snapshotTaken {
		return gverrors.NewRestore("restore failed on a fresh install, nothing to roll back", applyErr)
	}

	s.log.Warn("Restore failed, rolling back to pre-restore snapshot",
		"path", live, "error", applyErr)
	if rollbackErr := copyFile(s.fs, s.snapshotPath, live); rollbackErr != nil {
		// Keep the staging file as evidence for manual recovery
		combined := multierror.Append(applyErr, rollbackErr)
		s.log.Error("Rollback failed, database file may be inconsistent",
			"path", live,
			"staging_file", s.stagingPath,
			"snapshot_file", s.snapshotPath,
			"error", combined)
		return gverrors.NewInternal("restore failed and rollback failed, manual intervention required", combined)
	}

	s.log.Info("Rollback to pre-restore snapshot succeeded", "path", live)
	return gverrors.NewRestore("restore failed, previous state was recovered", applyErr)
}
