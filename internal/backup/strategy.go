package backup

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Ben2303/gamevault-backend/internal/config"
	gverrors "github.com/Ben2303/gamevault-backend/internal/errors"
	"github.com/Ben2303/gamevault-backend/internal/logger"
	"github.com/klauspost/pgzip"
	"github.com/spf13/afero"
)

// RestorePackage carries an uploaded database dump and the password the
// caller declared for it. It is transient input, discarded after use.
type RestorePackage struct {
	Data     io.Reader
	Password string
}

// Strategy is an engine-specific implementation of backup and restore.
// A strategy is selected once at construction from the configured
// database system; implementations hold no shared mutable state.
type Strategy interface {
	// BackupTo produces a complete, restorable dump at path. It fails
	// loudly rather than leaving a partial file behind.
	BackupTo(ctx context.Context, path string) (*Artifact, error)

	// RestoreFrom replaces the live database with the uploaded dump,
	// snapshotting beforehand and rolling back on failure.
	RestoreFrom(ctx context.Context, data io.Reader) error
}

// NewStrategy selects the engine strategy for the configured system.
func NewStrategy(cfg *config.Config, log logger.Logger, runner Runner, fs afero.Fs) (Strategy, error) {
	switch cfg.DatabaseSystem {
	case config.SystemPostgres:
		return NewPostgresStrategy(cfg, log, runner, fs), nil
	case config.SystemSQLite:
		return NewSQLiteStrategy(cfg, log, fs), nil
	default:
		return nil, gverrors.NewConfiguration("unknown database system").
			WithDetails(fmt.Sprintf("DB_SYSTEM=%s", cfg.DatabaseSystem))
	}
}

// UnsupportedStrategy returns a Strategy that fails every operation
// with err. It lets the server keep running with a misconfigured
// DB_SYSTEM and report the configuration error per-operation.
func UnsupportedStrategy(err error) Strategy {
	return unsupportedStrategy{err: err}
}

type unsupportedStrategy struct{ err error }

func (s unsupportedStrategy) BackupTo(context.Context, string) (*Artifact, error) {
	return nil, s.err
}

func (s unsupportedStrategy) RestoreFrom(context.Context, io.Reader) error {
	return s.err
}

// Fixed single-slot temporary paths. Each restore attempt overwrites
// them; there is no versioning and no explicit garbage collection.

// DefaultSnapshotPath is where the automatic pre-restore snapshot lives.
func DefaultSnapshotPath() string {
	return filepath.Join(os.TempDir(), "gamevault_pre_restore_backup.db")
}

// DefaultStagingPath is where uploaded restore data is persisted before
// the live store is touched.
func DefaultStagingPath() string {
	return filepath.Join(os.TempDir(), "gamevault_restore_upload.db")
}

// stageUpload persists uploaded dump bytes to path before the live
// database is modified. Gzip-compressed uploads are detected by magic
// bytes and decompressed transparently.
func stageUpload(fs afero.Fs, data io.Reader, path string) error {
	reader := bufio.NewReader(data)

	magic, err := reader.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, gzErr := pgzip.NewReader(reader)
		if gzErr != nil {
			return fmt.Errorf("uploaded file looks gzip-compressed but cannot be read: %w", gzErr)
		}
		defer gz.Close()
		return writeStream(fs, gz, path)
	}

	return writeStream(fs, reader, path)
}

func writeStream(fs afero.Fs, data io.Reader, path string) error {
	file, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("cannot create staging file: %w", err)
	}

	if _, err := io.Copy(file, data); err != nil {
		file.Close()
		return fmt.Errorf("cannot write staging file: %w", err)
	}
	return file.Close()
}

// copyFile copies src over dst, creating or truncating dst.
func copyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", src, err)
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("cannot copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
