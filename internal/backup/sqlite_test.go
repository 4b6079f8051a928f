package backup

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/Ben2303/gamevault-backend/internal/config"
	gverrors "github.com/Ben2303/gamevault-backend/internal/errors"
	"github.com/Ben2303/gamevault-backend/internal/logger"
	"github.com/klauspost/pgzip"
	"github.com/spf13/afero"
)

// flakyFs fails OpenFile on a specific path a configured number of
// times, then behaves normally. Used to inject apply/rollback failures.
type flakyFs struct {
	afero.Fs
	failPath string
	failures int
}

func (f *flakyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if name == f.failPath && f.failures > 0 {
		f.failures--
		return nil, fmt.Errorf("injected write failure on %s", name)
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func newSQLiteFixture(t *testing.T, fs afero.Fs, liveContent string) (*SQLiteStrategy, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		DatabaseSystem: config.SystemSQLite,
		SQLiteDir:      "/data/db",
		Database:       "gamevault",
	}
	if liveContent != "" {
		if err := afero.WriteFile(fs, cfg.SQLitePath(), []byte(liveContent), 0o600); err != nil {
			t.Fatalf("fixture: %v", err)
		}
	}
	s := NewSQLiteStrategy(cfg, logger.NewSilent(), fs)
	s.snapshotPath = "/tmp/snapshot.db"
	s.stagingPath = "/tmp/staging.db"
	return s, cfg
}

func TestSQLiteBackupTo(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, _ := newSQLiteFixture(t, fs, "live database bytes")

	artifact, err := s.BackupTo(context.Background(), "/tmp/out.db")
	if err != nil {
		t.Fatalf("BackupTo failed: %v", err)
	}

	data, err := afero.ReadFile(fs, "/tmp/out.db")
	if err != nil {
		t.Fatalf("backup file missing: %v", err)
	}
	if string(data) != "live database bytes" {
		t.Errorf("backup content mismatch: %q", data)
	}
	if artifact.SizeBytes != int64(len(data)) {
		t.Errorf("artifact size %d != file size %d", artifact.SizeBytes, len(data))
	}
	if artifact.SuggestedFilename != "out.db" {
		t.Errorf("suggested filename = %q", artifact.SuggestedFilename)
	}
}

func TestSQLiteBackupMissingLiveFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, _ := newSQLiteFixture(t, fs, "")

	_, err := s.BackupTo(context.Background(), "/tmp/out.db")
	if !gverrors.IsKind(err, gverrors.KindNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestSQLiteRestoreSuccess(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, cfg := newSQLiteFixture(t, fs, "old content")

	err := s.RestoreFrom(context.Background(), bytes.NewReader([]byte("new content")))
	if err != nil {
		t.Fatalf("RestoreFrom failed: %v", err)
	}

	live, _ := afero.ReadFile(fs, cfg.SQLitePath())
	if string(live) != "new content" {
		t.Errorf("live file = %q, want new content", live)
	}

	// Snapshot slot holds the pre-restore state
	snap, err := afero.ReadFile(fs, s.snapshotPath)
	if err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	if string(snap) != "old content" {
		t.Errorf("snapshot = %q, want old content", snap)
	}

	// Staging file is cleaned up on success
	if exists, _ := afero.Exists(fs, s.stagingPath); exists {
		t.Error("staging file not removed after successful restore")
	}
}

func TestSQLiteRestoreGzipUpload(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, cfg := newSQLiteFixture(t, fs, "old content")

	var buf bytes.Buffer
	gz := pgzip.NewWriter(&buf)
	if _, err := gz.Write([]byte("compressed upload")); err != nil {
		t.Fatal(err)
	}
	gz.Close()

	if err := s.RestoreFrom(context.Background(), &buf); err != nil {
		t.Fatalf("RestoreFrom failed: %v", err)
	}

	live, _ := afero.ReadFile(fs, cfg.SQLitePath())
	if string(live) != "compressed upload" {
		t.Errorf("gzip upload not decompressed while staging: %q", live)
	}
}

func TestSQLiteRestoreFreshInstall(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, cfg := newSQLiteFixture(t, fs, "")

	err := s.RestoreFrom(context.Background(), bytes.NewReader([]byte("first ever data")))
	if err != nil {
		t.Fatalf("fresh-install restore failed: %v", err)
	}

	live, _ := afero.ReadFile(fs, cfg.SQLitePath())
	if string(live) != "first ever data" {
		t.Errorf("live file = %q", live)
	}
}

func TestSQLiteRestoreRollbackFidelity(t *testing.T) {
	mem := afero.NewMemMapFs()
	s, cfg := newSQLiteFixture(t, mem, "precious data")
	// Fail the apply write to the live file once; the rollback write succeeds
	s.fs = &flakyFs{Fs: mem, failPath: cfg.SQLitePath(), failures: 1}

	err := s.RestoreFrom(context.Background(), bytes.NewReader([]byte("corrupt upload")))
	if !gverrors.IsKind(err, gverrors.KindRestore) {
		t.Fatalf("expected non-fatal restore error, got %v", err)
	}
	if gverrors.Fatal(err) {
		t.Error("recovered restore must not be fatal")
	}

	live, _ := afero.ReadFile(mem, cfg.SQLitePath())
	if string(live) != "precious data" {
		t.Errorf("rollback fidelity violated: live = %q, want precious data", live)
	}
}

func TestSQLiteRestoreRollbackFailureIsFatal(t *testing.T) {
	mem := afero.NewMemMapFs()
	s, cfg := newSQLiteFixture(t, mem, "precious data")
	// Both the apply and the rollback write fail
	s.fs = &flakyFs{Fs: mem, failPath: cfg.SQLitePath(), failures: 2}

	err := s.RestoreFrom(context.Background(), bytes.NewReader([]byte("corrupt upload")))
	if !gverrors.Fatal(err) {
		t.Fatalf("expected fatal error when rollback fails, got %v", err)
	}

	// The staging file must stay on disk for manual recovery
	staged, readErr := afero.ReadFile(mem, s.stagingPath)
	if readErr != nil {
		t.Fatalf("staging file removed after fatal failure: %v", readErr)
	}
	if string(staged) != "corrupt upload" {
		t.Errorf("staging content = %q", staged)
	}
}
