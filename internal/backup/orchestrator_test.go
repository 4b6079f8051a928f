package backup

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Ben2303/gamevault-backend/internal/config"
	gverrors "github.com/Ben2303/gamevault-backend/internal/errors"
	"github.com/Ben2303/gamevault-backend/internal/logger"
	"github.com/spf13/afero"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// mockController implements ConnectionController with call tracking.
type mockController struct {
	connectErr    error
	disconnectErr error
	migrateErr    error

	connectCalls    int
	disconnectCalls int
	migrateCalls    int
}

func (m *mockController) Connect(_ context.Context) error {
	m.connectCalls++
	return m.connectErr
}

func (m *mockController) Disconnect() error {
	m.disconnectCalls++
	return m.disconnectErr
}

func (m *mockController) RunMigrations(_ context.Context) error {
	m.migrateCalls++
	return m.migrateErr
}

// mockStrategy implements Strategy; on successful backup it writes
// content to the requested path so the artifact builder has a real file.
type mockStrategy struct {
	fs         afero.Fs
	content    string
	backupErr  error
	restoreErr error

	backupCalls  int
	restoreCalls int
}

func (m *mockStrategy) BackupTo(_ context.Context, path string) (*Artifact, error) {
	m.backupCalls++
	if m.backupErr != nil {
		return nil, m.backupErr
	}
	if err := afero.WriteFile(m.fs, path, []byte(m.content), 0o600); err != nil {
		return nil, err
	}
	return NewArtifactBuilder(m.fs).Describe(path)
}

func (m *mockStrategy) RestoreFrom(_ context.Context, data io.Reader) error {
	m.restoreCalls++
	_, _ = io.Copy(io.Discard, data)
	return m.restoreErr
}

func testConfig() *config.Config {
	return &config.Config{
		DatabaseSystem: config.SystemPostgres,
		Password:       "correct-password",
		Database:       "gamevault",
	}
}

func newTestOrchestrator(cfg *config.Config, db *mockController, strategy Strategy, fs afero.Fs) *Orchestrator {
	o := NewOrchestrator(cfg, logger.NewSilent(), db, strategy, fs)
	o.now = func() time.Time { return time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC) }
	return o
}

// ---------------------------------------------------------------------------
// Authorization and configuration checks
// ---------------------------------------------------------------------------

func TestBackupRejectsWrongPassword(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := &mockController{}
	strategy := &mockStrategy{fs: fs, content: "dump"}
	o := newTestOrchestrator(testConfig(), db, strategy, fs)

	_, err := o.Backup(context.Background(), "wrong")
	if !gverrors.IsKind(err, gverrors.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}

	// A rejected call must have no side effects
	if db.disconnectCalls != 0 || db.connectCalls != 0 {
		t.Errorf("connection touched on auth failure: disconnects=%d connects=%d",
			db.disconnectCalls, db.connectCalls)
	}
	if strategy.backupCalls != 0 {
		t.Error("strategy invoked on auth failure")
	}
}

func TestRestoreRejectsWrongPassword(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := &mockController{}
	strategy := &mockStrategy{fs: fs}
	o := newTestOrchestrator(testConfig(), db, strategy, fs)

	err := o.Restore(context.Background(), RestorePackage{
		Data:     strings.NewReader("upload"),
		Password: "wrong",
	})
	if !gverrors.IsKind(err, gverrors.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if db.disconnectCalls != 0 || strategy.restoreCalls != 0 {
		t.Error("side effects on auth failure")
	}
}

func TestInMemoryDatabaseAlwaysRejected(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := testConfig()
	cfg.InMemoryDB = true
	o := newTestOrchestrator(cfg, &mockController{}, &mockStrategy{fs: fs}, fs)

	if _, err := o.Backup(context.Background(), cfg.Password); !gverrors.IsKind(err, gverrors.KindConfiguration) {
		t.Errorf("backup: expected configuration error, got %v", err)
	}
	err := o.Restore(context.Background(), RestorePackage{Data: strings.NewReader("x"), Password: cfg.Password})
	if !gverrors.IsKind(err, gverrors.KindConfiguration) {
		t.Errorf("restore: expected configuration error, got %v", err)
	}
}

func TestUnknownEngineFailsAfterReconnect(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := &mockController{}
	cfgErr := gverrors.NewConfiguration("unknown database system")
	o := newTestOrchestrator(testConfig(), db, UnsupportedStrategy(cfgErr), fs)

	_, err := o.Backup(context.Background(), "correct-password")
	if !gverrors.IsKind(err, gverrors.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if db.disconnectCalls != 1 || db.connectCalls != 1 {
		t.Errorf("expected disconnect and reconnect around dispatch, got disconnects=%d connects=%d",
			db.disconnectCalls, db.connectCalls)
	}
}

// ---------------------------------------------------------------------------
// Backup flow
// ---------------------------------------------------------------------------

func TestBackupSuccess(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := &mockController{}
	strategy := &mockStrategy{fs: fs, content: "this is a database dump"}
	o := newTestOrchestrator(testConfig(), db, strategy, fs)

	download, err := o.Backup(context.Background(), "correct-password")
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	defer download.Close()

	if db.disconnectCalls != 1 || db.connectCalls != 1 {
		t.Errorf("connection lifecycle: disconnects=%d connects=%d, want 1/1",
			db.disconnectCalls, db.connectCalls)
	}

	body, err := io.ReadAll(download.Reader)
	if err != nil {
		t.Fatalf("cannot read download: %v", err)
	}
	if int64(len(body)) != download.Size {
		t.Errorf("stream length %d != declared size %d", len(body), download.Size)
	}
	if string(body) != strategy.content {
		t.Errorf("stream content mismatch")
	}
	if !strings.HasPrefix(download.Filename, "gamevault_database_backup_") {
		t.Errorf("unexpected filename %q", download.Filename)
	}
}

func TestBackupReconnectsOnStrategyFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := &mockController{}
	strategy := &mockStrategy{fs: fs, backupErr: gverrors.NewProcessExecution("pg_dump exited with code 1", "boom", nil)}
	o := newTestOrchestrator(testConfig(), db, strategy, fs)

	_, err := o.Backup(context.Background(), "correct-password")
	if !gverrors.IsKind(err, gverrors.KindProcessExecution) {
		t.Fatalf("expected process execution error, got %v", err)
	}
	if db.connectCalls != 1 {
		t.Errorf("reconnect not performed on failure: connects=%d", db.connectCalls)
	}
}

func TestBackupReconnectFailureEscalates(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := &mockController{connectErr: errors.New("connection refused")}
	strategy := &mockStrategy{fs: fs, backupErr: errors.New("dump failed")}
	o := newTestOrchestrator(testConfig(), db, strategy, fs)

	_, err := o.Backup(context.Background(), "correct-password")
	if !gverrors.Fatal(err) {
		t.Fatalf("reconnect failure must be fatal, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Restore flow
// ---------------------------------------------------------------------------

func TestRestoreSuccessRunsMigrations(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := &mockController{}
	strategy := &mockStrategy{fs: fs}
	o := newTestOrchestrator(testConfig(), db, strategy, fs)

	err := o.Restore(context.Background(), RestorePackage{
		Data:     strings.NewReader("uploaded dump"),
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if db.disconnectCalls != 1 || db.connectCalls != 1 {
		t.Errorf("connection lifecycle: disconnects=%d connects=%d, want 1/1",
			db.disconnectCalls, db.connectCalls)
	}
	if db.migrateCalls != 1 {
		t.Errorf("migrations not run after restore: calls=%d", db.migrateCalls)
	}
}

func TestRecoveredRestoreStillMigratesAndReports(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := &mockController{}
	strategy := &mockStrategy{
		fs:         fs,
		restoreErr: gverrors.NewRestore("restore failed, previous state was recovered", errors.New("bad dump")),
	}
	o := newTestOrchestrator(testConfig(), db, strategy, fs)

	err := o.Restore(context.Background(), RestorePackage{
		Data:     strings.NewReader("bad dump"),
		Password: "correct-password",
	})
	if !gverrors.IsKind(err, gverrors.KindRestore) {
		t.Fatalf("expected non-fatal restore error, got %v", err)
	}
	if gverrors.Fatal(err) {
		t.Error("recovered restore must not be fatal")
	}
	if db.connectCalls != 1 {
		t.Errorf("reconnect not performed: connects=%d", db.connectCalls)
	}
	if db.migrateCalls != 1 {
		t.Errorf("rolled-back database should still be migrated: calls=%d", db.migrateCalls)
	}
}

func TestFatalRestoreSkipsMigrations(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := &mockController{}
	strategy := &mockStrategy{
		fs:         fs,
		restoreErr: gverrors.NewInternal("restore failed and rollback failed, manual intervention required", errors.New("boom")),
	}
	o := newTestOrchestrator(testConfig(), db, strategy, fs)

	err := o.Restore(context.Background(), RestorePackage{
		Data:     strings.NewReader("bad dump"),
		Password: "correct-password",
	})
	if !gverrors.Fatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if db.connectCalls != 1 {
		t.Errorf("reconnect must happen even on fatal failure: connects=%d", db.connectCalls)
	}
	if db.migrateCalls != 0 {
		t.Errorf("migrations must not run against an inconsistent database: calls=%d", db.migrateCalls)
	}
}

func TestRestoreReconnectFailureEscalates(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := &mockController{connectErr: errors.New("connection refused")}
	strategy := &mockStrategy{fs: fs}
	o := newTestOrchestrator(testConfig(), db, strategy, fs)

	err := o.Restore(context.Background(), RestorePackage{
		Data:     strings.NewReader("dump"),
		Password: "correct-password",
	})
	if !gverrors.Fatal(err) {
		t.Fatalf("reconnect failure must be fatal, got %v", err)
	}
}
