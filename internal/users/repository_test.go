package users

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	gverrors "github.com/Ben2303/gamevault-backend/internal/errors"
	"github.com/Ben2303/gamevault-backend/internal/logger"
)

// fakeConn satisfies Conn with an injected sqlmock handle.
type fakeConn struct {
	handle   *sql.DB
	postgres bool
}

func (f *fakeConn) DB() *sql.DB { return f.handle }

func (f *fakeConn) Rebind(query string) string {
	if !f.postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(&fakeConn{handle: db}, logger.NewSilent()), mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows(strings.Split(userColumns, ", "))
}

func TestRepositoryGetByUsername(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\? AND deleted_at IS NULL").
		WithArgs("alice").
		WillReturnRows(userRows().AddRow(
			"id-1", "alice", "hash", "a@example.com", "Alice", "Liddell",
			"ADMIN", true, now, now, nil))

	u, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername failed: %v", err)
	}
	if u.Username != "alice" || u.Role != RoleAdmin || !u.Activated {
		t.Errorf("unexpected user: %+v", u)
	}
	if u.Deleted() {
		t.Error("user should not be marked deleted")
	}
}

func TestRepositoryGetByUsernameNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WithArgs("ghost").
		WillReturnRows(userRows())

	_, err := repo.GetByUsername(context.Background(), "ghost")
	if !gverrors.IsKind(err, gverrors.KindNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now().UTC()

	u := &User{
		ID: "id-1", Username: "alice", PasswordHash: "hash",
		Role: RoleUser, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec("INSERT INTO users").
		WithArgs("id-1", "alice", "hash", "", "", "", RoleUser, false, now, now, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRepositorySoftDelete(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("UPDATE users SET deleted_at = \\?").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SoftDelete(context.Background(), "id-1"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	// Second delete hits no rows
	mock.ExpectExec("UPDATE users SET deleted_at = \\?").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "id-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SoftDelete(context.Background(), "id-1"); !gverrors.IsKind(err, gverrors.KindNotFound) {
		t.Fatalf("expected not-found error on double delete, got %v", err)
	}
}

func TestRepositoryListExcludesDeleted(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE deleted_at IS NULL").
		WillReturnRows(userRows().
			AddRow("id-1", "alice", "h", "", "", "", "ADMIN", true, now, now, nil).
			AddRow("id-2", "bob", "h", "", "", "", "USER", false, now, now, nil))

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("len(list) = %d, want 2", len(list))
	}
}

func TestRepositoryRequiresConnection(t *testing.T) {
	repo := NewRepository(&fakeConn{handle: nil}, logger.NewSilent())

	if _, err := repo.List(context.Background()); err == nil {
		t.Error("expected error when database is disconnected")
	}
}
