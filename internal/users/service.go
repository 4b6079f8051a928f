package users

import (
	"context"
	stderrors "errors"
	"time"

	gverrors "github.com/Ben2303/gamevault-backend/internal/errors"
	"github.com/Ben2303/gamevault-backend/internal/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrUsernameTaken is returned when registering an already-used name.
var ErrUsernameTaken = stderrors.New("username already taken")

// Store is the persistence contract the service needs.
type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, u *User) error
	SoftDelete(ctx context.Context, id string) error
	Recover(ctx context.Context, id string) error
}

// Service implements account management on top of a Store.
type Service struct {
	store Store
	log   logger.Logger
}

// NewService creates a user service.
func NewService(store Store, log logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// RegisterInput is the wire shape for account creation.
type RegisterInput struct {
	Username  string `json:"username" binding:"required,min=3,max=32"`
	Password  string `json:"password" binding:"required,min=8"`
	Email     string `json:"email" binding:"omitempty,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates a new account. The very first account becomes an
// activated administrator; later accounts wait for activation.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if _, err := s.store.GetByUsername(ctx, in.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !gverrors.IsKind(err, gverrors.KindNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: string(hash),
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if count == 0 {
		u.Role = RoleAdmin
		u.Activated = true
	}

	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info("User registered", "username", u.Username, "role", string(u.Role))
	return u, nil
}

// Authenticate verifies credentials. Unknown usernames and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.store.GetByUsername(ctx, username)
	if gverrors.IsKind(err, gverrors.KindNotFound) {
		// Burn comparable time so missing users don't answer faster
		_ = bcrypt.CompareHashAndPassword(
			[]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"),
			[]byte(password))
		return nil, gverrors.NewAuthorization("invalid username or password")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, gverrors.NewAuthorization("invalid username or password")
	}
	if !u.Activated {
		return nil, gverrors.NewAuthorization("account is not activated")
	}
	return u, nil
}

// Get returns the account with the given id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.store.GetByID(ctx, id)
}

// List returns all active accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.List(ctx)
}

// Activate enables a pending account.
func (s *Service) Activate(ctx context.Context, id string) (*User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Activated = true
	if err := s.store.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete soft-deletes an account.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.SoftDelete(ctx, id)
}

// Recover restores a soft-deleted account.
func (s *Service) Recover(ctx context.Context, id string) error {
	return s.store.Recover(ctx, id)
}
