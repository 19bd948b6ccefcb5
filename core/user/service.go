package user

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound             = errors.New("user not found")
	ErrUsernameExists       = errors.New("a user with this username already exists")
	ErrAuthenticationFailed = errors.New("invalid credentials")
)

type (
	Repository interface {
		// CreateUserIfAbsent inserts usr unless a user with the same username
		// exists; the existence check and the insert happen in one transaction.
		// It reports whether a row was inserted.
		CreateUserIfAbsent(ctx context.Context, usr User) (bool, error)
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		SetUserPassword(ctx context.Context, usr User) error
		SetLastLogin(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate verifies username/password. Unknown usernames and wrong
// passwords fail with the same ErrAuthenticationFailed so callers cannot
// tell the two apart.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByUsername(ctx, uname)
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrAuthenticationFailed
		}
		return User{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrAuthenticationFailed
	}
	return svc.repo.SetLastLogin(ctx, usr)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, uname)
}

// EnsureDefaultAdmin bootstraps the configured admin credential once.
// Safe to call on every startup and from concurrent workers.
func (svc *Service) EnsureDefaultAdmin(ctx context.Context, username, initialPwd string) error {
	now := time.Now().UTC()
	usr := User{
		Username:  username,
		Role:      RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(initialPwd); err != nil {
		return err
	}
	_, err := svc.repo.CreateUserIfAbsent(ctx, usr)
	return err
}

// SetPassword replaces the user's password hash with a fresh derivation of pwd.
func (svc *Service) SetPassword(ctx context.Context, uname, pwd string) error {
	usr, err := svc.repo.GetUserByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.SetUserPassword(ctx, usr)
}
