package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/matokeo/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	return repo.db.createUser(usr)
}

func (repo *userRepository) CreateUserIfAbsent(_ context.Context, usr user.User) (bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, u := range repo.db.users {
		if u.Username == usr.Username {
			return false, nil
		}
	}
	if _, err := repo.db.createUser(usr); err != nil {
		return false, err
	}
	return true, nil
}

func (repo *userRepository) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, u := range repo.db.users {
		if u.Username == username {
			return *u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) SetUserPassword(_ context.Context, usr user.User) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, u := range repo.db.users {
		if u.ID == usr.ID {
			u.PasswordHash = usr.PasswordHash
			u.UpdatedAt = usr.UpdatedAt
			return nil
		}
	}
	return user.ErrNotFound
}

func (repo *userRepository) SetLastLogin(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, u := range repo.db.users {
		if u.ID == usr.ID {
			u.LastLogin = time.Now().UTC()
			return *u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

// createUser inserts usr; the caller must hold the write lock.
func (db *DB) createUser(usr user.User) (user.User, error) {
	for _, u := range db.users {
		if u.Username == usr.Username {
			return user.User{}, user.ErrUsernameExists
		}
	}
	usr.ID = uuid.New().String()
	db.users = append(db.users, &usr)
	return usr, nil
}
