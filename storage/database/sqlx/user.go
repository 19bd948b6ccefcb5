package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, created_at, updated_at)
		VALUES (:id, :username, :password_hash, :role, :created_at, :updated_at)`,
		usr,
	)
	if err != nil {
		if err = trapConstraintErr(err); err == user.ErrUsernameExists {
			return user.User{}, err
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) CreateUserIfAbsent(ctx context.Context, usr user.User) (bool, error) {
	usr.ID = uuid.New().String()

	// single statement: the existence check and insert race-free in one transaction
	res, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, created_at, updated_at)
		VALUES (:id, :username, :password_hash, :role, :created_at, :updated_at)
		ON CONFLICT ON CONSTRAINT users_username_key DO NOTHING`,
		usr,
	)
	if err != nil {
		return false, errors.Wrap(err, "inserting user if absent")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "inserting user if absent")
	}
	return n > 0, nil
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, `SELECT * FROM users WHERE username = $1`, username)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by username")
	}
	return usr, nil
}

func (repo userRepository) SetUserPassword(ctx context.Context, usr user.User) error {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE users SET password_hash = :password_hash, updated_at = :updated_at WHERE id = :id`,
		usr,
	)
	if err != nil {
		return errors.Wrap(err, "updating user password")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating user password")
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) SetLastLogin(ctx context.Context, usr user.User) (user.User, error) {
	usr.LastLogin = time.Now().UTC()
	res, err := repo.db.NamedExecContext(ctx, `UPDATE users SET last_login = :last_login WHERE id = :id`, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating last login")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating last login")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
