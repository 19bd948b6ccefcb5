// Package inmemdb is a mutex-guarded in-memory stand-in for the Postgres
// repositories, used by tests. It enforces the same uniqueness and
// referential-integrity rules and returns the same domain errors.
package inmemdb

import (
	"sync"

	"github.com/trezcool/matokeo/core/academic"
	"github.com/trezcool/matokeo/core/user"
)

type DB struct {
	mu       sync.RWMutex
	users    []*user.User
	students []*academic.Student
	subjects []*academic.Subject
	results  []*academic.Result
}

func NewDB() *DB {
	return &DB{}
}

// Reset drops all stored records. Tests call it between cases.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = nil
	db.students = nil
	db.subjects = nil
	db.results = nil
}
