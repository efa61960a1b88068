package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Tx is the unit of work passed from services to repositories. *sqlx.Tx
// satisfies it; test doubles may supply their own.
type Tx interface {
	Commit() error
	Rollback() error
}

// ErrForeignTx is returned when a repository receives a Tx it cannot run SQL on.
var ErrForeignTx = errors.New("transaction was not opened by this database")

// TxManager opens READ COMMITTED transactions. Seat rows are protected by
// SELECT ... FOR UPDATE, so the weaker isolation level is enough and avoids
// gap locks on the seat index.
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) Begin(ctx context.Context) (Tx, error) {
	tx, err := m.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Unwrap returns the *sqlx.Tx behind tx.
func Unwrap(tx Tx) (*sqlx.Tx, error) {
	t, ok := tx.(*sqlx.Tx)
	if !ok || t == nil {
		return nil, ErrForeignTx
	}
	return t, nil
}
