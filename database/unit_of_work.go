package database

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"
)

// UnitOfWorkInterface defines the contract for our unit of work.
// It abstracts the transaction handling logic from the business layer.
type UnitOfWorkInterface interface {
	Begin(ctx context.Context) (*gorm.DB, error)
	Commit(tx *gorm.DB) error
	Rollback(tx *gorm.DB)
}

// unitOfWork implements the UnitOfWorkInterface.
type unitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(db *gorm.DB) UnitOfWorkInterface {
	return &unitOfWork{db: db}
}

// Begin starts a new transaction bound to ctx.
func (uow *unitOfWork) Begin(ctx context.Context) (*gorm.DB, error) {
	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// Commit commits the transaction.
func (uow *unitOfWork) Commit(tx *gorm.DB) error {
	return tx.Commit().Error
}

// Rollback rolls back the transaction. Calling it after Commit is harmless.
func (uow *unitOfWork) Rollback(tx *gorm.DB) {
	if tx == nil {
		return
	}
	if err := tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		tx.Logger.Warn(tx.Statement.Context, "rollback failed: %v", err)
	}
}
