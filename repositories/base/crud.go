package base

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// ===================================================================
// COMMON CRUD PATTERNS
// ===================================================================

// BaseCRUDRepository provides the table-level operations shared by the
// robot child repositories. Every method takes the *gorm.DB to run on, which
// is either the root handle or an open transaction.
type BaseCRUDRepository[T any] struct {
	tableName string
}

// NewBaseCRUDRepository creates a new base CRUD repository
func NewBaseCRUDRepository[T any](tableName string) *BaseCRUDRepository[T] {
	return &BaseCRUDRepository[T]{tableName: tableName}
}

// GetByID retrieves entity by ID with standard error handling
func (r *BaseCRUDRepository[T]) GetByID(tx *gorm.DB, id uint) (*T, error) {
	var entity T
	err := tx.Where("id = ?", id).First(&entity).Error
	if err != nil {
		return nil, HandleDBError("get", r.tableName, fmt.Sprintf("ID %d", id), err)
	}
	return &entity, nil
}

// ===================================================================
// TRANSACTION HELPERS
// ===================================================================

// CreateWithTransaction creates entity within provided transaction
func (r *BaseCRUDRepository[T]) CreateWithTransaction(tx *gorm.DB, entity *T) error {
	if err := tx.Create(entity).Error; err != nil {
		return WrapDBError("create", r.tableName, err)
	}
	return nil
}

// UpdateWithTransaction updates the listed columns of one row within the
// provided transaction. scope narrows the match (e.g. to one robot).
func (r *BaseCRUDRepository[T]) UpdateWithTransaction(tx *gorm.DB, id uint, updates map[string]interface{}, scope ...Scope) error {
	query := tx.Model(new(T)).Where("id = ?", id)
	for _, s := range scope {
		query = s(query)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return WrapDBError("update", r.tableName, result.Error)
	}
	return nil
}

// DeleteWithTransaction deletes entity within provided transaction
func (r *BaseCRUDRepository[T]) DeleteWithTransaction(tx *gorm.DB, id uint) error {
	result := tx.Delete(new(T), id)
	if result.Error != nil {
		return WrapDBError("delete", r.tableName, result.Error)
	}

	if result.RowsAffected == 0 {
		return NewEntityNotFoundError(r.tableName, fmt.Sprintf("ID %d", id))
	}

	return nil
}

// ===================================================================
// SEARCH AND FILTER HELPERS
// ===================================================================

// ListByField lists entities matching field = value in the given order.
func (r *BaseCRUDRepository[T]) ListByField(tx *gorm.DB, field string, value interface{}, orderBy string) ([]T, error) {
	var entities []T
	query := tx.Model(new(T)).Where(fmt.Sprintf("%s = ?", field), value)
	if orderBy != "" {
		query = query.Order(orderBy)
	}

	if err := query.Find(&entities).Error; err != nil {
		return nil, WrapDBError("list", r.tableName, err)
	}
	return entities, nil
}

// MaxByField returns MAX(column) over rows where field = value, or
// fallback when no row matches.
func (r *BaseCRUDRepository[T]) MaxByField(tx *gorm.DB, column, field string, value interface{}, fallback int) (int, error) {
	var max sql.NullInt64
	err := tx.Model(new(T)).
		Where(fmt.Sprintf("%s = ?", field), value).
		Select(fmt.Sprintf("MAX(%s)", column)).
		Row().Scan(&max)
	if err != nil {
		return 0, WrapDBError("max", r.tableName, err)
	}
	if !max.Valid {
		return fallback, nil
	}
	return int(max.Int64), nil
}

// ===================================================================
// SCOPES
// ===================================================================

// Scope narrows a query; used to pin child-row operations to one parent.
type Scope func(*gorm.DB) *gorm.DB

// ForRobot scopes a child-table query to one robot.
func ForRobot(robotID uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("robot_id = ?", robotID)
	}
}
