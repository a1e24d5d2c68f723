package repositories

import (
	"fmt"

	"robot-manager/repositories/base"

	"gorm.io/gorm"
)

// --- Generic Repository Helper Functions ---

// FindByField finds a single record of type T by a specific field.
func FindByField[T any](db *gorm.DB, table, fieldName string, value interface{}) (*T, error) {
	var result T
	err := db.Where(fmt.Sprintf("%s = ?", fieldName), value).First(&result).Error
	if err != nil {
		return nil, base.HandleDBError("get", table, fmt.Sprintf("%s '%v'", fieldName, value), err)
	}
	return &result, nil
}

// ExistsByField checks if a record of type T exists by a specific field.
func ExistsByField[T any](db *gorm.DB, table, fieldName string, value interface{}) (bool, error) {
	var count int64
	err := db.Model(new(T)).Where(fmt.Sprintf("%s = ?", fieldName), value).Count(&count).Error
	if err != nil {
		return false, base.WrapDBError("count", table, err)
	}
	return count > 0, nil
}

// FindInRobot lists the rows of a child table that belong to robotID and
// whose id is in ids. Ids owned by other robots are silently dropped.
func FindInRobot[T any](db *gorm.DB, table string, robotID uint, ids []uint) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []T
	err := db.Scopes(base.ForRobot(robotID)).Where("id IN ?", ids).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, base.WrapDBError("list", table, err)
	}
	return rows, nil
}

// sortedChildren orders a preloaded child collection for display.
func sortedChildren(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC").Order("id ASC")
}
