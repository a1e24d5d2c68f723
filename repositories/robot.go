package repositories

import (
	"fmt"
	"strings"

	"robot-manager/models"
	"robot-manager/repositories/base"
	"robot-manager/repositories/interfaces"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const robotsTable = "robots"

// RobotRepository implements RobotRepositoryInterface
type RobotRepository struct {
	crud *base.BaseCRUDRepository[models.Robot]
}

// NewRobotRepository creates a new instance of RobotRepository
func NewRobotRepository() interfaces.RobotRepositoryInterface {
	return &RobotRepository{
		crud: base.NewBaseCRUDRepository[models.Robot](robotsTable),
	}
}

// Create inserts the robot row without touching its associations
func (rr *RobotRepository) Create(tx *gorm.DB, robot *models.Robot) error {
	if err := tx.Omit(clause.Associations).Create(robot).Error; err != nil {
		return base.WrapDBError("create", robotsTable, err)
	}
	return nil
}

// FindAccessible resolves a robot through the access policy. A robot owned
// by someone else and a robot that does not exist produce the same error.
func (rr *RobotRepository) FindAccessible(tx *gorm.DB, robotID uint, caller models.Caller) (*models.Robot, error) {
	var robot models.Robot
	err := tx.Scopes(visibleTo(caller)).Where("id = ?", robotID).First(&robot).Error
	if err != nil {
		return nil, base.HandleDBError("get", robotsTable, fmt.Sprintf("ID %d", robotID), err)
	}
	return &robot, nil
}

// LoadAggregate retrieves a robot with its children ordered for display
func (rr *RobotRepository) LoadAggregate(tx *gorm.DB, robotID uint, withVersions bool) (*models.Robot, error) {
	query := withChildren(tx)
	if withVersions {
		query = query.Preload("Versions", func(db *gorm.DB) *gorm.DB {
			return db.Order("version DESC")
		})
	}

	var robot models.Robot
	if err := query.Where("id = ?", robotID).First(&robot).Error; err != nil {
		return nil, base.HandleDBError("load", robotsTable, fmt.Sprintf("ID %d", robotID), err)
	}
	return &robot, nil
}

// Update writes the given columns of the robot row
func (rr *RobotRepository) Update(tx *gorm.DB, robotID uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return rr.crud.UpdateWithTransaction(tx, robotID, fields)
}

// IncrementVersion bumps the counter in SQL and reads back the new value
func (rr *RobotRepository) IncrementVersion(tx *gorm.DB, robotID uint) (int, error) {
	result := tx.Model(&models.Robot{}).Where("id = ?", robotID).
		UpdateColumn("version", gorm.Expr("version + ?", 1))
	if result.Error != nil {
		return 0, base.WrapDBError("increment version", robotsTable, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, base.NewEntityNotFoundError(robotsTable, fmt.Sprintf("ID %d", robotID))
	}

	var versions []int
	if err := tx.Model(&models.Robot{}).Where("id = ?", robotID).Pluck("version", &versions).Error; err != nil {
		return 0, base.WrapDBError("read version", robotsTable, err)
	}
	if len(versions) == 0 {
		return 0, base.NewEntityNotFoundError(robotsTable, fmt.Sprintf("ID %d", robotID))
	}
	return versions[0], nil
}

// SoftDelete sets deleted_at on the robot row
func (rr *RobotRepository) SoftDelete(tx *gorm.DB, robotID uint) error {
	return rr.crud.DeleteWithTransaction(tx, robotID)
}

// List retrieves one page of robots, newest first
func (rr *RobotRepository) List(tx *gorm.DB, caller models.Caller, query models.ListRobotsQuery) ([]models.Robot, int64, error) {
	filter := robotFilter(caller, query)

	var total int64
	if err := tx.Model(&models.Robot{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, base.WrapDBError("count", robotsTable, err)
	}

	robots := []models.Robot{}
	if total == 0 {
		return robots, 0, nil
	}

	err := withChildren(tx).Scopes(filter).
		Order("created_at DESC").Order("id DESC").
		Offset((query.Page - 1) * query.PerPage).
		Limit(query.PerPage).
		Find(&robots).Error
	if err != nil {
		return nil, 0, base.WrapDBError("list", robotsTable, err)
	}
	return robots, total, nil
}

// --- query scopes ---

func visibleTo(caller models.Caller) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if caller.IsSuperAdmin {
			return db
		}
		return db.Where("user_id = ?", caller.UserID)
	}
}

func robotFilter(caller models.Caller, query models.ListRobotsQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(visibleTo(caller))
		if query.Language != nil {
			db = db.Where("language = ?", *query.Language)
		}
		if query.IsActive != nil {
			db = db.Where("is_active = ?", *query.IsActive)
		}
		if query.Search != nil && strings.TrimSpace(*query.Search) != "" {
			pattern := "%" + strings.ToLower(strings.TrimSpace(*query.Search)) + "%"
			db = db.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
		}
		return db
	}
}

func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Parameters", sortedChildren).
		Preload("Images", sortedChildren).
		Preload("Files", sortedChildren)
}
