package interfaces

import (
	"robot-manager/models"

	"gorm.io/gorm"
)

// Every method takes the *gorm.DB to run on: the root handle for reads,
// or the transaction opened by the unit of work for writes.

// RobotRepositoryInterface defines the contract for robot aggregate-root access
type RobotRepositoryInterface interface {
	// Create inserts the robot row only; children are written by their own repositories
	Create(tx *gorm.DB, robot *models.Robot) error

	// FindAccessible returns a non-deleted robot the caller may see, or EntityNotFoundError
	FindAccessible(tx *gorm.DB, robotID uint, caller models.Caller) (*models.Robot, error)

	// LoadAggregate returns the robot with parameters, images and files (and versions if asked) preloaded
	LoadAggregate(tx *gorm.DB, robotID uint, withVersions bool) (*models.Robot, error)

	// Update writes the given columns of the robot row
	Update(tx *gorm.DB, robotID uint, fields map[string]interface{}) error

	// IncrementVersion bumps the version counter by one and returns the new value
	IncrementVersion(tx *gorm.DB, robotID uint) (int, error)

	// SoftDelete tombstones the robot row; children are left in place
	SoftDelete(tx *gorm.DB, robotID uint) error

	// List returns one page of robots visible to caller plus the total match count
	List(tx *gorm.DB, caller models.Caller, query models.ListRobotsQuery) ([]models.Robot, int64, error)
}

// ParameterRepositoryInterface defines the contract for robot parameter access
type ParameterRepositoryInterface interface {
	Create(tx *gorm.DB, param *models.RobotParameter) error

	// UpdateForRobot updates a parameter in place, only if it belongs to robotID
	UpdateForRobot(tx *gorm.DB, robotID, paramID uint, fields map[string]interface{}) error

	// DeleteExcept removes every parameter of robotID whose id is not in keepIDs
	DeleteExcept(tx *gorm.DB, robotID uint, keepIDs []uint) (int64, error)

	ListByRobot(tx *gorm.DB, robotID uint) ([]models.RobotParameter, error)
}

// ImageRepositoryInterface defines the contract for robot image access
type ImageRepositoryInterface interface {
	Create(tx *gorm.DB, image *models.RobotImage) error

	// FindForRobot returns the subset of ids that belong to robotID
	FindForRobot(tx *gorm.DB, robotID uint, ids []uint) ([]models.RobotImage, error)

	ListByRobot(tx *gorm.DB, robotID uint) ([]models.RobotImage, error)
	Delete(tx *gorm.DB, imageID uint) error

	// MaxSortOrder returns the highest sort_order for robotID, or -1 when it has no images
	MaxSortOrder(tx *gorm.DB, robotID uint) (int, error)
}

// FileRepositoryInterface defines the contract for robot attachment access
type FileRepositoryInterface interface {
	Create(tx *gorm.DB, file *models.RobotFile) error
	FindForRobot(tx *gorm.DB, robotID uint, ids []uint) ([]models.RobotFile, error)

	// GetForRobot returns one attachment of robotID, or EntityNotFoundError
	GetForRobot(tx *gorm.DB, robotID, fileID uint) (*models.RobotFile, error)

	ListByRobot(tx *gorm.DB, robotID uint) ([]models.RobotFile, error)
	Delete(tx *gorm.DB, fileID uint) error
	MaxSortOrder(tx *gorm.DB, robotID uint) (int, error)
}

// VersionRepositoryInterface defines the contract for robot version history access
type VersionRepositoryInterface interface {
	Create(tx *gorm.DB, version *models.RobotVersion) error

	// ClearCurrent flips every version of robotID to is_current = false
	ClearCurrent(tx *gorm.DB, robotID uint) error

	// ListByRobot returns versions newest first
	ListByRobot(tx *gorm.DB, robotID uint) ([]models.RobotVersion, error)
}
