package repositories

import (
	"robot-manager/models"
	"robot-manager/repositories/base"
	"robot-manager/repositories/interfaces"

	"gorm.io/gorm"
)

const versionsTable = "robot_versions"

// VersionRepository implements VersionRepositoryInterface
type VersionRepository struct {
	crud *base.BaseCRUDRepository[models.RobotVersion]
}

// NewVersionRepository creates a new instance of VersionRepository
func NewVersionRepository() interfaces.VersionRepositoryInterface {
	return &VersionRepository{
		crud: base.NewBaseCRUDRepository[models.RobotVersion](versionsTable),
	}
}

func (vr *VersionRepository) Create(tx *gorm.DB, version *models.RobotVersion) error {
	return vr.crud.CreateWithTransaction(tx, version)
}

// ClearCurrent demotes every snapshot of the robot
func (vr *VersionRepository) ClearCurrent(tx *gorm.DB, robotID uint) error {
	err := tx.Model(&models.RobotVersion{}).
		Scopes(base.ForRobot(robotID)).
		Update("is_current", false).Error
	if err != nil {
		return base.WrapDBError("clear current", versionsTable, err)
	}
	return nil
}

func (vr *VersionRepository) ListByRobot(tx *gorm.DB, robotID uint) ([]models.RobotVersion, error) {
	return vr.crud.ListByField(tx, "robot_id", robotID, "version DESC")
}
