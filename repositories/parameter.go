package repositories

import (
	"robot-manager/models"
	"robot-manager/repositories/base"
	"robot-manager/repositories/interfaces"

	"gorm.io/gorm"
)

const parametersTable = "robot_parameters"

// ParameterRepository implements ParameterRepositoryInterface
type ParameterRepository struct {
	crud *base.BaseCRUDRepository[models.RobotParameter]
}

// NewParameterRepository creates a new instance of ParameterRepository
func NewParameterRepository() interfaces.ParameterRepositoryInterface {
	return &ParameterRepository{
		crud: base.NewBaseCRUDRepository[models.RobotParameter](parametersTable),
	}
}

func (pr *ParameterRepository) Create(tx *gorm.DB, param *models.RobotParameter) error {
	return pr.crud.CreateWithTransaction(tx, param)
}

// UpdateForRobot is a no-op when paramID belongs to another robot
func (pr *ParameterRepository) UpdateForRobot(tx *gorm.DB, robotID, paramID uint, fields map[string]interface{}) error {
	return pr.crud.UpdateWithTransaction(tx, paramID, fields, base.ForRobot(robotID))
}

// DeleteExcept removes the parameters of robotID that are not listed in keepIDs.
// An empty keepIDs removes every parameter of the robot.
func (pr *ParameterRepository) DeleteExcept(tx *gorm.DB, robotID uint, keepIDs []uint) (int64, error) {
	query := tx.Scopes(base.ForRobot(robotID))
	if len(keepIDs) > 0 {
		query = query.Where("id NOT IN ?", keepIDs)
	}

	result := query.Delete(&models.RobotParameter{})
	if result.Error != nil {
		return 0, base.WrapDBError("delete", parametersTable, result.Error)
	}
	return result.RowsAffected, nil
}

func (pr *ParameterRepository) ListByRobot(tx *gorm.DB, robotID uint) ([]models.RobotParameter, error) {
	return pr.crud.ListByField(tx, "robot_id", robotID, "sort_order ASC, id ASC")
}
