package repositories

import (
	"fmt"

	"robot-manager/models"
	"robot-manager/repositories/base"
	"robot-manager/repositories/interfaces"

	"gorm.io/gorm"
)

const filesTable = "robot_files"

// FileRepository implements FileRepositoryInterface
type FileRepository struct {
	crud *base.BaseCRUDRepository[models.RobotFile]
}

// NewFileRepository creates a new instance of FileRepository
func NewFileRepository() interfaces.FileRepositoryInterface {
	return &FileRepository{
		crud: base.NewBaseCRUDRepository[models.RobotFile](filesTable),
	}
}

func (fr *FileRepository) Create(tx *gorm.DB, file *models.RobotFile) error {
	return fr.crud.CreateWithTransaction(tx, file)
}

func (fr *FileRepository) FindForRobot(tx *gorm.DB, robotID uint, ids []uint) ([]models.RobotFile, error) {
	return FindInRobot[models.RobotFile](tx, filesTable, robotID, ids)
}

// GetForRobot retrieves one attachment, scoped to its robot
func (fr *FileRepository) GetForRobot(tx *gorm.DB, robotID, fileID uint) (*models.RobotFile, error) {
	var file models.RobotFile
	err := tx.Scopes(base.ForRobot(robotID)).Where("id = ?", fileID).First(&file).Error
	if err != nil {
		return nil, base.HandleDBError("get", filesTable, fmt.Sprintf("ID %d", fileID), err)
	}
	return &file, nil
}

func (fr *FileRepository) ListByRobot(tx *gorm.DB, robotID uint) ([]models.RobotFile, error) {
	return fr.crud.ListByField(tx, "robot_id", robotID, "sort_order ASC, id ASC")
}

func (fr *FileRepository) Delete(tx *gorm.DB, fileID uint) error {
	return fr.crud.DeleteWithTransaction(tx, fileID)
}

func (fr *FileRepository) MaxSortOrder(tx *gorm.DB, robotID uint) (int, error) {
	return fr.crud.MaxByField(tx, "sort_order", "robot_id", robotID, -1)
}
