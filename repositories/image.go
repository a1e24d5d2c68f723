package repositories

import (
	"robot-manager/models"
	"robot-manager/repositories/base"
	"robot-manager/repositories/interfaces"

	"gorm.io/gorm"
)

const imagesTable = "robot_images"

// ImageRepository implements ImageRepositoryInterface
type ImageRepository struct {
	crud *base.BaseCRUDRepository[models.RobotImage]
}

// NewImageRepository creates a new instance of ImageRepository
func NewImageRepository() interfaces.ImageRepositoryInterface {
	return &ImageRepository{
		crud: base.NewBaseCRUDRepository[models.RobotImage](imagesTable),
	}
}

func (ir *ImageRepository) Create(tx *gorm.DB, image *models.RobotImage) error {
	return ir.crud.CreateWithTransaction(tx, image)
}

func (ir *ImageRepository) FindForRobot(tx *gorm.DB, robotID uint, ids []uint) ([]models.RobotImage, error) {
	return FindInRobot[models.RobotImage](tx, imagesTable, robotID, ids)
}

func (ir *ImageRepository) ListByRobot(tx *gorm.DB, robotID uint) ([]models.RobotImage, error) {
	return ir.crud.ListByField(tx, "robot_id", robotID, "sort_order ASC, id ASC")
}

func (ir *ImageRepository) Delete(tx *gorm.DB, imageID uint) error {
	return ir.crud.DeleteWithTransaction(tx, imageID)
}

func (ir *ImageRepository) MaxSortOrder(tx *gorm.DB, robotID uint) (int, error) {
	return ir.crud.MaxByField(tx, "sort_order", "robot_id", robotID, -1)
}
