package interfaces

import (
	"robot-manager/models"

	"gorm.io/gorm"
)

// UserRepositoryInterface defines the contract for user access
type UserRepositoryInterface interface {
	Create(tx *gorm.DB, user *models.User) error
	GetByID(tx *gorm.DB, userID uint) (*models.User, error)
	FindByPhone(tx *gorm.DB, phone string) (*models.User, error)
	ExistsByEmail(tx *gorm.DB, email string) (bool, error)

	// Summaries returns the owner projection for each id found
	Summaries(tx *gorm.DB, userIDs []uint) (map[uint]*models.UserSummary, error)
}
