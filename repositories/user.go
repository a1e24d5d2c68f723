package repositories

import (
	"robot-manager/models"
	"robot-manager/repositories/base"
	"robot-manager/repositories/interfaces"

	"gorm.io/gorm"
)

const usersTable = "users"

// UserRepository implements UserRepositoryInterface
type UserRepository struct {
	crud *base.BaseCRUDRepository[models.User]
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository() interfaces.UserRepositoryInterface {
	return &UserRepository{
		crud: base.NewBaseCRUDRepository[models.User](usersTable),
	}
}

func (ur *UserRepository) Create(tx *gorm.DB, user *models.User) error {
	return ur.crud.CreateWithTransaction(tx, user)
}

func (ur *UserRepository) GetByID(tx *gorm.DB, userID uint) (*models.User, error) {
	return ur.crud.GetByID(tx, userID)
}

func (ur *UserRepository) FindByPhone(tx *gorm.DB, phone string) (*models.User, error) {
	return FindByField[models.User](tx, usersTable, "phone", phone)
}

func (ur *UserRepository) ExistsByEmail(tx *gorm.DB, email string) (bool, error) {
	return ExistsByField[models.User](tx, usersTable, "email", email)
}

// Summaries loads the owner projection for a batch of robots in one query
func (ur *UserRepository) Summaries(tx *gorm.DB, userIDs []uint) (map[uint]*models.UserSummary, error) {
	summaries := make(map[uint]*models.UserSummary, len(userIDs))
	if len(userIDs) == 0 {
		return summaries, nil
	}

	var users []models.User
	if err := tx.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, base.WrapDBError("list", usersTable, err)
	}
	for _, u := range users {
		summaries[u.ID] = u.Summary()
	}
	return summaries, nil
}
