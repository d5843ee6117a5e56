package repository

import (
	"gorm.io/gorm"

	"medibook-server/internal/models"
)

// UserRepository resolves accounts for the booking coordinator and the
// admin statistics.
type UserRepository interface {
	GetByID(id string) (*models.User, error)
	// GetDoctor returns the user only when it exists and holds the
	// doctor role.
	GetDoctor(id string) (*models.User, error)
	CountByRole(role models.Role) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a gorm-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetDoctor(id string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("id = ? AND role = ?", id, models.RoleDoctor).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) CountByRole(role models.Role) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}
