package repository

import (
	"go-telehealth-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserFilter narrows admin user listings.
type UserFilter struct {
	RoleID   int
	IsActive *bool
}

type UserRepository interface {
	Create(db *gorm.DB, user *entity.User) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error)
	FindByEmail(db *gorm.DB, email string) (*entity.User, error)
	FindByEmailVerifyTokenHash(db *gorm.DB, hash string) (*entity.User, error)
	FindByResetTokenHash(db *gorm.DB, hash string) (*entity.User, error)
	Update(db *gorm.DB, user *entity.User) error
	// Delete hard-deletes a user; only used for rejecting pending doctors.
	Delete(db *gorm.DB, id uuid.UUID) (int64, error)
	FindAll(db *gorm.DB, filter *UserFilter, limit, offset int) ([]entity.User, int64, error)
}
