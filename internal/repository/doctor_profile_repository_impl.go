package repository

import (
	"errors"

	"go-telehealth-booking/internal/domain/entity"
	domainRepo "go-telehealth-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorProfileRepository struct{}

func NewDoctorProfileRepository() domainRepo.DoctorProfileRepository {
	return &doctorProfileRepository{}
}

func (r *doctorProfileRepository) Create(db *gorm.DB, profile *entity.DoctorProfile) error {
	return db.Create(profile).Error
}

func (r *doctorProfileRepository) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	var profile entity.DoctorProfile
	err := db.Preload("User").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// FindAllVerified returns admin-approved doctors whose accounts are active.
// Only these are visible to patients.
func (r *doctorProfileRepository) FindAllVerified(db *gorm.DB) ([]entity.DoctorProfile, error) {
	var profiles []entity.DoctorProfile
	err := db.
		Joins("JOIN users ON users.id = doctor_profiles.user_id").
		Where("doctor_profiles.is_verified = ? AND users.is_active = ?", true, true).
		Preload("User").
		Order("doctor_profiles.specialization ASC").
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *doctorProfileRepository) Update(db *gorm.DB, profile *entity.DoctorProfile) error {
	return db.Omit("User", "Schedules").Save(profile).Error
}

func (r *doctorProfileRepository) SetVerified(db *gorm.DB, userID uuid.UUID, verified bool) (int64, error) {
	result := db.Model(&entity.DoctorProfile{}).
		Where("user_id = ?", userID).
		Update("is_verified", verified)
	return result.RowsAffected, result.Error
}
