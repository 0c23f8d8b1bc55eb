package repository

import (
	"errors"
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfilesRepository struct {
	db *gorm.DB
}

func NewProfilesRepository(db *gorm.DB) *ProfilesRepository {
	return &ProfilesRepository{db: db}
}

// ListProfiles returns all profiles, newest first.
func (r *ProfilesRepository) ListProfiles() ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.Order("created_at DESC").Find(&profiles).Error
	return profiles, err
}

// GetProfileByID retrieves a single profile.
func (r *ProfilesRepository) GetProfileByID(id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.Where("id = ?", id).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// GetProfileByEmail retrieves a profile by its email address.
func (r *ProfilesRepository) GetProfileByEmail(email string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.Where("LOWER(email) = LOWER(?)", email).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// SetApproval toggles the is_approved flag.
func (r *ProfilesRepository) SetApproval(id uuid.UUID, approved bool) error {
	return r.updateColumns(id, map[string]interface{}{"is_approved": approved})
}

// SetAccessExpiry sets or clears (nil) the access expiry date.
func (r *ProfilesRepository) SetAccessExpiry(id uuid.UUID, expiry *time.Time) error {
	return r.updateColumns(id, map[string]interface{}{"access_expiry": expiry})
}

func (r *ProfilesRepository) updateColumns(id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.Model(&models.Profile{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// CountProfiles returns the total and pending (unapproved) profile counts.
func (r *ProfilesRepository) CountProfiles() (total int64, pending int64, err error) {
	if err = r.db.Model(&models.Profile{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = r.db.Model(&models.Profile{}).Where("is_approved = ?", false).Count(&pending).Error; err != nil {
		return 0, 0, err
	}
	return total, pending, nil
}
