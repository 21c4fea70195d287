package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"ngo_connect_backend/internal/models"
)

var ErrPreferenceNotFound = errors.New("notification preference not found")

type PreferenceRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.NotificationPreference, error)
	Save(ctx context.Context, pref *models.NotificationPreference) error
}

type PreferenceRepositoryImpl struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &PreferenceRepositoryImpl{db: db}
}

func (r *PreferenceRepositoryImpl) FindByUserID(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPreferenceNotFound
		}
		return nil, err
	}
	return &pref, nil
}

// Save inserts or replaces the user's preferences.
func (r *PreferenceRepositoryImpl) Save(ctx context.Context, pref *models.NotificationPreference) error {
	return r.db.WithContext(ctx).Save(pref).Error
}
