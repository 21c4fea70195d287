package services

import (
	"context"
	"errors"

	"ngo_connect_backend/internal/algorithms"
	"ngo_connect_backend/internal/models"
	"ngo_connect_backend/internal/repositories"
	"ngo_connect_backend/internal/services/dto"
	"ngo_connect_backend/pkg/apperrors"
)

type PreferenceService interface {
	GetPreferences(ctx context.Context, userID string) (*dto.PreferencesResponse, error)
	UpdatePreferences(ctx context.Context, userID string, req *dto.UpdatePreferencesRequest) (*dto.PreferencesResponse, error)
}

type preferenceService struct {
	repo repositories.PreferenceRepository
}

func NewPreferenceService(repo repositories.PreferenceRepository) PreferenceService {
	return &preferenceService{repo: repo}
}

// DefaultPreferences is what a user gets before saving anything.
func DefaultPreferences(userID string) *models.NotificationPreference {
	pref := &models.NotificationPreference{
		UserID:             userID,
		PushNotifications:  true,
		EmailNotifications: false,
		SMSNotifications:   false,
		RadiusKm:           algorithms.DefaultRadiusKm,
	}
	pref.SetCategories(nil)
	return pref
}

func (s *preferenceService) GetPreferences(ctx context.Context, userID string) (*dto.PreferencesResponse, error) {
	pref, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toPreferencesResponse(pref), nil
}

func (s *preferenceService) UpdatePreferences(ctx context.Context, userID string, req *dto.UpdatePreferencesRequest) (*dto.PreferencesResponse, error) {
	pref, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.PushNotifications != nil {
		pref.PushNotifications = *req.PushNotifications
	}
	if req.EmailNotifications != nil {
		pref.EmailNotifications = *req.EmailNotifications
	}
	if req.SMSNotifications != nil {
		pref.SMSNotifications = *req.SMSNotifications
	}
	if req.Categories != nil {
		pref.SetCategories(req.Categories)
	}
	if req.RadiusKm != nil {
		pref.RadiusKm = *req.RadiusKm
	}

	if err := s.repo.Save(ctx, pref); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return toPreferencesResponse(pref), nil
}

func (s *preferenceService) load(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	if userID == "" {
		return nil, apperrors.NewBadRequestError("userId is required")
	}
	pref, err := s.repo.FindByUserID(ctx, userID)
	if errors.Is(err, repositories.ErrPreferenceNotFound) {
		return DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return pref, nil
}

func toPreferencesResponse(p *models.NotificationPreference) *dto.PreferencesResponse {
	return &dto.PreferencesResponse{
		UserID:             p.UserID,
		PushNotifications:  p.PushNotifications,
		EmailNotifications: p.EmailNotifications,
		SMSNotifications:   p.SMSNotifications,
		Categories:         p.GetCategories(),
		RadiusKm:           p.RadiusKm,
	}
}
