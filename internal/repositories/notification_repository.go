package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"ngo_connect_backend/internal/logger"
	"ngo_connect_backend/internal/models"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrStatusConflict means the row changed between read and write.
	ErrStatusConflict = errors.New("notification was modified concurrently")
)

const notificationBatchSize = 100

type NotificationRepository interface {
	SaveAll(ctx context.Context, notifications []models.Notification) error
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	FindByPost(ctx context.Context, postID string) ([]models.Notification, error)
	// UpdateStatus writes n's status fields if the stored version still
	// equals n.Version, then bumps n.Version.
	UpdateStatus(ctx context.Context, n *models.Notification) error
	StatsForNGO(ctx context.Context, ngoID string) (*NGOEngagement, error)
}

// NGOEngagement is the raw aggregate behind NGO statistics.
type NGOEngagement struct {
	TotalRequests       int64
	RespondedRequests   int64
	CompletedRequests   int64
	AverageResponseTime float64 // hours, 0 when nothing was answered
}

type NotificationRepositoryImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (r *NotificationRepositoryImpl) SaveAll(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	start := time.Now()
	err := r.db.WithContext(ctx).CreateInBatches(notifications, notificationBatchSize).Error
	logger.DBLog("notifications.save_all", time.Since(start), err)
	return err
}

func (r *NotificationRepositoryImpl) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepositoryImpl) FindByPost(ctx context.Context, postID string) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("timestamp ASC").
		Order("priority ASC").
		Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepositoryImpl) UpdateStatus(ctx context.Context, n *models.Notification) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND version = ?", n.ID, n.Version).
		Updates(map[string]interface{}{
			"status":           n.Status,
			"response_type":    n.ResponseType,
			"response_message": n.ResponseMessage,
			"read_at":          n.ReadAt,
			"responded_at":     n.RespondedAt,
			"version":          n.Version + 1,
			"updated_at":       now,
		})
	logger.DBLog("notifications.update_status", time.Since(now), result.Error)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	n.Version++
	n.UpdatedAt = now
	return nil
}

func (r *NotificationRepositoryImpl) StatsForNGO(ctx context.Context, ngoID string) (*NGOEngagement, error) {
	stats := &NGOEngagement{}
	base := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("ngo_id = ?", ngoID).
		Session(&gorm.Session{})

	if err := base.Count(&stats.TotalRequests).Error; err != nil {
		return nil, err
	}

	// durations are summed in Go so the query stays portable across dialects
	var responded []models.Notification
	err := base.
		Select("timestamp", "responded_at", "response_type").
		Where("status = ?", models.NotificationStatusResponded).
		Find(&responded).Error
	if err != nil {
		return nil, err
	}

	var totalHours float64
	var timed int
	for _, n := range responded {
		stats.RespondedRequests++
		if n.ResponseType != nil && *n.ResponseType == models.ResponseTypeCompleted {
			stats.CompletedRequests++
		}
		if n.RespondedAt != nil {
			totalHours += n.RespondedAt.Sub(n.Timestamp).Hours()
			timed++
		}
	}
	if timed > 0 {
		stats.AverageResponseTime = totalHours / float64(timed)
	}

	return stats, nil
}
