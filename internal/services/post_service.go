package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"

	"ngo_connect_backend/internal/logger"
	"ngo_connect_backend/internal/models"
	"ngo_connect_backend/internal/repositories"
	"ngo_connect_backend/internal/services/dto"
	"ngo_connect_backend/pkg/apperrors"
)

const baseXP = 50

// xpMultipliers reward reports in categories that are harder to cover.
var xpMultipliers = map[string]float64{
	"animal-health": 1.5,
	"environment":   1.2,
	"poverty":       1.3,
	"education":     1.1,
	"healthcare":    1.4,
	"children":      1.3,
	"women":         1.2,
	"elderly":       1.1,
}

// XPForCategory is the experience a reporter earns for one post.
func XPForCategory(category string) int {
	multiplier, ok := xpMultipliers[category]
	if !ok {
		multiplier = 1.0
	}
	return int(math.Round(baseXP * multiplier))
}

type PostService interface {
	CreatePost(ctx context.Context, req *dto.CreatePostRequest) (*dto.PostResponse, error)
	GetPost(ctx context.Context, postID string) (*dto.PostResponse, error)
	NotifyExistingPost(ctx context.Context, postID string) ([]models.Notification, error)
}

type postService struct {
	postRepo repositories.PostRepository
	matcher  MatchingService
	now      func() time.Time
}

func NewPostService(postRepo repositories.PostRepository, matcher MatchingService) PostService {
	return &postService{
		postRepo: postRepo,
		matcher:  matcher,
		now:      time.Now,
	}
}

// CreatePost stores the report, then notifies nearby NGOs. The report is
// kept even when notification fails; the response then carries no
// notifications.
func (s *postService) CreatePost(ctx context.Context, req *dto.CreatePostRequest) (*dto.PostResponse, error) {
	location := req.Location.ToModel()
	if err := validatePoint(location.Point()); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = req.Category + " Issue"
	}

	post := &models.Post{
		UserID:      req.UserID,
		Title:       title,
		Description: req.Description,
		Category:    req.Category,
		Media: datatypes.NewJSONType(models.PostMedia{
			Type:      req.Media.Type,
			URL:       req.Media.URL,
			Thumbnail: req.Media.Thumbnail,
		}),
		Location:  location,
		Timestamp: s.now().UTC(),
		Status:    models.PostStatusPosted,
		XPEarned:  XPForCategory(req.Category),
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		logger.CtxWithError(ctx, "Failed to create post", err, "category", req.Category)
		return nil, apperrors.InternalError(err)
	}
	ctx = logger.WithCorrelationID(ctx, post.ID)

	notifications, err := s.matcher.NotifyNGOs(ctx, post)
	if err != nil {
		logger.CtxWithError(ctx, "NGO notification failed, post kept", err, "post_id", post.ID)
		return &dto.PostResponse{Post: post, Notifications: []models.Notification{}}, nil
	}

	s.recordResponses(ctx, post, len(notifications))
	return &dto.PostResponse{Post: post, Notifications: notifications}, nil
}

func (s *postService) GetPost(ctx context.Context, postID string) (*dto.PostResponse, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	notifications, err := s.matcher.GetPostNotifications(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &dto.PostResponse{Post: post, Notifications: notifications}, nil
}

// NotifyExistingPost re-runs matching for a stored post. Unlike CreatePost,
// failures are returned to the caller.
func (s *postService) NotifyExistingPost(ctx context.Context, postID string) ([]models.Notification, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithCorrelationID(ctx, post.ID)

	notifications, err := s.matcher.NotifyNGOs(ctx, post)
	if err != nil {
		return nil, err
	}

	s.recordResponses(ctx, post, len(notifications))
	return notifications, nil
}

func (s *postService) findPost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return post, nil
}

// recordResponses is best-effort: the notifications already exist. The
// increment happens in the database so concurrent dispatches all count.
func (s *postService) recordResponses(ctx context.Context, post *models.Post, created int) {
	count, err := s.postRepo.AddNGOResponses(ctx, post.ID, created)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to update NGO response count", err, "post_id", post.ID)
		return
	}
	post.NGOResponses = count
}
