package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"ngo_connect_backend/internal/models"
)

var ErrPostNotFound = errors.New("post not found")

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id string) (*models.Post, error)
	AddNGOResponses(ctx context.Context, id string, delta int) (int, error)
}

type PostRepositoryImpl struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &PostRepositoryImpl{db: db}
}

func (r *PostRepositoryImpl) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *PostRepositoryImpl) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// AddNGOResponses increments the counter in the database and returns the
// stored value after the increment.
func (r *PostRepositoryImpl) AddNGOResponses(ctx context.Context, id string, delta int) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Post{}).
			Where("id = ?", id).
			Update("ngo_responses", gorm.Expr("ngo_responses + ?", delta))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return tx.Model(&models.Post{}).
			Where("id = ?", id).
			Select("ngo_responses").
			Scan(&count).Error
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
