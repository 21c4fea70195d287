package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ngo_connect_backend/internal/models"
)

var ErrNGONotFound = errors.New("ngo not found")

type NGORepository interface {
	// ListActive returns active NGOs; an empty category means all of them.
	ListActive(ctx context.Context, category string) ([]models.NGO, error)
	FindByID(ctx context.Context, id string) (*models.NGO, error)
	Upsert(ctx context.Context, ngo *models.NGO) error
	Count(ctx context.Context) (int64, error)
}

type NGORepositoryImpl struct {
	db *gorm.DB
}

func NewNGORepository(db *gorm.DB) NGORepository {
	return &NGORepositoryImpl{db: db}
}

func (r *NGORepositoryImpl) ListActive(ctx context.Context, category string) ([]models.NGO, error) {
	var ngos []models.NGO
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Order("id ASC").
		Find(&ngos).Error
	if err != nil {
		return nil, err
	}

	// categories is a JSON column; membership is checked here so that
	// postgres, mysql and sqlite behave the same
	out := make([]models.NGO, 0, len(ngos))
	for _, ngo := range ngos {
		if category == "" || ngo.Serves(category) {
			out = append(out, ngo)
		}
	}
	return out, nil
}

func (r *NGORepositoryImpl) FindByID(ctx context.Context, id string) (*models.NGO, error) {
	var ngo models.NGO
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ngo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNGONotFound
		}
		return nil, err
	}
	return &ngo, nil
}

func (r *NGORepositoryImpl) Upsert(ctx context.Context, ngo *models.NGO) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(ngo).Error
}

func (r *NGORepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.NGO{}).Count(&count).Error
	return count, err
}
