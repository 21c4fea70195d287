package catalog

import (
	"context"
	"fmt"

	"ngo_connect_backend/internal/models"
	"ngo_connect_backend/internal/repositories"
)

// DatabaseProvider reads the roster from the ngos table.
type DatabaseProvider struct {
	repo repositories.NGORepository
}

func NewDatabaseProvider(repo repositories.NGORepository) *DatabaseProvider {
	return &DatabaseProvider{repo: repo}
}

func (p *DatabaseProvider) LoadActive(ctx context.Context, category string) ([]models.NGO, error) {
	ngos, err := p.repo.ListActive(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return ngos, nil
}
