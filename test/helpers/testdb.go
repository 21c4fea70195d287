package helpers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ngo_connect_backend/internal/catalog"
	"ngo_connect_backend/internal/models"
	"ngo_connect_backend/internal/repositories"
)

// CreateNGO stores one active NGO serving categories.
func CreateNGO(t *testing.T, db *gorm.DB, id string, lat, lon, rating float64, categories ...string) models.NGO {
	t.Helper()
	ngo := models.NGO{
		BaseModel: models.BaseModel{ID: id},
		Name:      "NGO " + id,
		Location:  models.LocationData{Latitude: lat, Longitude: lon, City: "Bangalore"},
		Contact:   models.NGOContact{Email: id + "@example.org"},
		Rating:    rating,
		Active:    true,
	}
	ngo.SetCategories(categories)
	require.NoError(t, repositories.NewNGORepository(db).Upsert(context.Background(), &ngo))
	return ngo
}

// SeedRoster stores the Bangalore demo roster.
func SeedRoster(t *testing.T, db *gorm.DB) []models.NGO {
	t.Helper()
	roster := catalog.BangaloreRoster()
	repo := repositories.NewNGORepository(db)
	for i := range roster {
		require.NoError(t, repo.Upsert(context.Background(), &roster[i]))
	}
	return roster
}
