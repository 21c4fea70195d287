package catalog

import (
	"context"
	"slices"

	"ngo_connect_backend/internal/models"
)

// StaticProvider serves a fixed in-memory roster.
type StaticProvider struct {
	ngos []models.NGO
}

func NewStaticProvider(ngos []models.NGO) *StaticProvider {
	return &StaticProvider{ngos: slices.Clone(ngos)}
}

func (p *StaticProvider) LoadActive(_ context.Context, category string) ([]models.NGO, error) {
	return keepActive(p.ngos, category), nil
}

// BangaloreRoster is the demo roster used in development and by the seed
// command.
func BangaloreRoster() []models.NGO {
	type entry struct {
		id, name, description, phone, email string
		categories                          []string
		lat, lon, rating, responseHours     float64
	}
	entries := []entry{
		{
			id:            "ngo-1",
			name:          "Animal Welfare Society",
			description:   "Dedicated to rescuing and rehabilitating injured and abandoned animals",
			phone:         "+91-9876543210",
			email:         "contact@animalwelfare.org",
			categories:    []string{"animal-health", "environment"},
			lat:           12.9716,
			lon:           77.5946,
			rating:        4.8,
			responseHours: 2,
		},
		{
			id:            "ngo-2",
			name:          "Green Earth Foundation",
			description:   "Working towards environmental conservation and sustainability",
			phone:         "+91-9876543211",
			email:         "info@greenearth.org",
			categories:    []string{"environment", "education"},
			lat:           12.9352,
			lon:           77.6245,
			rating:        4.6,
			responseHours: 4,
		},
		{
			id:            "ngo-3",
			name:          "Hope for Children",
			description:   "Providing education and care for underprivileged children",
			phone:         "+91-9876543212",
			email:         "help@hopeforchildren.org",
			categories:    []string{"children", "education", "poverty"},
			lat:           12.9784,
			lon:           77.6408,
			rating:        4.9,
			responseHours: 1,
		},
		{
			id:            "ngo-4",
			name:          "Women Empowerment Network",
			description:   "Supporting women through skill development and healthcare",
			phone:         "+91-9876543213",
			email:         "support@womenempowerment.org",
			categories:    []string{"women", "education", "healthcare"},
			lat:           12.9141,
			lon:           77.6786,
			rating:        4.7,
			responseHours: 3,
		},
		{
			id:            "ngo-5",
			name:          "Elderly Care Foundation",
			description:   "Caring for senior citizens and providing healthcare support",
			phone:         "+91-9876543214",
			email:         "care@elderlycare.org",
			categories:    []string{"elderly", "healthcare", "poverty"},
			lat:           12.9716,
			lon:           77.5946,
			rating:        4.5,
			responseHours: 6,
		},
	}

	roster := make([]models.NGO, 0, len(entries))
	for _, e := range entries {
		ngo := models.NGO{
			BaseModel:   models.BaseModel{ID: e.id},
			Name:        e.name,
			Logo:        "/api/placeholder/100/100",
			Description: e.description,
			Location: models.LocationData{
				Latitude:  e.lat,
				Longitude: e.lon,
				Address:   "Bangalore, Karnataka",
				City:      "Bangalore",
				State:     "Karnataka",
				Country:   "India",
			},
			Contact:      models.NGOContact{Phone: e.phone, Email: e.email},
			Verified:     true,
			Rating:       e.rating,
			ResponseTime: e.responseHours,
			Active:       true,
		}
		ngo.SetCategories(e.categories)
		roster = append(roster, ngo)
	}
	return roster
}
