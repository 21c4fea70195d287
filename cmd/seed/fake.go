package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"ngo_connect_backend/internal/models"
)

var fakeCategories = []string{
	"animal-health", "environment", "education", "children", "healthcare",
	"disaster-relief", "elderly-care", "women-empowerment", "sanitation",
}

const kmPerDegree = 111.32

// FakeNGOs generates n active NGOs scattered within spreadKm of center.
// Ids are stable for a given faker seed.
func FakeNGOs(faker *gofakeit.Faker, n int, center models.GeoPoint, spreadKm float64) []models.NGO {
	if spreadKm < 0 {
		spreadKm = 0
	}
	ngos := make([]models.NGO, 0, n)
	for i := 0; i < n; i++ {
		company := faker.Company()
		p := offset(center, faker.Float64Range(0, spreadKm), faker.Float64Range(0, 2*math.Pi))

		ngo := models.NGO{
			Name:        company + " Foundation",
			Description: faker.Sentence(12),
			Location: models.LocationData{
				Latitude:  p.Latitude,
				Longitude: p.Longitude,
				Address:   faker.Street(),
				City:      faker.City(),
				Country:   faker.Country(),
			},
			Contact: models.NGOContact{
				Phone:   faker.Phone(),
				Email:   faker.Email(),
				Website: fmt.Sprintf("https://%s.org", slug(company)),
			},
			Verified:     faker.Bool(),
			Rating:       math.Round(faker.Float64Range(3, 5)*10) / 10,
			ResponseTime: float64(faker.Number(1, 48)),
			Active:       true,
		}
		ngo.ID = fmt.Sprintf("fake-%s", faker.UUID())
		ngo.SetCategories(pickCategories(faker))
		ngos = append(ngos, ngo)
	}
	return ngos
}

func pickCategories(faker *gofakeit.Faker) []string {
	count := faker.Number(1, 3)
	seen := make(map[string]bool, count)
	var picked []string
	for len(picked) < count {
		c := fakeCategories[faker.Number(0, len(fakeCategories)-1)]
		if !seen[c] {
			seen[c] = true
			picked = append(picked, c)
		}
	}
	return picked
}

// offset moves p by distKm along bearing using a flat-earth approximation,
// which is close enough for a few tens of kilometers.
func offset(p models.GeoPoint, distKm, bearing float64) models.GeoPoint {
	lat := p.Latitude + distKm*math.Cos(bearing)/kmPerDegree
	lon := p.Longitude + distKm*math.Sin(bearing)/(kmPerDegree*math.Cos(p.Latitude*math.Pi/180))
	lat = math.Max(-90, math.Min(90, lat))
	if lon > 180 {
		lon -= 360
	} else if lon < -180 {
		lon += 360
	}
	return models.GeoPoint{Latitude: lat, Longitude: lon}
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
