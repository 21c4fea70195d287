package algorithms

import (
	"ngo_connect_backend/internal/models"
)

func newNGO(id string, lat, lon, rating float64, active bool, categories ...string) models.NGO {
	ngo := models.NGO{
		BaseModel: models.BaseModel{ID: id},
		Name:      "NGO " + id,
		Logo:      "/api/placeholder/100/100",
		Location:  models.LocationData{Latitude: lat, Longitude: lon, City: "Bangalore"},
		Rating:    rating,
		Active:    active,
	}
	ngo.SetCategories(categories)
	return ngo
}

func candidate(id string, distance, rating float64) Candidate {
	return Candidate{NGO: newNGO(id, 0, 0, rating, true), DistanceKm: distance}
}

func ids(candidates []Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.NGO.ID)
	}
	return out
}
