package catalog

import (
	"context"
	"errors"

	"ngo_connect_backend/internal/models"
)

// ErrUnavailable wraps every failure to obtain the roster.
var ErrUnavailable = errors.New("ngo catalog unavailable")

// Provider supplies the current NGO roster. An empty category asks for every
// active NGO. Freshness and caching are up to the implementation; callers
// must treat the returned slice as read-only.
type Provider interface {
	LoadActive(ctx context.Context, category string) ([]models.NGO, error)
}

func keepActive(ngos []models.NGO, category string) []models.NGO {
	out := make([]models.NGO, 0, len(ngos))
	for _, ngo := range ngos {
		if !ngo.Active {
			continue
		}
		if category != "" && !ngo.Serves(category) {
			continue
		}
		out = append(out, ngo)
	}
	return out
}
