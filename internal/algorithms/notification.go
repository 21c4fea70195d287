package algorithms

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ngo_connect_backend/internal/models"
)

const fallbackTitle = "Help needed"

// Dispatch identifies one run of the notify pipeline. Nonce keeps ids unique
// when the same post is dispatched twice within a millisecond.
type Dispatch struct {
	At    time.Time
	Nonce string
}

func NewDispatch(now time.Time) Dispatch {
	return Dispatch{At: now, Nonce: strings.ReplaceAll(uuid.NewString(), "-", "")[:8]}
}

// NotificationID is "<postId>-<ngoId>-<unixMillis>[-<nonce>]".
func (d Dispatch) NotificationID(postID, ngoID string) string {
	id := fmt.Sprintf("%s-%s-%d", postID, ngoID, d.At.UnixMilli())
	if d.Nonce != "" {
		id += "-" + d.Nonce
	}
	return id
}

// NotificationMessage renders the text an NGO receives.
func NotificationMessage(category, title string) string {
	if strings.TrimSpace(title) == "" {
		title = fallbackTitle
	}
	return fmt.Sprintf("New %s request in your area: \"%s\"", category, title)
}

// BuildNotifications turns ranked candidates into notification records, one
// per NGO, in ranked order. It performs no I/O.
func BuildNotifications(post *models.Post, ranked []Candidate, d Dispatch) []models.Notification {
	message := NotificationMessage(post.Category, post.Title)

	out := make([]models.Notification, 0, len(ranked))
	for i, c := range ranked {
		out = append(out, models.Notification{
			ID:         d.NotificationID(post.ID, c.NGO.ID),
			PostID:     post.ID,
			NGOID:      c.NGO.ID,
			NGOName:    c.NGO.Name,
			NGOLogo:    c.NGO.Logo,
			Message:    message,
			DistanceKm: c.DistanceKm,
			Priority:   i + 1,
			Timestamp:  d.At,
			Status:     models.NotificationStatusSent,
			Version:    1,
		})
	}
	return out
}
