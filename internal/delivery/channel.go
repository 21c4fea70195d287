package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ngo_connect_backend/internal/models"
)

// ErrNoRecipient means the NGO has no address for the channel. It is not
// retried and does not count against the channel's breaker.
var ErrNoRecipient = errors.New("no recipient for channel")

// Envelope is one notification plus what a channel needs to reach the NGO.
type Envelope struct {
	Notification models.Notification
	Contact      models.NGOContact
	Category     string
	// RequestID ties asynchronous delivery logs to the originating request.
	RequestID string
}

// Channel delivers notifications over one medium. Send must honour ctx.
type Channel interface {
	Name() string
	Send(ctx context.Context, env Envelope) error
}

// Observer receives one call per finished delivery.
type Observer interface {
	DeliveryAttempt(channel, outcome string)
}

// Event is the JSON body published to message brokers.
type Event struct {
	Type           string    `json:"type"`
	NotificationID string    `json:"notificationId"`
	PostID         string    `json:"postId"`
	NGOID          string    `json:"ngoId"`
	NGOName        string    `json:"ngoName"`
	Category       string    `json:"category"`
	Message        string    `json:"message"`
	DistanceKm     float64   `json:"distanceKm"`
	Priority       int       `json:"priority"`
	Timestamp      time.Time `json:"timestamp"`
}

const eventTypeNGORequest = "ngo.request"

func NewEvent(env Envelope) Event {
	n := env.Notification
	return Event{
		Type:           eventTypeNGORequest,
		NotificationID: n.ID,
		PostID:         n.PostID,
		NGOID:          n.NGOID,
		NGOName:        n.NGOName,
		Category:       env.Category,
		Message:        n.Message,
		DistanceKm:     n.DistanceKm,
		Priority:       n.Priority,
		Timestamp:      n.Timestamp,
	}
}

func encodeEvent(env Envelope) ([]byte, error) {
	return json.Marshal(NewEvent(env))
}
