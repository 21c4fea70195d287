package delivery

import (
	"context"

	"ngo_connect_backend/internal/logger"
)

// LogChannel writes notifications to the structured log. It stands in for
// push delivery in development.
type LogChannel struct{}

func NewLogChannel() *LogChannel {
	return &LogChannel{}
}

func (LogChannel) Name() string { return "log" }

func (LogChannel) Send(ctx context.Context, env Envelope) error {
	n := env.Notification
	logger.CtxInfo(ctx, "notification delivered",
		"notification_id", n.ID,
		"post_id", n.PostID,
		"ngo_id", n.NGOID,
		"distance_km", n.DistanceKm,
		"priority", n.Priority,
	)
	return nil
}
