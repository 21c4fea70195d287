package services

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"time"

	"ngo_connect_backend/internal/algorithms"
	"ngo_connect_backend/internal/catalog"
	"ngo_connect_backend/internal/delivery"
	"ngo_connect_backend/internal/logger"
	"ngo_connect_backend/internal/models"
	"ngo_connect_backend/internal/repositories"
	"ngo_connect_backend/internal/services/dto"
	"ngo_connect_backend/pkg/apperrors"
)

// maxStatusAttempts bounds re-reads after an optimistic-lock conflict.
const maxStatusAttempts = 3

const (
	upstreamCatalog = "ngo-catalog"
	upstreamStore   = "notification-store"
)

// Enqueuer hands notifications to asynchronous delivery. Enqueue must not
// block; false means the envelope was dropped.
type Enqueuer interface {
	Enqueue(env delivery.Envelope) bool
}

// Recorder receives matching and status-update counters.
type Recorder interface {
	MatchCompleted(category string, candidates int)
	NotificationsCreated(n int)
	StatusUpdated(status, result string)
}

type noopRecorder struct{}

func (noopRecorder) MatchCompleted(string, int)   {}
func (noopRecorder) NotificationsCreated(int)     {}
func (noopRecorder) StatusUpdated(string, string) {}

// MatchingService is the proximity matcher: it finds NGOs near a report,
// records one notification per NGO and tracks how each NGO reacts.
type MatchingService interface {
	NotifyNGOs(ctx context.Context, post *models.Post) ([]models.Notification, error)
	GetNearbyNGOs(ctx context.Context, point models.GeoPoint, category string, radiusKm float64) ([]dto.NearbyNGO, error)
	GetPostNotifications(ctx context.Context, postID string) ([]models.Notification, error)
	UpdateNotificationStatus(ctx context.Context, notificationID string, req *dto.UpdateNotificationStatusRequest) (*models.Notification, error)
	GetNGOStats(ctx context.Context, ngoID string) (*dto.NGOStats, error)

	ListNGOs(ctx context.Context, category string) ([]models.NGO, error)
	GetNGO(ctx context.Context, ngoID string) (*models.NGO, error)
}

type MatchingDeps struct {
	Catalog          catalog.Provider
	NGORepo          repositories.NGORepository
	NotificationRepo repositories.NotificationRepository
	Queue            Enqueuer // optional
	Metrics          Recorder // optional
	Options          algorithms.MatchOptions
	Now              func() time.Time // optional, for tests
}

type matchingService struct {
	catalog          catalog.Provider
	ngoRepo          repositories.NGORepository
	notificationRepo repositories.NotificationRepository
	queue            Enqueuer
	metrics          Recorder
	opts             algorithms.MatchOptions
	now              func() time.Time
	locks            *keyedLock
}

func NewMatchingService(deps MatchingDeps) MatchingService {
	s := &matchingService{
		catalog:          deps.Catalog,
		ngoRepo:          deps.NGORepo,
		notificationRepo: deps.NotificationRepo,
		queue:            deps.Queue,
		metrics:          deps.Metrics,
		opts:             deps.Options,
		now:              deps.Now,
		locks:            newKeyedLock(),
	}
	if s.metrics == nil {
		s.metrics = noopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ---------------- Matching ----------------

// NotifyNGOs runs filter, rank and synthesis for post, persists the records
// and queues them for delivery. Delivery is best-effort and never fails the
// call; catalog and store failures do.
func (s *matchingService) NotifyNGOs(ctx context.Context, post *models.Post) ([]models.Notification, error) {
	origin := post.Location.Point()
	if err := validatePoint(origin); err != nil {
		return nil, err
	}

	ngos, err := s.catalog.LoadActive(ctx, post.Category)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to load NGO catalog", err, "post_id", post.ID, "category", post.Category)
		return nil, apperrors.UpstreamUnavailable(err, upstreamCatalog)
	}

	ranked := algorithms.Match(ngos, origin, post.Category, s.opts)
	s.metrics.MatchCompleted(post.Category, len(ranked))

	notifications := algorithms.BuildNotifications(post, ranked, algorithms.NewDispatch(s.now().UTC()))
	if err := s.notificationRepo.SaveAll(ctx, notifications); err != nil {
		logger.CtxWithError(ctx, "Failed to persist notifications", err, "post_id", post.ID, "count", len(notifications))
		return nil, apperrors.UpstreamUnavailable(err, upstreamStore)
	}
	s.metrics.NotificationsCreated(len(notifications))

	logger.CtxInfo(ctx, "NGOs matched",
		"post_id", post.ID,
		"category", post.Category,
		"catalog_size", len(ngos),
		"candidates", len(ranked),
	)

	s.enqueue(ctx, post, ranked, notifications)
	return notifications, nil
}

func (s *matchingService) enqueue(ctx context.Context, post *models.Post, ranked []algorithms.Candidate, notifications []models.Notification) {
	if s.queue == nil {
		return
	}
	requestID := logger.GetRequestID(ctx)
	dropped := 0
	for i, n := range notifications {
		ok := s.queue.Enqueue(delivery.Envelope{
			Notification: n,
			Contact:      ranked[i].NGO.Contact,
			Category:     post.Category,
			RequestID:    requestID,
		})
		if !ok {
			dropped++
		}
	}
	if dropped > 0 {
		logger.CtxWarn(ctx, "Some notifications were not queued for delivery", "post_id", post.ID, "dropped", dropped)
	}
}

func (s *matchingService) GetNearbyNGOs(ctx context.Context, point models.GeoPoint, category string, radiusKm float64) ([]dto.NearbyNGO, error) {
	if err := validatePoint(point); err != nil {
		return nil, err
	}

	ngos, err := s.catalog.LoadActive(ctx, category)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to load NGO catalog", err, "category", category)
		return nil, apperrors.UpstreamUnavailable(err, upstreamCatalog)
	}

	opts := s.opts
	if radiusKm > 0 {
		opts.RadiusKm = radiusKm
	}
	ranked := algorithms.Match(ngos, point, category, opts)
	s.metrics.MatchCompleted(category, len(ranked))

	out := make([]dto.NearbyNGO, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, dto.NearbyNGO{NGO: c.NGO, DistanceKm: c.DistanceKm})
	}
	return out, nil
}

func (s *matchingService) GetPostNotifications(ctx context.Context, postID string) ([]models.Notification, error) {
	notifications, err := s.notificationRepo.FindByPost(ctx, postID)
	if err != nil {
		return nil, apperrors.UpstreamUnavailable(err, upstreamStore)
	}
	return notifications, nil
}

// ---------------- Status tracking ----------------

// UpdateNotificationStatus moves a notification forward in sent -> read ->
// responded. Updates to one id are serialized in-process and guarded by the
// row version across processes.
func (s *matchingService) UpdateNotificationStatus(ctx context.Context, notificationID string, req *dto.UpdateNotificationStatusRequest) (*models.Notification, error) {
	next := models.NotificationStatus(req.Status)
	if !next.Valid() {
		return nil, apperrors.ValidationError(map[string]string{"status": "Must be one of: sent, read, responded"})
	}
	if req.ResponseType != nil && !models.ResponseType(*req.ResponseType).Valid() {
		return nil, apperrors.ValidationError(map[string]string{"responseType": "Must be one of: interested, not-interested, completed"})
	}

	unlock := s.locks.Lock(notificationID)
	defer unlock()

	for attempt := 1; attempt <= maxStatusAttempts; attempt++ {
		n, err := s.notificationRepo.FindByID(ctx, notificationID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotificationNotFound) {
				s.metrics.StatusUpdated(string(next), "not_found")
				return nil, apperrors.ErrNotificationNotFound
			}
			return nil, apperrors.UpstreamUnavailable(err, upstreamStore)
		}

		if !n.Status.CanTransitionTo(next) {
			s.metrics.StatusUpdated(string(next), "rejected")
			return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
				"from": string(n.Status),
				"to":   string(next),
			})
		}

		applyStatus(n, next, req, s.now().UTC())

		err = s.notificationRepo.UpdateStatus(ctx, n)
		if err == nil {
			s.metrics.StatusUpdated(string(next), "ok")
			logger.CtxInfo(ctx, "Notification status updated",
				"notification_id", n.ID,
				"ngo_id", n.NGOID,
				"status", n.Status,
			)
			return n, nil
		}
		if !errors.Is(err, repositories.ErrStatusConflict) {
			return nil, apperrors.UpstreamUnavailable(err, upstreamStore)
		}
		logger.CtxWarn(ctx, "Notification changed underneath status update, retrying",
			"notification_id", notificationID,
			"attempt", attempt,
		)
	}

	s.metrics.StatusUpdated(string(next), "conflict")
	return nil, apperrors.ErrConcurrentUpdate
}

// applyStatus sets the new status and its timestamps. Response fields are
// kept only when the status is responded.
func applyStatus(n *models.Notification, next models.NotificationStatus, req *dto.UpdateNotificationStatusRequest, now time.Time) {
	n.Status = next

	switch next {
	case models.NotificationStatusRead:
		if n.ReadAt == nil {
			n.ReadAt = &now
		}
	case models.NotificationStatusResponded:
		if n.ReadAt == nil {
			n.ReadAt = &now
		}
		if n.RespondedAt == nil {
			n.RespondedAt = &now
		}
		// a recorded response is final; a later responded update can only
		// fill in a field that is still empty
		if req.ResponseType != nil && n.ResponseType == nil {
			rt := models.ResponseType(*req.ResponseType)
			n.ResponseType = &rt
		}
		if req.ResponseMessage != nil && n.ResponseMessage == nil {
			msg := *req.ResponseMessage
			n.ResponseMessage = &msg
		}
	}
}

// ---------------- NGOs ----------------

func (s *matchingService) GetNGOStats(ctx context.Context, ngoID string) (*dto.NGOStats, error) {
	ngo, err := s.GetNGO(ctx, ngoID)
	if err != nil {
		return nil, err
	}

	engagement, err := s.notificationRepo.StatsForNGO(ctx, ngoID)
	if err != nil {
		return nil, apperrors.UpstreamUnavailable(err, upstreamStore)
	}

	return &dto.NGOStats{
		NGOID:               ngoID,
		TotalRequests:       engagement.TotalRequests,
		RespondedRequests:   engagement.RespondedRequests,
		CompletedRequests:   engagement.CompletedRequests,
		AverageResponseTime: engagement.AverageResponseTime,
		Rating:              ngo.Rating,
	}, nil
}

func (s *matchingService) ListNGOs(ctx context.Context, category string) ([]models.NGO, error) {
	ngos, err := s.catalog.LoadActive(ctx, category)
	if err != nil {
		return nil, apperrors.UpstreamUnavailable(err, upstreamCatalog)
	}
	if ngos == nil {
		ngos = []models.NGO{}
	}
	return ngos, nil
}

// GetNGO prefers the stored record, which also covers inactive NGOs, and
// falls back to the active catalog for non-database sources.
func (s *matchingService) GetNGO(ctx context.Context, ngoID string) (*models.NGO, error) {
	if s.ngoRepo != nil {
		ngo, err := s.ngoRepo.FindByID(ctx, ngoID)
		if err == nil {
			return ngo, nil
		}
		if !errors.Is(err, repositories.ErrNGONotFound) {
			return nil, apperrors.UpstreamUnavailable(err, upstreamStore)
		}
	}

	ngos, err := s.catalog.LoadActive(ctx, "")
	if err != nil {
		return nil, apperrors.UpstreamUnavailable(err, upstreamCatalog)
	}
	i := slices.IndexFunc(ngos, func(n models.NGO) bool { return n.ID == ngoID })
	if i < 0 {
		return nil, apperrors.ErrNGONotFound
	}
	return &ngos[i], nil
}

func validatePoint(p models.GeoPoint) error {
	if err := algorithms.ValidatePoint(p); err != nil {
		return apperrors.ErrInvalidLocation.WithDetails(map[string]string{
			"latitude":  strconv.FormatFloat(p.Latitude, 'f', -1, 64),
			"longitude": strconv.FormatFloat(p.Longitude, 'f', -1, 64),
		})
	}
	return nil
}
