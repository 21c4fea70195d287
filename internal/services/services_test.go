package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ngo_connect_backend/database"
	"ngo_connect_backend/internal/algorithms"
	"ngo_connect_backend/internal/catalog"
	"ngo_connect_backend/internal/delivery"
	"ngo_connect_backend/internal/models"
	"ngo_connect_backend/internal/repositories"
	"ngo_connect_backend/internal/services/dto"
	"ngo_connect_backend/pkg/apperrors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type memoryQueue struct {
	mu        sync.Mutex
	envelopes []delivery.Envelope
	full      bool
}

func (q *memoryQueue) Enqueue(env delivery.Envelope) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.envelopes = append(q.envelopes, env)
	return true
}

type failingProvider struct{}

func (failingProvider) LoadActive(context.Context, string) ([]models.NGO, error) {
	return nil, catalog.ErrUnavailable
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	db        *gorm.DB
	matcher   MatchingService
	posts     PostService
	notifRepo repositories.NotificationRepository
	ngoRepo   repositories.NGORepository
	queue     *memoryQueue
	clock     *clock
}

func ngo(id string, lat, lon, rating float64, categories ...string) models.NGO {
	n := models.NGO{
		BaseModel: models.BaseModel{ID: id},
		Name:      "NGO " + id,
		Location:  models.LocationData{Latitude: lat, Longitude: lon},
		Contact:   models.NGOContact{Email: id + "@example.org"},
		Rating:    rating,
		Active:    true,
	}
	n.SetCategories(categories)
	return n
}

// abCatalog holds NGO A (environment, Koramangala) and NGO B (animal-health,
// MG Road).
func abCatalog() []models.NGO {
	return []models.NGO{
		ngo("a", 12.9352, 77.6245, 4.6, "environment"),
		ngo("b", 12.9716, 77.5946, 4.8, "animal-health"),
	}
}

func newFixture(t *testing.T, provider catalog.Provider) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:        db,
		notifRepo: repositories.NewNotificationRepository(db),
		ngoRepo:   repositories.NewNGORepository(db),
		queue:     &memoryQueue{},
		clock:     &clock{t: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
	}
	f.matcher = NewMatchingService(MatchingDeps{
		Catalog:          provider,
		NGORepo:          f.ngoRepo,
		NotificationRepo: f.notifRepo,
		Queue:            f.queue,
		Options:          algorithms.DefaultMatchOptions(),
		Now:              f.clock.Now,
	})
	f.posts = NewPostService(repositories.NewPostRepository(db), f.matcher)
	return f
}

func newPost(id, category string, lat, lon float64) *models.Post {
	return &models.Post{
		BaseModel: models.BaseModel{ID: id},
		Title:     "Injured dog",
		Category:  category,
		Location:  models.LocationData{Latitude: lat, Longitude: lon},
		Status:    models.PostStatusPosted,
	}
}

func ptr[T any](v T) *T { return &v }

// ---------------- NotifyNGOs ----------------

func TestNotifyNGOs_MatchesOnlyServingNGO(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))
	ctx := context.Background()

	notifications, err := f.matcher.NotifyNGOs(ctx, newPost("p1", "animal-health", 12.9716, 77.5946))
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	n := notifications[0]
	assert.Equal(t, "b", n.NGOID)
	assert.Equal(t, models.NotificationStatusSent, n.Status)
	assert.Contains(t, n.Message, "animal-health")
	assert.Equal(t, 1, n.Priority)

	stored, err := f.matcher.GetPostNotifications(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, n.ID, stored[0].ID)

	require.Len(t, f.queue.envelopes, 1)
	assert.Equal(t, "b@example.org", f.queue.envelopes[0].Contact.Email)
	assert.Equal(t, "animal-health", f.queue.envelopes[0].Category)
}

func TestNotifyNGOs_UnknownCategoryIsEmpty(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))

	notifications, err := f.matcher.NotifyNGOs(context.Background(), newPost("p1", "space-debris", 12.9716, 77.5946))
	require.NoError(t, err)
	assert.NotNil(t, notifications)
	assert.Empty(t, notifications)
	assert.Empty(t, f.queue.envelopes)
}

func TestNotifyNGOs_CountMatchesFilter(t *testing.T) {
	roster := catalog.BangaloreRoster()
	f := newFixture(t, catalog.NewStaticProvider(roster))
	origin := models.GeoPoint{Latitude: 12.95, Longitude: 77.60}

	for _, category := range []string{"animal-health", "environment", "education", "poverty", "none"} {
		post := newPost("post-"+category, category, origin.Latitude, origin.Longitude)
		notifications, err := f.matcher.NotifyNGOs(context.Background(), post)
		require.NoError(t, err)
		expected := algorithms.FilterCandidates(roster, origin, category, algorithms.DefaultRadiusKm)
		assert.Len(t, notifications, len(expected), category)
	}
}

func TestNotifyNGOs_RanksTieByRating(t *testing.T) {
	// both about 1 km from the origin, so rating decides
	near := ngo("near", 12.9716, 77.6040, 4.2, "education")
	far := ngo("far", 12.9716, 77.6050, 4.9, "education")
	f := newFixture(t, catalog.NewStaticProvider([]models.NGO{near, far}))

	notifications, err := f.matcher.NotifyNGOs(context.Background(), newPost("p1", "education", 12.9716, 77.5946))
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, "far", notifications[0].NGOID)
	assert.Equal(t, "near", notifications[1].NGOID)
}

func TestNotifyNGOs_InvalidLocation(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))

	_, err := f.matcher.NotifyNGOs(context.Background(), newPost("p1", "animal-health", 91, 0))
	assert.ErrorIs(t, err, apperrors.ErrInvalidLocation)
}

func TestNotifyNGOs_CatalogFailure(t *testing.T) {
	f := newFixture(t, failingProvider{})

	_, err := f.matcher.NotifyNGOs(context.Background(), newPost("p1", "animal-health", 12.97, 77.59))
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrUnavailable)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeUpstreamUnavailable, appErr.Code)
}

func TestNotifyNGOs_FullQueueStillPersists(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))
	f.queue.full = true

	notifications, err := f.matcher.NotifyNGOs(context.Background(), newPost("p1", "animal-health", 12.9716, 77.5946))
	require.NoError(t, err)
	assert.Len(t, notifications, 1)

	stored, err := f.matcher.GetPostNotifications(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

// ---------------- GetNearbyNGOs ----------------

func TestGetNearbyNGOs_RadiusOverride(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))
	origin := models.GeoPoint{Latitude: 12.9716, Longitude: 77.5946}

	// A is about 5 km away
	nearby, err := f.matcher.GetNearbyNGOs(context.Background(), origin, "environment", 2)
	require.NoError(t, err)
	assert.Empty(t, nearby)

	nearby, err = f.matcher.GetNearbyNGOs(context.Background(), origin, "environment", 0)
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	assert.Equal(t, "a", nearby[0].ID)
	assert.InDelta(t, 5.1, nearby[0].DistanceKm, 0.5)
	assert.Empty(t, f.queue.envelopes)
}

// ---------------- UpdateNotificationStatus ----------------

func notifyOne(t *testing.T, f *fixture) models.Notification {
	t.Helper()
	notifications, err := f.matcher.NotifyNGOs(context.Background(), newPost("p1", "animal-health", 12.9716, 77.5946))
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	return notifications[0]
}

func TestUpdateNotificationStatus_ForwardTransitions(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))
	ctx := context.Background()
	n := notifyOne(t, f)

	f.clock.Advance(time.Hour)
	read, err := f.matcher.UpdateNotificationStatus(ctx, n.ID, &dto.UpdateNotificationStatusRequest{
		Status:       "read",
		ResponseType: ptr("interested"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusRead, read.Status)
	require.NotNil(t, read.ReadAt)
	assert.Nil(t, read.ResponseType, "response fields only apply to responded")

	f.clock.Advance(time.Hour)
	responded, err := f.matcher.UpdateNotificationStatus(ctx, n.ID, &dto.UpdateNotificationStatusRequest{
		Status:          "responded",
		ResponseType:    ptr("completed"),
		ResponseMessage: ptr("On our way"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusResponded, responded.Status)
	require.NotNil(t, responded.ResponseType)
	assert.Equal(t, models.ResponseTypeCompleted, *responded.ResponseType)
	assert.Equal(t, "On our way", *responded.ResponseMessage)
	assert.True(t, responded.ReadAt.Before(*responded.RespondedAt))

	stored, err := f.notifRepo.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusResponded, stored.Status)
	assert.Equal(t, 3, stored.Version)
}

func TestUpdateNotificationStatus_RejectsBackwardMoves(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))
	ctx := context.Background()
	n := notifyOne(t, f)

	_, err := f.matcher.UpdateNotificationStatus(ctx, n.ID, &dto.UpdateNotificationStatusRequest{Status: "responded"})
	require.NoError(t, err)

	for _, status := range []string{"sent", "read"} {
		_, err := f.matcher.UpdateNotificationStatus(ctx, n.ID, &dto.UpdateNotificationStatusRequest{Status: status})
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, status)
	}

	// staying put is allowed
	_, err = f.matcher.UpdateNotificationStatus(ctx, n.ID, &dto.UpdateNotificationStatusRequest{
		Status:       "responded",
		ResponseType: ptr("not-interested"),
	})
	assert.NoError(t, err)
}

func TestUpdateNotificationStatus_FirstResponseIsKept(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))
	ctx := context.Background()
	n := notifyOne(t, f)

	first, err := f.matcher.UpdateNotificationStatus(ctx, n.ID, &dto.UpdateNotificationStatusRequest{
		Status:       "responded",
		ResponseType: ptr("interested"),
	})
	require.NoError(t, err)
	respondedAt := *first.RespondedAt

	f.clock.Advance(time.Hour)
	again, err := f.matcher.UpdateNotificationStatus(ctx, n.ID, &dto.UpdateNotificationStatusRequest{
		Status:          "responded",
		ResponseType:    ptr("not-interested"),
		ResponseMessage: ptr("Team is busy this week"),
	})
	require.NoError(t, err)
	require.NotNil(t, again.ResponseType)
	assert.Equal(t, models.ResponseTypeInterested, *again.ResponseType)
	require.NotNil(t, again.ResponseMessage, "an empty field can still be filled")
	assert.Equal(t, "Team is busy this week", *again.ResponseMessage)
	assert.True(t, respondedAt.Equal(*again.RespondedAt))

	stored, err := f.notifRepo.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseTypeInterested, *stored.ResponseType)
}

func TestUpdateNotificationStatus_Errors(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))
	ctx := context.Background()

	_, err := f.matcher.UpdateNotificationStatus(ctx, "missing", &dto.UpdateNotificationStatusRequest{Status: "read"})
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)

	_, err = f.matcher.UpdateNotificationStatus(ctx, "missing", &dto.UpdateNotificationStatusRequest{Status: "archived"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
}

func TestUpdateNotificationStatus_ConcurrentUpdatesStayMonotonic(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))
	ctx := context.Background()
	n := notifyOne(t, f)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		status := "read"
		if i%2 == 1 {
			status = "responded"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.matcher.UpdateNotificationStatus(ctx, n.ID, &dto.UpdateNotificationStatusRequest{Status: status})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
		}()
	}
	wg.Wait()

	stored, err := f.notifRepo.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusResponded, stored.Status)
	assert.Equal(t, succeeded+1, stored.Version)
}

// conflictingRepo loses every optimistic-lock race.
type conflictingRepo struct {
	repositories.NotificationRepository
	attempts int
}

func (r *conflictingRepo) UpdateStatus(context.Context, *models.Notification) error {
	r.attempts++
	return repositories.ErrStatusConflict
}

func TestUpdateNotificationStatus_ConflictRetriesAreBounded(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))
	n := notifyOne(t, f)

	repo := &conflictingRepo{NotificationRepository: f.notifRepo}
	matcher := NewMatchingService(MatchingDeps{
		Catalog:          catalog.NewStaticProvider(abCatalog()),
		NotificationRepo: repo,
	})

	_, err := matcher.UpdateNotificationStatus(context.Background(), n.ID, &dto.UpdateNotificationStatusRequest{Status: "read"})
	assert.ErrorIs(t, err, apperrors.ErrConcurrentUpdate)
	assert.Equal(t, maxStatusAttempts, repo.attempts)
}

// ---------------- NGOs ----------------

func TestGetNGOStats(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))
	ctx := context.Background()
	n := notifyOne(t, f)

	stats, err := f.matcher.GetNGOStats(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, &dto.NGOStats{NGOID: "b", TotalRequests: 1, Rating: 4.8}, stats)

	f.clock.Advance(2 * time.Hour)
	_, err = f.matcher.UpdateNotificationStatus(ctx, n.ID, &dto.UpdateNotificationStatusRequest{
		Status:       "responded",
		ResponseType: ptr("completed"),
	})
	require.NoError(t, err)

	stats, err = f.matcher.GetNGOStats(ctx, "b")
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.RespondedRequests)
	assert.EqualValues(t, 1, stats.CompletedRequests)
	assert.InDelta(t, 2.0, stats.AverageResponseTime, 0.001)
	assert.LessOrEqual(t, stats.CompletedRequests, stats.RespondedRequests)
	assert.LessOrEqual(t, stats.RespondedRequests, stats.TotalRequests)
}

func TestGetNGO_StoreThenCatalog(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))
	ctx := context.Background()

	stored := ngo("stored", 12.9, 77.6, 3.9, "poverty")
	stored.Active = false
	require.NoError(t, f.ngoRepo.Upsert(ctx, &stored))

	got, err := f.matcher.GetNGO(ctx, "stored")
	require.NoError(t, err)
	assert.False(t, got.Active)

	got, err = f.matcher.GetNGO(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "NGO a", got.Name)

	_, err = f.matcher.GetNGO(ctx, "zzz")
	assert.ErrorIs(t, err, apperrors.ErrNGONotFound)

	_, err = f.matcher.GetNGOStats(ctx, "zzz")
	assert.ErrorIs(t, err, apperrors.ErrNGONotFound)
}

func TestListNGOs(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(catalog.BangaloreRoster()))

	all, err := f.matcher.ListNGOs(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := f.matcher.ListNGOs(context.Background(), "space-debris")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestKeyedLock_ReleasesEntries(t *testing.T) {
	l := newKeyedLock()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("k")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Zero(t, l.size())
}
