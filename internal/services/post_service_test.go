package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngo_connect_backend/internal/catalog"
	"ngo_connect_backend/internal/repositories"
	"ngo_connect_backend/internal/services/dto"
	"ngo_connect_backend/pkg/apperrors"
)

func createPostRequest(category string, lat, lon float64) *dto.CreatePostRequest {
	return &dto.CreatePostRequest{
		UserID:      "user-1",
		Description: "Stray dog with an injured leg near the bus stop",
		Category:    category,
		Location: dto.LocationRequest{
			Latitude:  ptr(lat),
			Longitude: ptr(lon),
			City:      "Bangalore",
		},
	}
}

func TestXPForCategory(t *testing.T) {
	cases := map[string]int{
		"animal-health": 75,
		"environment":   60,
		"poverty":       65,
		"education":     55,
		"healthcare":    70,
		"children":      65,
		"women":         60,
		"elderly":       55,
		"other":         50,
	}
	for category, xp := range cases {
		assert.Equal(t, xp, XPForCategory(category), category)
	}
}

func TestCreatePost_NotifiesAndCountsResponses(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(catalog.BangaloreRoster()))
	ctx := context.Background()

	resp, err := f.posts.CreatePost(ctx, createPostRequest("animal-health", 12.9716, 77.5946))
	require.NoError(t, err)

	post := resp.Post
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "animal-health Issue", post.Title)
	assert.Equal(t, "posted", string(post.Status))
	assert.Equal(t, 75, post.XPEarned)
	assert.NotEmpty(t, resp.Notifications)
	assert.Equal(t, len(resp.Notifications), post.NGOResponses)
	for _, n := range resp.Notifications {
		assert.Equal(t, post.ID, n.PostID)
		assert.Contains(t, n.Message, `"animal-health Issue"`)
	}

	got, err := f.posts.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.NGOResponses, got.Post.NGOResponses)
	assert.Len(t, got.Notifications, len(resp.Notifications))
}

func TestCreatePost_KeepsReportWhenNotifyFails(t *testing.T) {
	f := newFixture(t, failingProvider{})
	ctx := context.Background()

	req := createPostRequest("environment", 12.9352, 77.6245)
	req.Title = "Garbage dumped in lake"
	resp, err := f.posts.CreatePost(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, resp.Notifications)
	assert.Equal(t, 0, resp.Post.NGOResponses)

	got, err := f.posts.GetPost(ctx, resp.Post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Garbage dumped in lake", got.Post.Title)
}

func TestCreatePost_RejectsInvalidLocation(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))

	_, err := f.posts.CreatePost(context.Background(), createPostRequest("environment", 12.9, 200))
	assert.ErrorIs(t, err, apperrors.ErrInvalidLocation)

	var count int64
	require.NoError(t, f.db.Table("posts").Count(&count).Error)
	assert.Zero(t, count)
}

func TestNotifyExistingPost(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))
	ctx := context.Background()

	resp, err := f.posts.CreatePost(ctx, createPostRequest("animal-health", 12.9716, 77.5946))
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)

	again, err := f.posts.NotifyExistingPost(ctx, resp.Post.ID)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.NotEqual(t, resp.Notifications[0].ID, again[0].ID)

	got, err := f.posts.GetPost(ctx, resp.Post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Post.NGOResponses)
	assert.Len(t, got.Notifications, 2)

	_, err = f.posts.NotifyExistingPost(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}

func TestNotifyExistingPost_ConcurrentDispatchesAllCount(t *testing.T) {
	f := newFixture(t, catalog.NewStaticProvider(abCatalog()))
	ctx := context.Background()

	resp, err := f.posts.CreatePost(ctx, createPostRequest("animal-health", 12.9716, 77.5946))
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)

	const dispatches = 8
	var wg sync.WaitGroup
	for i := 0; i < dispatches; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.posts.NotifyExistingPost(ctx, resp.Post.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.posts.GetPost(ctx, resp.Post.ID)
	require.NoError(t, err)
	assert.Len(t, got.Notifications, dispatches+1)
	assert.Equal(t, dispatches+1, got.Post.NGOResponses)
}

func TestPreferences_DefaultsAndPartialUpdate(t *testing.T) {
	svc := NewPreferenceService(repositories.NewPreferenceRepository(newTestDB(t)))
	ctx := context.Background()

	pref, err := svc.GetPreferences(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, &dto.PreferencesResponse{
		UserID:            "user-1",
		PushNotifications: true,
		Categories:        []string{},
		RadiusKm:          50,
	}, pref)

	pref, err = svc.UpdatePreferences(ctx, "user-1", &dto.UpdatePreferencesRequest{
		EmailNotifications: ptr(true),
		Categories:         []string{"environment"},
	})
	require.NoError(t, err)
	assert.True(t, pref.PushNotifications)
	assert.True(t, pref.EmailNotifications)
	assert.Equal(t, []string{"environment"}, pref.Categories)

	pref, err = svc.UpdatePreferences(ctx, "user-1", &dto.UpdatePreferencesRequest{RadiusKm: ptr(10.0)})
	require.NoError(t, err)
	assert.Equal(t, 10.0, pref.RadiusKm)
	assert.Equal(t, []string{"environment"}, pref.Categories)

	stored, err := svc.GetPreferences(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, pref, stored)

	_, err = svc.GetPreferences(ctx, "")
	assert.Error(t, err)
}
