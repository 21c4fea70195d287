package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngo_connect_backend/database"
	"ngo_connect_backend/internal/models"
	"ngo_connect_backend/internal/repositories"
)

type countingProvider struct {
	calls atomic.Int32
	ngos  []models.NGO
	err   error
}

func (p *countingProvider) LoadActive(_ context.Context, category string) ([]models.NGO, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return keepActive(p.ngos, category), nil
}

func TestBangaloreRoster(t *testing.T) {
	roster := BangaloreRoster()
	require.Len(t, roster, 5)
	for _, ngo := range roster {
		assert.True(t, ngo.Active)
		assert.True(t, ngo.Verified)
		assert.NotEmpty(t, ngo.GetCategories())
		assert.Equal(t, "India", ngo.Location.Country)
	}
}

func TestStaticProvider_FiltersInactiveAndCategory(t *testing.T) {
	roster := BangaloreRoster()
	roster[0].Active = false
	p := NewStaticProvider(roster)

	all, err := p.LoadActive(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	health, err := p.LoadActive(context.Background(), "healthcare")
	require.NoError(t, err)
	require.Len(t, health, 2)
	assert.Equal(t, "Women Empowerment Network", health[0].Name)

	animals, err := p.LoadActive(context.Background(), "animal-health")
	require.NoError(t, err)
	assert.Empty(t, animals)
}

func TestDatabaseProvider(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	repo := repositories.NewNGORepository(db)
	for _, ngo := range BangaloreRoster() {
		require.NoError(t, repo.Upsert(context.Background(), &ngo))
	}

	got, err := NewDatabaseProvider(repo).LoadActive(context.Background(), "education")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestHTTPProvider_DecodesAndFilters(t *testing.T) {
	roster := BangaloreRoster()
	roster[1].Active = false

	var gotCategory string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCategory = r.URL.Query().Get("category")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(roster)
	}))
	defer server.Close()

	p := NewHTTPProvider(HTTPConfig{URL: server.URL + "/ngos", Timeout: time.Second})
	got, err := p.LoadActive(context.Background(), "education")
	require.NoError(t, err)

	assert.Equal(t, "education", gotCategory)
	require.Len(t, got, 2)
	assert.Equal(t, "Hope for Children", got[0].Name)
	assert.Equal(t, []string{"children", "education", "poverty"}, got[0].GetCategories())
}

func TestHTTPProvider_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(BangaloreRoster())
	}))
	defer server.Close()

	p := NewHTTPProvider(HTTPConfig{URL: server.URL, Timeout: time.Second, RetryMaxElapsed: 5 * time.Second})
	got, err := p.LoadActive(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.EqualValues(t, 2, calls.Load())
}

func TestHTTPProvider_ClientErrorIsFinal(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := NewHTTPProvider(HTTPConfig{URL: server.URL, Timeout: time.Second})
	_, err := p.LoadActive(context.Background(), "environment")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.EqualValues(t, 1, calls.Load())
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedProvider_ServesFromCacheUntilExpiry(t *testing.T) {
	mr, client := newRedis(t)
	upstream := &countingProvider{ngos: BangaloreRoster()}
	p := NewCachedProvider(upstream, client, "test", time.Minute)
	ctx := context.Background()

	first, err := p.LoadActive(ctx, "environment")
	require.NoError(t, err)
	second, err := p.LoadActive(ctx, "environment")
	require.NoError(t, err)

	assert.EqualValues(t, 1, upstream.calls.Load())
	assert.Equal(t, len(first), len(second))
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, mr.Exists("test:catalog:environment"))

	_, err = p.LoadActive(ctx, "")
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:catalog:_all"))
	assert.EqualValues(t, 2, upstream.calls.Load())

	mr.FastForward(2 * time.Minute)
	_, err = p.LoadActive(ctx, "environment")
	require.NoError(t, err)
	assert.EqualValues(t, 3, upstream.calls.Load())
}

func TestCachedProvider_RedisDownFallsThrough(t *testing.T) {
	mr, client := newRedis(t)
	upstream := &countingProvider{ngos: BangaloreRoster()}
	p := NewCachedProvider(upstream, client, "test", time.Minute)
	mr.Close()

	got, err := p.LoadActive(context.Background(), "poverty")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCachedProvider_UpstreamErrorIsNotCached(t *testing.T) {
	mr, client := newRedis(t)
	upstream := &countingProvider{err: errors.New("boom")}
	p := NewCachedProvider(upstream, client, "test", time.Minute)

	_, err := p.LoadActive(context.Background(), "poverty")
	require.Error(t, err)
	assert.False(t, mr.Exists("test:catalog:poverty"))
}

func TestCachedProvider_Invalidate(t *testing.T) {
	mr, client := newRedis(t)
	upstream := &countingProvider{ngos: BangaloreRoster()}
	p := NewCachedProvider(upstream, client, "test", time.Minute)
	ctx := context.Background()

	_, _ = p.LoadActive(ctx, "poverty")
	_, _ = p.LoadActive(ctx, "women")
	require.NoError(t, mr.Set("unrelated", "1"))

	require.NoError(t, p.Invalidate(ctx))
	assert.False(t, mr.Exists("test:catalog:poverty"))
	assert.False(t, mr.Exists("test:catalog:women"))
	assert.True(t, mr.Exists("unrelated"))
}

func TestCachedProvider_RefreshRewritesEveryCachedRoster(t *testing.T) {
	mr, client := newRedis(t)
	upstream := &countingProvider{ngos: BangaloreRoster()}
	p := NewCachedProvider(upstream, client, "test", time.Hour)
	ctx := context.Background()

	_, err := p.LoadActive(ctx, "environment")
	require.NoError(t, err)
	_, err = p.LoadActive(ctx, "poverty")
	require.NoError(t, err)

	upstream.ngos = BangaloreRoster()[:1]
	refreshed, err := p.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, refreshed)
	assert.True(t, mr.Exists("test:catalog:_all"))

	env, err := p.LoadActive(ctx, "environment")
	require.NoError(t, err)
	require.Len(t, env, 1)
	assert.Equal(t, "ngo-1", env[0].ID)

	poverty, err := p.LoadActive(ctx, "poverty")
	require.NoError(t, err)
	assert.Empty(t, poverty)
	assert.EqualValues(t, 5, upstream.calls.Load())
}

func TestCachedProvider_RefreshKeepsEntriesWhenUpstreamFails(t *testing.T) {
	_, client := newRedis(t)
	upstream := &countingProvider{ngos: BangaloreRoster()}
	p := NewCachedProvider(upstream, client, "test", time.Hour)
	ctx := context.Background()

	before, err := p.LoadActive(ctx, "environment")
	require.NoError(t, err)

	upstream.err = errors.New("registry down")
	_, err = p.Refresh(ctx)
	require.Error(t, err)

	upstream.err = nil
	after, err := p.LoadActive(ctx, "environment")
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}
