package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ngo_connect_backend/database"
	"ngo_connect_backend/internal/app"
	"ngo_connect_backend/internal/config"
)

// TestServer is the full application on an in-memory sqlite database with
// the log delivery channel and the dispatch workers running.
type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB
	App    *app.App

	stop    context.CancelFunc
	stopped chan struct{}
}

// NewTestServer builds a server; configure may adjust the config first.
func NewTestServer(t *testing.T, configure ...func(*config.Config)) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Server.Env = "test"
	cfg.Database.Driver = database.DriverSQLite
	cfg.Database.DSN = ":memory:"
	cfg.Catalog.Source = "database"
	cfg.RateLimit.Requests = 10000
	for _, fn := range configure {
		fn(cfg)
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	require.NoError(t, err, "open test database")
	require.NoError(t, database.AutoMigrate(db), "migrate test database")

	application, err := app.New(cfg, db)
	require.NoError(t, err, "build application")

	ctx, cancel := context.WithCancel(context.Background())
	ts := &TestServer{
		Server:  httptest.NewServer(application.Router),
		DB:      db,
		App:     application,
		stop:    cancel,
		stopped: make(chan struct{}),
	}
	go func() {
		defer close(ts.stopped)
		_ = application.DispatchWorker().Start(ctx)
	}()

	t.Cleanup(ts.Close)
	return ts
}

func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.stop()
	<-ts.stopped
	ts.App.Close()
}

// SendRequest sends body as JSON and returns the response with its body.
func (ts *TestServer) SendRequest(t *testing.T, method, path string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "encode request body")
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ts.Server.Client().Do(req)
	require.NoError(t, err, "send request")
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	require.NoError(t, err, "read response body")
	return res, string(resBody)
}

// DecodeJSON unmarshals body into a new T.
func DecodeJSON[T any](t *testing.T, body string) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal([]byte(body), &out), body)
	return out
}
