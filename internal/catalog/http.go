package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"ngo_connect_backend/internal/logger"
	"ngo_connect_backend/internal/models"
)

type HTTPConfig struct {
	URL             string
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
}

// HTTPProvider fetches the roster from an external registry that answers
// GET <url>?category=<tag> with a JSON array of NGOs.
type HTTPProvider struct {
	client *http.Client
	conf   HTTPConfig
}

func NewHTTPProvider(conf HTTPConfig) *HTTPProvider {
	if conf.Timeout <= 0 {
		conf.Timeout = 5 * time.Second
	}
	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	return &HTTPProvider{
		client: &http.Client{Transport: tr, Timeout: conf.Timeout},
		conf:   conf,
	}
}

func (p *HTTPProvider) LoadActive(ctx context.Context, category string) ([]models.NGO, error) {
	endpoint, err := url.Parse(p.conf.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad registry url: %w", ErrUnavailable, err)
	}
	if category != "" {
		q := endpoint.Query()
		q.Set("category", category)
		endpoint.RawQuery = q.Encode()
	}

	var ngos []models.NGO
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		// 5xx is worth another try, anything else non-2xx is final
		if resp.StatusCode >= 500 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("registry status %d", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("registry status %d", resp.StatusCode))
		}

		ngos = nil
		if err := json.NewDecoder(resp.Body).Decode(&ngos); err != nil {
			return backoff.Permanent(fmt.Errorf("decode registry response: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = p.conf.RetryMaxElapsed
	if b.MaxElapsedTime <= 0 {
		b.MaxElapsedTime = 2 * time.Second
	}
	notify := func(err error, wait time.Duration) {
		logger.CtxWarn(ctx, "ngo registry request failed, retrying", "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	// the registry may ignore the filter or list inactive entries
	return keepActive(ngos, category), nil
}
