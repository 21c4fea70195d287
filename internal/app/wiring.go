package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ngo_connect_backend/internal/catalog"
	"ngo_connect_backend/internal/config"
	"ngo_connect_backend/internal/delivery"
	"ngo_connect_backend/internal/email"
	"ngo_connect_backend/internal/logger"
	"ngo_connect_backend/internal/repositories"
)

// connectRedis returns nil when Redis is not configured or not reachable at
// startup; callers then run without the shared cache and limiter.
func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		logger.Info("Redis not configured, using in-process rate limiting and no catalog cache")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, continuing without it", "addr", cfg.Redis.Addr, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("Redis connected", "addr", cfg.Redis.Addr)
	return client
}

// buildCatalog returns the provider used for matching and, when Redis is
// available, the cache in front of it.
func buildCatalog(cfg *config.Config, ngoRepo repositories.NGORepository, redisClient *redis.Client) (catalog.Provider, *catalog.CachedProvider, error) {
	var provider catalog.Provider
	switch strings.ToLower(cfg.Catalog.Source) {
	case "static":
		provider = catalog.NewStaticProvider(catalog.BangaloreRoster())
	case "", "database":
		provider = catalog.NewDatabaseProvider(ngoRepo)
	case "http":
		if cfg.Catalog.HTTPURL == "" {
			return nil, nil, fmt.Errorf("catalog.http_url is required for the http catalog source")
		}
		provider = catalog.NewHTTPProvider(catalog.HTTPConfig{
			URL:             cfg.Catalog.HTTPURL,
			Timeout:         cfg.Catalog.HTTPTimeout,
			RetryMaxElapsed: 3 * cfg.Catalog.HTTPTimeout,
		})
	default:
		return nil, nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
	logger.Info("NGO catalog configured", "source", cfg.Catalog.Source)

	// the static roster is already in memory
	if redisClient == nil || strings.EqualFold(cfg.Catalog.Source, "static") {
		return provider, nil, nil
	}
	cached := catalog.NewCachedProvider(provider, redisClient, cfg.Redis.Prefix, cfg.Catalog.CacheTTL)
	return cached, cached, nil
}

// buildChannels constructs the configured delivery channels. Closers are
// returned even on error so the caller can release what was opened.
func buildChannels(cfg *config.Config) ([]delivery.Channel, []io.Closer, error) {
	var channels []delivery.Channel
	var closers []io.Closer

	for _, name := range cfg.Delivery.Channels {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "log":
			channels = append(channels, delivery.NewLogChannel())

		case "email":
			smtp := &email.SMTPConfig{
				Host:         cfg.Delivery.Email.SMTPHost,
				Port:         cfg.Delivery.Email.SMTPPort,
				Username:     cfg.Delivery.Email.SMTPUsername,
				Password:     cfg.Delivery.Email.SMTPPassword,
				FromEmail:    cfg.Delivery.Email.FromEmail,
				FromName:     cfg.Delivery.Email.FromName,
				TemplatesDir: cfg.Delivery.Email.TemplatesDir,
			}
			templates := email.NewTemplateManager()
			if smtp.TemplatesDir != "" {
				if err := templates.LoadTemplates(smtp.TemplatesDir); err != nil {
					return nil, closers, fmt.Errorf("load email templates: %w", err)
				}
			}
			provider, err := email.NewSMTPProvider(smtp, templates)
			if err != nil {
				return nil, closers, fmt.Errorf("email channel: %w", err)
			}
			channels = append(channels, delivery.NewEmailChannel(provider))

		case "sms":
			sms := cfg.Delivery.SMS
			if sms.AccountSID == "" || sms.AuthToken == "" || sms.From == "" {
				return nil, closers, fmt.Errorf("sms channel: account_sid, auth_token and from are required")
			}
			channels = append(channels, delivery.NewSMSChannel(sms.AccountSID, sms.AuthToken, sms.From))

		case "amqp":
			ch, err := delivery.DialAMQP(cfg.Delivery.AMQP.URL, cfg.Delivery.AMQP.Queue)
			if err != nil {
				return nil, closers, fmt.Errorf("amqp channel: %w", err)
			}
			channels = append(channels, ch)
			closers = append(closers, ch)

		case "kafka":
			if len(cfg.Delivery.Kafka.Brokers) == 0 {
				return nil, closers, fmt.Errorf("kafka channel: at least one broker is required")
			}
			ch := delivery.NewKafkaChannel(cfg.Delivery.Kafka.Brokers, cfg.Delivery.Kafka.Topic)
			channels = append(channels, ch)
			closers = append(closers, ch)

		default:
			return nil, closers, fmt.Errorf("unknown delivery channel %q", name)
		}
	}
	return channels, closers, nil
}

// seedCatalog inserts the demo roster into an empty NGO table.
func seedCatalog(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		repo := repositories.NewNGORepository(tx)
		ctx := context.Background()

		count, err := repo.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count NGOs: %w", err)
		}
		if count > 0 {
			logger.Info("NGO catalog already populated. Skipping seed.", "ngos", count)
			return nil
		}

		roster := catalog.BangaloreRoster()
		for i := range roster {
			if err := repo.Upsert(ctx, &roster[i]); err != nil {
				return fmt.Errorf("failed to seed NGO %s: %w", roster[i].ID, err)
			}
		}
		logger.Info("Seeded NGO catalog", "ngos", len(roster))
		return nil
	})
}
