package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"ngo_connect_backend/internal/logger"
)

const (
	OutcomeSent        = "sent"
	OutcomeSkipped     = "skipped"
	OutcomeBreakerOpen = "breaker_open"
	OutcomeFailed      = "failed"
)

type DispatcherConfig struct {
	InitialInterval time.Duration
	MaxElapsed      time.Duration
	// BreakerMaxFailures consecutive failures open a channel's breaker for
	// BreakerTimeout.
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		InitialInterval:    200 * time.Millisecond,
		MaxElapsed:         10 * time.Second,
		BreakerMaxFailures: 5,
		BreakerTimeout:     30 * time.Second,
	}
}

// Dispatcher fans an envelope out to every channel, retrying each one with
// exponential backoff behind its own circuit breaker.
type Dispatcher struct {
	channels []Channel
	breakers map[string]*gobreaker.CircuitBreaker
	conf     DispatcherConfig
	observer Observer
}

func NewDispatcher(channels []Channel, conf DispatcherConfig, observer Observer) *Dispatcher {
	def := DefaultDispatcherConfig()
	if conf.InitialInterval <= 0 {
		conf.InitialInterval = def.InitialInterval
	}
	if conf.MaxElapsed <= 0 {
		conf.MaxElapsed = def.MaxElapsed
	}
	if conf.BreakerMaxFailures == 0 {
		conf.BreakerMaxFailures = def.BreakerMaxFailures
	}
	if conf.BreakerTimeout <= 0 {
		conf.BreakerTimeout = def.BreakerTimeout
	}

	d := &Dispatcher{
		channels: channels,
		breakers: make(map[string]*gobreaker.CircuitBreaker, len(channels)),
		conf:     conf,
		observer: observer,
	}
	for _, ch := range channels {
		d.breakers[ch.Name()] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        ch.Name(),
			MaxRequests: 1,
			Timeout:     conf.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= conf.BreakerMaxFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNoRecipient)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("delivery circuit breaker state changed", "channel", name, "from", from.String(), "to", to.String())
			},
		})
	}
	return d
}

// Channels lists channel names in fan-out order.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Deliver sends env on every channel. A failing channel does not stop the
// others; the joined error names each channel that failed.
func (d *Dispatcher) Deliver(ctx context.Context, env Envelope) error {
	var errs []error
	for _, ch := range d.channels {
		if err := d.deliverOne(ctx, ch, env); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) deliverOne(ctx context.Context, ch Channel, env Envelope) error {
	cb := d.breakers[ch.Name()]

	operation := func() error {
		_, err := cb.Execute(func() (interface{}, error) {
			return nil, ch.Send(ctx, env)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNoRecipient) ||
			errors.Is(err, gobreaker.ErrOpenState) ||
			errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.conf.InitialInterval
	b.MaxElapsedTime = d.conf.MaxElapsed
	notify := func(err error, wait time.Duration) {
		logger.CtxWarn(ctx, "delivery attempt failed, retrying",
			"channel", ch.Name(),
			"notification_id", env.Notification.ID,
			"error", err,
			"wait", wait,
		)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify)

	outcome := OutcomeSent
	switch {
	case err == nil:
	case errors.Is(err, ErrNoRecipient):
		outcome = OutcomeSkipped
		err = nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = OutcomeBreakerOpen
	default:
		outcome = OutcomeFailed
	}
	if d.observer != nil {
		d.observer.DeliveryAttempt(ch.Name(), outcome)
	}
	if err != nil {
		logger.CtxError(ctx, "delivery failed",
			"channel", ch.Name(),
			"notification_id", env.Notification.ID,
			"ngo_id", env.Notification.NGOID,
			"outcome", outcome,
			"error", err,
		)
	}
	return err
}
