package pipeline

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/halpertlabs/flightdeck/internal/models"
)

// MarketDataProvider is the collaborator that supplies market snapshots.
// Implementations own all blocking I/O; the pipeline never fetches data
// itself.
type MarketDataProvider interface {
	Snapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error)
}

// PortfolioProvider is the collaborator that supplies the caller's account
// state. The pipeline never substitutes placeholder data when the provider
// fails; the error propagates.
type PortfolioProvider interface {
	Portfolio(ctx context.Context, account string) (models.PortfolioState, error)
}

// CircuitBreakerSettings tunes the provider circuit breakers.
type CircuitBreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// DefaultCircuitBreakerSettings returns conservative defaults: trip on a
// 60% failure rate over at least 5 requests, stay open for 30 seconds.
func DefaultCircuitBreakerSettings() CircuitBreakerSettings {
	return CircuitBreakerSettings{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

func newBreaker(name string, settings CircuitBreakerSettings, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
}

func execBreaker[T any](breaker *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	res, err := breaker.Execute(func() (interface{}, error) { return fn() })
	if err != nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.New("circuit breaker: type assertion failed")
	}
	return v, nil
}

// CircuitBreakerMarketData wraps a MarketDataProvider so a flapping feed
// fails fast instead of stalling every analysis request.
type CircuitBreakerMarketData struct {
	inner   MarketDataProvider
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreakerMarketData wraps inner with default breaker settings.
func NewCircuitBreakerMarketData(inner MarketDataProvider, logger *logrus.Logger) *CircuitBreakerMarketData {
	return NewCircuitBreakerMarketDataWithSettings(inner, DefaultCircuitBreakerSettings(), logger)
}

// NewCircuitBreakerMarketDataWithSettings wraps inner with custom settings.
func NewCircuitBreakerMarketDataWithSettings(inner MarketDataProvider, settings CircuitBreakerSettings, logger *logrus.Logger) *CircuitBreakerMarketData {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CircuitBreakerMarketData{
		inner:   inner,
		breaker: newBreaker("MarketDataProvider", settings, logger),
	}
}

// Snapshot implements MarketDataProvider.
func (c *CircuitBreakerMarketData) Snapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	return execBreaker(c.breaker, func() (*models.MarketSnapshot, error) {
		return c.inner.Snapshot(ctx, symbol)
	})
}

// CircuitBreakerPortfolio wraps a PortfolioProvider with the same breaker
// discipline as the market-data side.
type CircuitBreakerPortfolio struct {
	inner   PortfolioProvider
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreakerPortfolio wraps inner with default breaker settings.
func NewCircuitBreakerPortfolio(inner PortfolioProvider, logger *logrus.Logger) *CircuitBreakerPortfolio {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CircuitBreakerPortfolio{
		inner:   inner,
		breaker: newBreaker("PortfolioProvider", DefaultCircuitBreakerSettings(), logger),
	}
}

// Portfolio implements PortfolioProvider.
func (c *CircuitBreakerPortfolio) Portfolio(ctx context.Context, account string) (models.PortfolioState, error) {
	return execBreaker(c.breaker, func() (models.PortfolioState, error) {
		return c.inner.Portfolio(ctx, account)
	})
}

// RetryConfig tunes the retrying market-data decorator.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig retries three times with 1s initial backoff.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:     3,
	InitialBackoff: 1 * time.Second,
	MaxBackoff:     30 * time.Second,
}

// RetryMarketData wraps a MarketDataProvider with jittered exponential
// backoff. Context cancellation stops the retry loop immediately.
type RetryMarketData struct {
	inner  MarketDataProvider
	config RetryConfig
	logger *logrus.Logger
}

// NewRetryMarketData wraps inner; a zero config uses DefaultRetryConfig.
func NewRetryMarketData(inner MarketDataProvider, logger *logrus.Logger, config ...RetryConfig) *RetryMarketData {
	cfg := DefaultRetryConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RetryMarketData{inner: inner, config: cfg, logger: logger}
}

// Snapshot implements MarketDataProvider.
func (r *RetryMarketData) Snapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	var lastErr error
	backoff := r.config.InitialBackoff

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("snapshot canceled: %w", err)
		}

		snap, err := r.inner.Snapshot(ctx, symbol)
		if err == nil {
			return snap, nil
		}
		lastErr = err

		if attempt == r.config.MaxRetries {
			break
		}
		r.logger.WithFields(logrus.Fields{
			"symbol":  symbol,
			"attempt": attempt + 1,
			"backoff": backoff,
		}).Warn("snapshot fetch failed, retrying")

		select {
		case <-time.After(backoff):
			backoff = nextBackoff(backoff, r.config.MaxBackoff)
		case <-ctx.Done():
			return nil, fmt.Errorf("snapshot canceled during backoff: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("snapshot for %s failed after %d attempts: %w", symbol, r.config.MaxRetries+1, lastErr)
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := time.Duration(float64(current) * 1.5)
	if next > max {
		next = max
	}
	maxJitter := int64(next / 4)
	if maxJitter > 0 {
		if jitter, err := rand.Int(rand.Reader, big.NewInt(maxJitter)); err == nil {
			next += time.Duration(jitter.Int64())
		}
	}
	return next
}

var (
	_ MarketDataProvider = (*CircuitBreakerMarketData)(nil)
	_ MarketDataProvider = (*RetryMarketData)(nil)
	_ PortfolioProvider  = (*CircuitBreakerPortfolio)(nil)
)
