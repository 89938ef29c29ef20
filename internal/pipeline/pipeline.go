// Package pipeline sequences the recommendation pipeline: regime
// classification (cached per underlying), strategy routing, risk sizing,
// and flight-manual rendering. It is the orchestrator boundary; callers
// inject all market and portfolio data.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/halpertlabs/flightdeck/internal/config"
	"github.com/halpertlabs/flightdeck/internal/manual"
	"github.com/halpertlabs/flightdeck/internal/models"
	"github.com/halpertlabs/flightdeck/internal/regime"
	"github.com/halpertlabs/flightdeck/internal/router"
	"github.com/halpertlabs/flightdeck/internal/sizer"
)

// ErrPipelineTimeout is returned when a caller-supplied deadline elapses
// during strategy enumeration. Partial state is discarded; the caller
// never sees a partial or inconsistent sizing.
var ErrPipelineTimeout = errors.New("pipeline deadline exceeded")

type strategyRouter interface {
	Route(ctx context.Context, r models.Regime, snap *models.MarketSnapshot, riskAppetite float64) ([]models.StrategyCandidate, error)
}

type positionSizer interface {
	Size(candidate models.StrategyCandidate, portfolio models.PortfolioState) models.SizingDecision
}

type manualRenderer interface {
	Explain(rc models.RegimeClassification, candidate models.StrategyCandidate, sizing models.SizingDecision) models.FlightManual
}

// Engine runs the full pipeline. Stateless per request except the regime
// cache; safe for concurrent use across symbols, and concurrent requests
// for the same symbol collapse to one regime computation.
type Engine struct {
	detector *regime.Detector
	cache    *regime.Cache
	router   strategyRouter
	sizer    positionSizer
	manual   manualRenderer
	logger   *logrus.Logger

	market     MarketDataProvider
	portfolios PortfolioProvider
}

// New returns an Engine wired from the policy config. A nil logger falls
// back to the standard logrus logger.
func New(cfg *config.Config, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Engine{
		detector: regime.NewDetector(logger),
		cache:    regime.NewCache(cfg.CacheTTL()),
		router:   router.New(cfg.Router, logger),
		sizer:    sizer.New(cfg, logger),
		manual:   manual.New(cfg.Manual),
		logger:   logger,
	}
}

// NewWithProviders returns an Engine that can also pull its inputs from
// collaborator providers via AnalyzeSymbol. Wrap the providers in the
// circuit-breaker or retry decorators if the collaborators are flaky.
func NewWithProviders(cfg *config.Config, market MarketDataProvider, portfolios PortfolioProvider, logger *logrus.Logger) *Engine {
	e := New(cfg, logger)
	e.market = market
	e.portfolios = portfolios
	return e
}

// Analyze runs one pipeline pass over caller-supplied data and returns the
// ranked recommendations. An empty result is success: it means nothing
// actionable survived routing and sizing. Zero-contract sizing decisions
// are dropped here, not surfaced as errors.
func (e *Engine) Analyze(ctx context.Context, snap *models.MarketSnapshot, portfolio models.PortfolioState) ([]models.Recommendation, error) {
	rc, err := e.cache.GetOrCompute(snap.Symbol, func() (models.RegimeClassification, error) {
		return e.detector.Classify(snap.Bars, snap.IVRank)
	})
	if err != nil {
		return nil, fmt.Errorf("classifying %s: %w", snap.Symbol, err)
	}

	candidates, err := e.router.Route(ctx, rc.Regime, snap, portfolio.RiskAppetite)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("routing %s: %w", snap.Symbol, ErrPipelineTimeout)
		}
		return nil, fmt.Errorf("routing %s: %w", snap.Symbol, err)
	}

	recommendations := make([]models.Recommendation, 0, len(candidates))
	for _, candidate := range candidates {
		sizing := e.sizer.Size(candidate, portfolio)
		if sizing.NoTrade() {
			e.logger.WithFields(logrus.Fields{
				"symbol":   snap.Symbol,
				"template": candidate.Template,
				"reason":   sizing.Reason,
			}).Info("candidate dropped: no trade recommended")
			continue
		}

		recommendations = append(recommendations, models.Recommendation{
			ID:        uuid.NewString(),
			Regime:    rc,
			Candidate: candidate,
			Sizing:    sizing,
			Manual:    e.manual.Explain(rc, candidate, sizing),
		})
	}

	e.logger.WithFields(logrus.Fields{
		"symbol":          snap.Symbol,
		"regime":          rc.Regime,
		"candidates":      len(candidates),
		"recommendations": len(recommendations),
	}).Info("analysis complete")
	return recommendations, nil
}

// AnalyzeSymbol fetches the snapshot and portfolio from the configured
// providers and runs Analyze. Requires an Engine built with
// NewWithProviders.
func (e *Engine) AnalyzeSymbol(ctx context.Context, symbol, account string) ([]models.Recommendation, error) {
	if e.market == nil || e.portfolios == nil {
		return nil, errors.New("pipeline: providers not configured")
	}

	snap, err := e.market.Snapshot(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot for %s: %w", symbol, err)
	}
	portfolio, err := e.portfolios.Portfolio(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("fetching portfolio %s: %w", account, err)
	}
	return e.Analyze(ctx, snap, portfolio)
}

// InvalidateRegime drops the cached classification for a symbol, forcing
// the next analysis to reclassify.
func (e *Engine) InvalidateRegime(symbol string) {
	e.cache.Invalidate(symbol)
}
