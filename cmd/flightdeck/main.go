package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/halpertlabs/flightdeck/internal/config"
	"github.com/halpertlabs/flightdeck/internal/models"
	"github.com/halpertlabs/flightdeck/internal/pipeline"
)

func main() {
	var (
		configPath    string
		snapshotPath  string
		portfolioPath string
		timeout       time.Duration
		asJSON        bool
	)
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&snapshotPath, "snapshot", "", "Path to a market snapshot JSON file")
	flag.StringVar(&portfolioPath, "portfolio", "", "Path to a portfolio state JSON file")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Analysis deadline")
	flag.BoolVar(&asJSON, "json", false, "Emit recommendations as JSON instead of text")
	flag.Parse()

	if snapshotPath == "" || portfolioPath == "" {
		fmt.Fprintln(os.Stderr, "both -snapshot and -portfolio are required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Environment.LogLevel)

	snap, err := readSnapshot(snapshotPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to read snapshot")
	}
	portfolio, err := readPortfolio(portfolioPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to read portfolio")
	}

	logger.WithFields(logrus.Fields{
		"symbol": snap.Symbol,
		"bars":   len(snap.Bars),
		"quotes": len(snap.Chain),
	}).Info("analyzing snapshot")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	engine := pipeline.New(cfg, logger)
	recs, err := engine.Analyze(ctx, snap, portfolio)
	if err != nil {
		logger.WithError(err).Fatal("analysis failed")
	}

	if len(recs) == 0 {
		logger.Info("no actionable recommendations for this snapshot")
		return
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(recs); err != nil {
			logger.WithError(err).Fatal("failed to encode recommendations")
		}
		return
	}

	for i, rec := range recs {
		printManual(os.Stdout, i+1, rec)
	}
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}

func readSnapshot(path string) (*models.MarketSnapshot, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided fixture path
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	var snap models.MarketSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &snap, nil
}

func readPortfolio(path string) (models.PortfolioState, error) {
	var portfolio models.PortfolioState
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided fixture path
	if err != nil {
		return portfolio, fmt.Errorf("reading portfolio file: %w", err)
	}
	if err := json.Unmarshal(data, &portfolio); err != nil {
		return portfolio, fmt.Errorf("parsing portfolio: %w", err)
	}
	return portfolio, nil
}

func printManual(w *os.File, rank int, rec models.Recommendation) {
	m := rec.Manual
	rule := strings.Repeat("=", 72)

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "#%d  %s\n", rank, m.Headline)
	fmt.Fprintf(w, "Regime: %s (confidence %.0f%%)\n",
		rec.Regime.Regime, rec.Regime.Confidence*100)
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w, "\nThesis")
	fmt.Fprintf(w, "  %s\n", m.Thesis)

	fmt.Fprintln(w, "\nSetup")
	for _, step := range m.Setup {
		fmt.Fprintf(w, "  %s\n", step)
	}

	fmt.Fprintln(w, "\nRisk / Reward")
	fmt.Fprintf(w, "  %s\n", m.RiskBlock)

	fmt.Fprintln(w, "\nTiming")
	for _, entry := range m.Timing {
		fmt.Fprintf(w, "  %s\n", entry)
	}

	fmt.Fprintln(w, "\nContingency")
	fmt.Fprintf(w, "  %s\n", m.Contingency)
	fmt.Fprintln(w)
}
