// Package service provides the insights service implementation
package service

import (
	"context"
	"time"

	"propwatch/internal/core/market"
	"propwatch/internal/core/trend"
	perr "propwatch/internal/platform/errors"
	"propwatch/internal/services/insights/domain"
	ledgerdom "propwatch/internal/services/ledger/domain"
)

// Config for the insights service
type Config struct {
	// DefaultWindowDays applies when a caller passes 0; defaults to 30
	DefaultWindowDays int
	// MaxWindowDays caps the ledger read; defaults to 365
	MaxWindowDays int
	// MinPoints and MinOverlap pass through to the analyzer
	MinPoints  int
	MinOverlap int
}

// Service implements domain.AnalyzerPort on top of the ledger query port
type Service struct {
	Ledger   ledgerdom.QueryPort
	Analyzer *trend.Analyzer
	Cfg      Config

	now func() time.Time
}

// New constructs the insights service
func New(ledger ledgerdom.QueryPort, cfg Config) *Service {
	if ledger == nil {
		panic("insights.Service requires a ledger QueryPort")
	}
	if cfg.DefaultWindowDays <= 0 {
		cfg.DefaultWindowDays = 30
	}
	if cfg.MaxWindowDays <= 0 {
		cfg.MaxWindowDays = 365
	}
	return &Service{
		Ledger:   ledger,
		Analyzer: trend.New(trend.Options{MinPoints: cfg.MinPoints, MinOverlap: cfg.MinOverlap}),
		Cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) window(windowDays int) (ledgerdom.Window, int) {
	days := windowDays
	if days <= 0 {
		days = s.Cfg.DefaultWindowDays
	}
	if days > s.Cfg.MaxWindowDays {
		days = s.Cfg.MaxWindowDays
	}
	until := s.now()
	return ledgerdom.Window{Since: until.AddDate(0, 0, -days), Until: until}, days
}

// LocationInsight implements domain.AnalyzerPort
func (s *Service) LocationInsight(
	ctx context.Context,
	slug string,
	windowDays int,
) (market.LocationInsight, error) {
	w, days := s.window(windowDays)
	points, err := s.Ledger.RangeByLocation(ctx, slug, w)
	if err != nil {
		return market.LocationInsight{}, err
	}
	insight := s.Analyzer.Analyze(points, days)
	insight.LocationSlug = slug
	return insight, nil
}

// Compare implements domain.AnalyzerPort
func (s *Service) Compare(
	ctx context.Context,
	slugA, slugB string,
	windowDays int,
) (market.CompareResult, error) {
	if slugA == slugB {
		return market.CompareResult{}, perr.InvalidArgf("compare needs two distinct locations")
	}
	a, err := s.LocationInsight(ctx, slugA, windowDays)
	if err != nil {
		return market.CompareResult{}, err
	}
	b, err := s.LocationInsight(ctx, slugB, windowDays)
	if err != nil {
		return market.CompareResult{}, err
	}
	return s.Analyzer.Compare(a, b)
}

// DailySeries implements domain.AnalyzerPort
func (s *Service) DailySeries(
	ctx context.Context,
	slug string,
	from, to time.Time,
) ([]domain.DailyPoint, error) {
	if !to.After(from) {
		return nil, perr.InvalidArgf("empty window")
	}
	buckets, err := s.Ledger.DailySeries(ctx, slug, ledgerdom.Window{Since: from, Until: to})
	if err != nil {
		return nil, err
	}
	out := make([]domain.DailyPoint, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, domain.DailyPoint{Day: b.Day, MeanPrice: b.MeanPrice, Points: b.Points})
	}
	return out, nil
}
