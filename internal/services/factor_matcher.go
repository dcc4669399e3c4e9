package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/repos"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

// DefaultFuzzyThreshold is the minimum token-sort similarity (0-100) a fuzzy
// candidate needs to be accepted.
const DefaultFuzzyThreshold = 80

var (
	confidenceExact   = decimal.NewFromInt(1)
	confidencePartial = decimal.RequireFromString("0.9")
)

// MatchResult pairs a matched factor with the matcher's confidence (0..1).
type MatchResult struct {
	Factor     *types.EmissionFactor
	Confidence decimal.Decimal
}

// Exact returns true when the match came from the exact tier.
func (m *MatchResult) Exact() bool {
	return m.Confidence.Equal(confidenceExact)
}

// FactorMatcher resolves an activity's lookup key to an emission factor:
// exact match first, fuzzy token-sort fallback second. Absence of a match is
// reported as ErrNoMatch, never as a panic or a synthetic factor.
type FactorMatcher interface {
	Match(ctx context.Context, tx *gorm.DB, activityType, lookupKey string, threshold int) (*MatchResult, error)
	MatchAirTravel(ctx context.Context, tx *gorm.DB, flightRange, passengerClass string, threshold int) (*MatchResult, error)
}

type factorMatcher struct {
	log        *logger.Logger
	factorRepo repos.EmissionFactorRepo
}

func NewFactorMatcher(baseLog *logger.Logger, factorRepo repos.EmissionFactorRepo) FactorMatcher {
	matcherLog := baseLog.With("service", "FactorMatcher")
	return &factorMatcher{log: matcherLog, factorRepo: factorRepo}
}

func (m *factorMatcher) Match(ctx context.Context, tx *gorm.DB, activityType, lookupKey string, threshold int) (*MatchResult, error) {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}

	factor, err := m.exactMatch(ctx, tx, activityType, lookupKey)
	if err != nil {
		return nil, err
	}
	if factor != nil {
		m.log.Debug("Exact factor match", "activity_type", activityType, "lookup_key", lookupKey)
		return &MatchResult{Factor: factor, Confidence: confidenceExact}, nil
	}

	m.log.Debug("No exact match, trying fuzzy match", "activity_type", activityType, "lookup_key", lookupKey)
	return m.fuzzyMatch(ctx, tx, activityType, lookupKey, threshold)
}

func (m *factorMatcher) exactMatch(ctx context.Context, tx *gorm.DB, activityType, lookupKey string) (*types.EmissionFactor, error) {
	factors, err := m.factorRepo.SearchByIdentifier(ctx, tx, lookupKey, activityType)
	if err != nil {
		return nil, fmt.Errorf("search factors: %w", err)
	}
	for _, factor := range factors {
		if strings.EqualFold(factor.LookupIdentifier, lookupKey) {
			return factor, nil
		}
	}
	return nil, nil
}

func (m *factorMatcher) fuzzyMatch(ctx context.Context, tx *gorm.DB, activityType, lookupKey string, threshold int) (*MatchResult, error) {
	factors, err := m.factorRepo.GetByActivityType(ctx, tx, activityType)
	if err != nil {
		return nil, fmt.Errorf("load factors: %w", err)
	}
	if len(factors) == 0 {
		m.log.Warn("No emission factors for activity type", "activity_type", activityType)
		return nil, ErrNoMatch
	}

	// Factors arrive ordered by lookup_identifier; keeping only strictly
	// better scores makes ties resolve to the lexicographically smallest
	// identifier.
	var best *types.EmissionFactor
	bestScore := -1
	for _, factor := range factors {
		score := fuzzy.TokenSortRatio(lookupKey, factor.LookupIdentifier)
		if score > bestScore {
			bestScore = score
			best = factor
		}
	}

	if bestScore < threshold {
		m.log.Info("Fuzzy match below threshold",
			"activity_type", activityType, "lookup_key", lookupKey,
			"best_score", bestScore, "threshold", threshold)
		return nil, ErrNoMatch
	}

	confidence := decimal.NewFromInt(int64(bestScore)).Div(decimal.NewFromInt(100))
	m.log.Info("Fuzzy matched lookup key",
		"activity_type", activityType, "lookup_key", lookupKey,
		"matched_identifier", best.LookupIdentifier, "score", bestScore)
	return &MatchResult{Factor: best, Confidence: confidence}, nil
}

// MatchAirTravel matches on the composite "{flight range}, {passenger class}"
// key, then falls back to a lower-confidence substring containment pass over
// the air-travel factors.
func (m *factorMatcher) MatchAirTravel(ctx context.Context, tx *gorm.DB, flightRange, passengerClass string, threshold int) (*MatchResult, error) {
	passengerClass = strings.TrimSpace(passengerClass)
	lookupKey := fmt.Sprintf("%s, %s", flightRange, passengerClass)

	result, err := m.Match(ctx, tx, types.ActivityTypeAirTravel, lookupKey, threshold)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, ErrNoMatch) {
		return nil, err
	}

	factors, err := m.factorRepo.GetByActivityType(ctx, tx, types.ActivityTypeAirTravel)
	if err != nil {
		return nil, fmt.Errorf("load air travel factors: %w", err)
	}
	rangeLower := strings.ToLower(flightRange)
	classLower := strings.ToLower(passengerClass)
	for _, factor := range factors {
		identifier := strings.ToLower(factor.LookupIdentifier)
		if strings.Contains(identifier, rangeLower) && strings.Contains(identifier, classLower) {
			m.log.Info("Partial air travel match",
				"matched_identifier", factor.LookupIdentifier,
				"flight_range", flightRange, "passenger_class", passengerClass)
			return &MatchResult{Factor: factor, Confidence: confidencePartial}, nil
		}
	}

	m.log.Warn("No air travel factor match", "flight_range", flightRange, "passenger_class", passengerClass)
	return nil, ErrNoMatch
}
