package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/repos"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

// TravelCalculator matches on the flight range and passenger class pair and
// multiplies the travelled distance (km) by the per-km factor. Records that
// only carry a miles figure get their km column backfilled so later sweeps
// skip the conversion.
type travelCalculator struct {
	log        *logger.Logger
	matcher    FactorMatcher
	travelRepo repos.AirTravelActivityRepo
}

func NewTravelCalculator(baseLog *logger.Logger, matcher FactorMatcher, travelRepo repos.AirTravelActivityRepo) Calculator {
	calcLog := baseLog.With("service", "TravelCalculator")
	return &travelCalculator{log: calcLog, matcher: matcher, travelRepo: travelRepo}
}

func (c *travelCalculator) ActivityType() string {
	return types.ActivityTypeAirTravel
}

func (c *travelCalculator) Calculate(ctx context.Context, tx *gorm.DB, activity types.Activity, threshold int) (*types.EmissionResult, error) {
	record, ok := activity.(*types.AirTravelActivity)
	if !ok {
		return nil, fmt.Errorf("%w: expected air travel activity, got %T", ErrUnknownActivityType, activity)
	}

	distanceKm, backfilled, err := c.resolveDistance(record)
	if err != nil {
		return nil, err
	}
	if backfilled {
		if err := c.travelRepo.UpdateDistanceKm(ctx, tx, record.ID, distanceKm); err != nil {
			return nil, fmt.Errorf("backfill distance_km: %w", err)
		}
		record.DistanceKm = decimal.NullDecimal{Decimal: distanceKm, Valid: true}
	}

	match, err := c.matcher.MatchAirTravel(ctx, tx, record.FlightRange, record.PassengerClass, threshold)
	if err != nil {
		return nil, err
	}

	tonnes := co2eTonnes(distanceKm, match.Factor.CO2eFactor)
	c.log.Debug("Calculated air travel emission",
		"activity_id", record.ID, "flight_range", record.FlightRange,
		"distance_km", distanceKm.String(), "co2e_tonnes", tonnes.String())

	return newResult(record.Ref(), match, tonnes, map[string]any{
		"distance_km":           distanceKm.String(),
		"distance_backfilled":   backfilled,
		"flight_range":          record.FlightRange,
		"passenger_class":       record.PassengerClass,
		"matched_identifier":    match.Factor.LookupIdentifier,
		"emission_factor_value": match.Factor.CO2eFactor.String(),
		"unit":                  match.Factor.Unit,
		"calculation_method":    calculationMethod(match),
	})
}

// resolveDistance prefers the km column, converts from miles when only miles
// is present, and reports ErrNotCalculable when neither figure exists. A
// zero distance is valid and produces a zero-emission result.
func (c *travelCalculator) resolveDistance(record *types.AirTravelActivity) (decimal.Decimal, bool, error) {
	if record.DistanceKm.Valid {
		return record.DistanceKm.Decimal, false, nil
	}
	if record.DistanceMiles.Valid {
		return MilesToKm(record.DistanceMiles.Decimal), true, nil
	}
	return decimal.Zero, false, fmt.Errorf("%w: air travel activity %s has no distance", ErrNotCalculable, record.ID)
}
