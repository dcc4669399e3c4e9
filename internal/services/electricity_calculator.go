package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

// ElectricityCalculator matches on country and multiplies grid usage (kWh)
// by the country's grid intensity factor.
type electricityCalculator struct {
	log     *logger.Logger
	matcher FactorMatcher
}

func NewElectricityCalculator(baseLog *logger.Logger, matcher FactorMatcher) Calculator {
	calcLog := baseLog.With("service", "ElectricityCalculator")
	return &electricityCalculator{log: calcLog, matcher: matcher}
}

func (c *electricityCalculator) ActivityType() string {
	return types.ActivityTypeElectricity
}

func (c *electricityCalculator) Calculate(ctx context.Context, tx *gorm.DB, activity types.Activity, threshold int) (*types.EmissionResult, error) {
	record, ok := activity.(*types.ElectricityActivity)
	if !ok {
		return nil, fmt.Errorf("%w: expected electricity activity, got %T", ErrUnknownActivityType, activity)
	}

	match, err := c.matcher.Match(ctx, tx, types.ActivityTypeElectricity, record.Country, threshold)
	if err != nil {
		return nil, err
	}

	tonnes := co2eTonnes(record.UsageKWh, match.Factor.CO2eFactor)
	c.log.Debug("Calculated electricity emission",
		"activity_id", record.ID, "country", record.Country,
		"usage_kwh", record.UsageKWh.String(), "co2e_tonnes", tonnes.String())

	return newResult(record.Ref(), match, tonnes, map[string]any{
		"usage_kwh":             record.UsageKWh.String(),
		"country":               record.Country,
		"matched_country":       match.Factor.LookupIdentifier,
		"emission_factor_value": match.Factor.CO2eFactor.String(),
		"unit":                  match.Factor.Unit,
		"calculation_method":    calculationMethod(match),
	})
}
