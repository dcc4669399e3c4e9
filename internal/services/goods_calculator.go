package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

// GoodsCalculator applies spend-based factors: supplier category resolves to
// a kg-CO2e-per-currency-unit factor which scales the spend amount.
type goodsCalculator struct {
	log     *logger.Logger
	matcher FactorMatcher
}

func NewGoodsCalculator(baseLog *logger.Logger, matcher FactorMatcher) Calculator {
	calcLog := baseLog.With("service", "GoodsCalculator")
	return &goodsCalculator{log: calcLog, matcher: matcher}
}

func (c *goodsCalculator) ActivityType() string {
	return types.ActivityTypeGoodsServices
}

func (c *goodsCalculator) Calculate(ctx context.Context, tx *gorm.DB, activity types.Activity, threshold int) (*types.EmissionResult, error) {
	record, ok := activity.(*types.GoodsServicesActivity)
	if !ok {
		return nil, fmt.Errorf("%w: expected goods and services activity, got %T", ErrUnknownActivityType, activity)
	}

	match, err := c.matcher.Match(ctx, tx, types.ActivityTypeGoodsServices, record.SupplierCategory, threshold)
	if err != nil {
		return nil, err
	}

	tonnes := co2eTonnes(record.SpendAmount, match.Factor.CO2eFactor)
	c.log.Debug("Calculated goods and services emission",
		"activity_id", record.ID, "supplier_category", record.SupplierCategory,
		"spend_amount", record.SpendAmount.String(), "co2e_tonnes", tonnes.String())

	return newResult(record.Ref(), match, tonnes, map[string]any{
		"spend_amount":          record.SpendAmount.String(),
		"supplier_category":     record.SupplierCategory,
		"matched_category":      match.Factor.LookupIdentifier,
		"emission_factor_value": match.Factor.CO2eFactor.String(),
		"unit":                  match.Factor.Unit,
		"calculation_method":    calculationMethod(match),
	})
}
