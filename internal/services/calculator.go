package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/types"
)

// co2eScale is the stored precision of co2e_tonnes.
const co2eScale = 7

const (
	calcMethodExact = "exact"
	calcMethodFuzzy = "fuzzy"
)

// Calculator converts one activity record into an unsaved emission result.
// Results are returned unsaved so the caller controls transaction boundaries
// and batch commit semantics. ErrNotCalculable means the record lacks the
// inputs the calculation needs, ErrNoMatch means no factor could be resolved.
type Calculator interface {
	ActivityType() string
	Calculate(ctx context.Context, tx *gorm.DB, activity types.Activity, threshold int) (*types.EmissionResult, error)
}

// co2eTonnes applies the shared formula: quantity times factor (kg CO2e per
// unit), converted from kg to tonnes.
func co2eTonnes(quantity, factor decimal.Decimal) decimal.Decimal {
	return quantity.Mul(factor).Div(tonnesToKg).Round(co2eScale)
}

func calculationMethod(match *MatchResult) string {
	if match.Exact() {
		return calcMethodExact
	}
	return calcMethodFuzzy
}

func marshalMetadata(meta map[string]any) (datatypes.JSON, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal calculation metadata: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func newResult(ref types.ActivityRef, match *MatchResult, tonnes decimal.Decimal, meta map[string]any) (*types.EmissionResult, error) {
	metadata, err := marshalMetadata(meta)
	if err != nil {
		return nil, err
	}
	return &types.EmissionResult{
		ID:                  uuid.New(),
		ActivityType:        ref.Type,
		ActivityID:          ref.ID,
		EmissionFactorID:    match.Factor.ID,
		CO2eTonnes:          tonnes,
		ConfidenceScore:     match.Confidence.Round(2),
		CalculationMetadata: metadata,
		// calculation_date is a date column; keep the stored value a plain
		// date on every driver so range filters compare cleanly.
		CalculationDate: dateOnly(time.Now().UTC()),
	}, nil
}
