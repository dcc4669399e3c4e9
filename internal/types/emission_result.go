package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// EmissionResult is a calculated emission for one activity. The unique index
// on (activity_type, activity_id) keeps at most one live result per activity
// even when two calculations race past the duplicate check.
type EmissionResult struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	ActivityType string    `gorm:"type:varchar(100);not null;index:idx_emission_result_activity,unique,priority:1" json:"activity_type"`
	ActivityID   uuid.UUID `gorm:"type:uuid;not null;index:idx_emission_result_activity,unique,priority:2" json:"activity_id"`

	EmissionFactorID uuid.UUID       `gorm:"type:uuid;not null;index" json:"emission_factor_id"`
	EmissionFactor   *EmissionFactor `gorm:"foreignKey:EmissionFactorID;constraint:OnDelete:RESTRICT" json:"emission_factor,omitempty"`

	// Seven fractional digits: factor precision (6) plus margin for the
	// kg-to-tonnes scaling.
	CO2eTonnes      decimal.Decimal `gorm:"type:decimal(15,7);not null" json:"co2e_tonnes"`
	ConfidenceScore decimal.Decimal `gorm:"type:decimal(3,2);not null" json:"confidence_score"`

	CalculationMetadata datatypes.JSON `gorm:"type:jsonb" json:"calculation_metadata,omitempty"`
	CalculationDate     time.Time      `gorm:"type:date;not null;index" json:"calculation_date"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (EmissionResult) TableName() string { return "emission_results" }

// CO2eKg returns the calculated emissions in kilograms.
func (r *EmissionResult) CO2eKg() decimal.Decimal {
	return r.CO2eTonnes.Mul(decimal.NewFromInt(1000))
}
