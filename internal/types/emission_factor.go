package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EmissionFactor maps an activity type and lookup identifier to a published
// CO2e coefficient (kgCO2e per unit). Reference data, never deleted while a
// result references it.
type EmissionFactor struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	ActivityType     string `gorm:"type:varchar(100);not null;index;index:idx_emission_factor_type_lookup,priority:1" json:"activity_type"`
	LookupIdentifier string `gorm:"type:varchar(200);not null;index:idx_emission_factor_type_lookup,priority:2" json:"lookup_identifier"`

	Unit       string          `gorm:"type:varchar(50);not null" json:"unit"`
	CO2eFactor decimal.Decimal `gorm:"type:decimal(10,6);not null" json:"co2e_factor"`

	Scope    int  `gorm:"not null;index" json:"scope"`
	Category *int `gorm:"index" json:"category,omitempty"`

	Source string `gorm:"type:varchar(200)" json:"source,omitempty"`
	Notes  string `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (EmissionFactor) TableName() string { return "emission_factors" }
