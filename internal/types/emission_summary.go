package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EmissionSummary is a pre-aggregated rollup over a date range and optional
// dimension filters. Rows are keyed by (from_date, to_date, scope, category,
// activity_type, summary_type) and only ever written by the aggregation
// engine.
type EmissionSummary struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	FromDate time.Time `gorm:"type:date;not null;index;index:idx_emission_summary_range,priority:1" json:"from_date"`
	ToDate   time.Time `gorm:"type:date;not null;index;index:idx_emission_summary_range,priority:2" json:"to_date"`

	// Dimension filters; nil means "all".
	Scope        *int    `gorm:"index" json:"scope,omitempty"`
	Category     *int    `gorm:"index" json:"category,omitempty"`
	ActivityType *string `gorm:"type:varchar(100);index" json:"activity_type,omitempty"`

	TotalCO2eTonnes decimal.Decimal `gorm:"type:decimal(15,7);not null;default:0" json:"total_co2e_tonnes"`
	ActivityCount   int64           `gorm:"not null;default:0" json:"activity_count"`

	SummaryType string `gorm:"type:varchar(50);not null;default:'daily';index" json:"summary_type"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (EmissionSummary) TableName() string { return "emission_summaries" }
