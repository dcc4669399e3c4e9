package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ActivityRef is the tagged reference an EmissionResult carries to its
// originating activity. The type tag selects which variant table the ID
// points into; there is no cross-table foreign key.
type ActivityRef struct {
	Type string
	ID   uuid.UUID
}

// Activity is implemented by the three activity variants so the calculation
// layer can route on the type tag without reflection.
type Activity interface {
	Ref() ActivityRef
	ActivityDate() time.Time
}

// ElectricityActivity is purchased electricity consumption (Scope 2).
type ElectricityActivity struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	Date         time.Time `gorm:"type:date;not null;index" json:"date"`
	ActivityType string    `gorm:"type:varchar(100);not null" json:"activity_type"`

	Country  string          `gorm:"type:varchar(100);not null;index" json:"country"`
	UsageKWh decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"usage_kwh"`

	SourceFile *string        `gorm:"type:varchar(255)" json:"source_file,omitempty"`
	RawData    datatypes.JSON `gorm:"type:jsonb" json:"raw_data,omitempty"`

	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ElectricityActivity) TableName() string { return "electricity_activities" }

func (a *ElectricityActivity) Ref() ActivityRef {
	return ActivityRef{Type: ActivityTypeElectricity, ID: a.ID}
}

func (a *ElectricityActivity) ActivityDate() time.Time { return a.Date }

// AirTravelActivity is business air travel (Scope 3, Category 6). Either
// distance field may be absent; kilometres are backfilled from miles during
// calculation.
type AirTravelActivity struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	Date         time.Time `gorm:"type:date;not null;index" json:"date"`
	ActivityType string    `gorm:"type:varchar(100);not null" json:"activity_type"`

	DistanceMiles  decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"distance_miles,omitempty"`
	DistanceKm     decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"distance_km,omitempty"`
	FlightRange    string              `gorm:"type:varchar(50);not null" json:"flight_range"`
	PassengerClass string              `gorm:"type:varchar(50);not null" json:"passenger_class"`

	SourceFile *string        `gorm:"type:varchar(255)" json:"source_file,omitempty"`
	RawData    datatypes.JSON `gorm:"type:jsonb" json:"raw_data,omitempty"`

	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AirTravelActivity) TableName() string { return "air_travel_activities" }

func (a *AirTravelActivity) Ref() ActivityRef {
	return ActivityRef{Type: ActivityTypeAirTravel, ID: a.ID}
}

func (a *AirTravelActivity) ActivityDate() time.Time { return a.Date }

// GoodsServicesActivity is spend on purchased goods and services (Scope 3,
// Category 1), using the spend-based method.
type GoodsServicesActivity struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	Date         time.Time `gorm:"type:date;not null;index" json:"date"`
	ActivityType string    `gorm:"type:varchar(100);not null" json:"activity_type"`

	SupplierCategory string          `gorm:"type:varchar(200);not null;index" json:"supplier_category"`
	SpendAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"spend_amount"`
	Description      *string         `gorm:"type:text" json:"description,omitempty"`

	SourceFile *string        `gorm:"type:varchar(255)" json:"source_file,omitempty"`
	RawData    datatypes.JSON `gorm:"type:jsonb" json:"raw_data,omitempty"`

	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (GoodsServicesActivity) TableName() string { return "goods_services_activities" }

func (a *GoodsServicesActivity) Ref() ActivityRef {
	return ActivityRef{Type: ActivityTypeGoodsServices, ID: a.ID}
}

func (a *GoodsServicesActivity) ActivityDate() time.Time { return a.Date }
