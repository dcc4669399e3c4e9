package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/repos"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

// ElectricityActivityInput is one grid-electricity usage record to ingest.
type ElectricityActivityInput struct {
	Date       time.Time
	Country    string
	UsageKWh   decimal.Decimal
	SourceFile *string
	RawData    map[string]any
}

// AirTravelActivityInput is one flight record to ingest. At least one of the
// distance fields must be present.
type AirTravelActivityInput struct {
	Date           time.Time
	DistanceMiles  *decimal.Decimal
	DistanceKm     *decimal.Decimal
	FlightRange    string
	PassengerClass string
	SourceFile     *string
	RawData        map[string]any
}

// GoodsServicesActivityInput is one procurement spend record to ingest.
type GoodsServicesActivityInput struct {
	Date             time.Time
	SupplierCategory string
	SpendAmount      decimal.Decimal
	Description      *string
	SourceFile       *string
	RawData          map[string]any
}

// ActivityService ingests, reads and retires activity records. Deleting an
// activity also drops its emission result so sweeps and aggregations never
// see emissions for retired records.
type ActivityService interface {
	CreateElectricity(ctx context.Context, inputs []ElectricityActivityInput) ([]*types.ElectricityActivity, error)
	CreateAirTravel(ctx context.Context, inputs []AirTravelActivityInput) ([]*types.AirTravelActivity, error)
	CreateGoodsServices(ctx context.Context, inputs []GoodsServicesActivityInput) ([]*types.GoodsServicesActivity, error)
	GetByRef(ctx context.Context, ref types.ActivityRef) (types.Activity, error)
	List(ctx context.Context, activityType string, offset, limit int) ([]types.Activity, int64, error)
	Delete(ctx context.Context, refs []types.ActivityRef) error
}

type activityService struct {
	log        *logger.Logger
	db         *gorm.DB
	elecRepo   repos.ElectricityActivityRepo
	travelRepo repos.AirTravelActivityRepo
	goodsRepo  repos.GoodsServicesActivityRepo
	resultRepo repos.EmissionResultRepo
}

func NewActivityService(
	baseLog *logger.Logger,
	db *gorm.DB,
	elecRepo repos.ElectricityActivityRepo,
	travelRepo repos.AirTravelActivityRepo,
	goodsRepo repos.GoodsServicesActivityRepo,
	resultRepo repos.EmissionResultRepo,
) ActivityService {
	svcLog := baseLog.With("service", "ActivityService")
	return &activityService{
		log:        svcLog,
		db:         db,
		elecRepo:   elecRepo,
		travelRepo: travelRepo,
		goodsRepo:  goodsRepo,
		resultRepo: resultRepo,
	}
}

func (s *activityService) CreateElectricity(ctx context.Context, inputs []ElectricityActivityInput) ([]*types.ElectricityActivity, error) {
	records := make([]*types.ElectricityActivity, 0, len(inputs))
	for i, input := range inputs {
		if strings.TrimSpace(input.Country) == "" {
			return nil, fmt.Errorf("record %d: country is required", i)
		}
		if input.UsageKWh.IsNegative() {
			return nil, fmt.Errorf("record %d: usage_kwh must not be negative", i)
		}
		raw, err := rawJSON(input.RawData)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, &types.ElectricityActivity{
			ID:           uuid.New(),
			Date:         dateOnly(input.Date),
			ActivityType: types.ActivityTypeElectricity,
			Country:      strings.TrimSpace(input.Country),
			UsageKWh:     input.UsageKWh,
			SourceFile:   input.SourceFile,
			RawData:      raw,
		})
	}
	created, err := s.elecRepo.Create(ctx, nil, records)
	if err != nil {
		return nil, fmt.Errorf("create electricity activities: %w", err)
	}
	s.log.Info("Ingested electricity activities", "count", len(created))
	return created, nil
}

func (s *activityService) CreateAirTravel(ctx context.Context, inputs []AirTravelActivityInput) ([]*types.AirTravelActivity, error) {
	records := make([]*types.AirTravelActivity, 0, len(inputs))
	for i, input := range inputs {
		if input.DistanceMiles == nil && input.DistanceKm == nil {
			return nil, fmt.Errorf("record %d: distance_miles or distance_km is required", i)
		}
		if strings.TrimSpace(input.FlightRange) == "" || strings.TrimSpace(input.PassengerClass) == "" {
			return nil, fmt.Errorf("record %d: flight_range and passenger_class are required", i)
		}
		raw, err := rawJSON(input.RawData)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, &types.AirTravelActivity{
			ID:             uuid.New(),
			Date:           dateOnly(input.Date),
			ActivityType:   types.ActivityTypeAirTravel,
			DistanceMiles:  nullDecimal(input.DistanceMiles),
			DistanceKm:     nullDecimal(input.DistanceKm),
			FlightRange:    strings.TrimSpace(input.FlightRange),
			PassengerClass: strings.TrimSpace(input.PassengerClass),
			SourceFile:     input.SourceFile,
			RawData:        raw,
		})
	}
	created, err := s.travelRepo.Create(ctx, nil, records)
	if err != nil {
		return nil, fmt.Errorf("create air travel activities: %w", err)
	}
	s.log.Info("Ingested air travel activities", "count", len(created))
	return created, nil
}

func (s *activityService) CreateGoodsServices(ctx context.Context, inputs []GoodsServicesActivityInput) ([]*types.GoodsServicesActivity, error) {
	records := make([]*types.GoodsServicesActivity, 0, len(inputs))
	for i, input := range inputs {
		if strings.TrimSpace(input.SupplierCategory) == "" {
			return nil, fmt.Errorf("record %d: supplier_category is required", i)
		}
		if input.SpendAmount.IsNegative() {
			return nil, fmt.Errorf("record %d: spend_amount must not be negative", i)
		}
		raw, err := rawJSON(input.RawData)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, &types.GoodsServicesActivity{
			ID:               uuid.New(),
			Date:             dateOnly(input.Date),
			ActivityType:     types.ActivityTypeGoodsServices,
			SupplierCategory: strings.TrimSpace(input.SupplierCategory),
			SpendAmount:      input.SpendAmount,
			Description:      input.Description,
			SourceFile:       input.SourceFile,
			RawData:          raw,
		})
	}
	created, err := s.goodsRepo.Create(ctx, nil, records)
	if err != nil {
		return nil, fmt.Errorf("create goods and services activities: %w", err)
	}
	s.log.Info("Ingested goods and services activities", "count", len(created))
	return created, nil
}

func (s *activityService) GetByRef(ctx context.Context, ref types.ActivityRef) (types.Activity, error) {
	return s.fetch(ctx, nil, ref)
}

func (s *activityService) List(ctx context.Context, activityType string, offset, limit int) ([]types.Activity, int64, error) {
	switch activityType {
	case types.ActivityTypeElectricity:
		rows, err := s.elecRepo.ListPage(ctx, nil, offset, limit)
		if err != nil {
			return nil, 0, err
		}
		total, err := s.elecRepo.CountActive(ctx, nil)
		if err != nil {
			return nil, 0, err
		}
		return asActivities(rows), total, nil
	case types.ActivityTypeAirTravel:
		rows, err := s.travelRepo.ListPage(ctx, nil, offset, limit)
		if err != nil {
			return nil, 0, err
		}
		total, err := s.travelRepo.CountActive(ctx, nil)
		if err != nil {
			return nil, 0, err
		}
		return asActivities(rows), total, nil
	case types.ActivityTypeGoodsServices:
		rows, err := s.goodsRepo.ListPage(ctx, nil, offset, limit)
		if err != nil {
			return nil, 0, err
		}
		total, err := s.goodsRepo.CountActive(ctx, nil)
		if err != nil {
			return nil, 0, err
		}
		return asActivities(rows), total, nil
	default:
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownActivityType, activityType)
	}
}

// Delete retires activities and their results in one transaction.
func (s *activityService) Delete(ctx context.Context, refs []types.ActivityRef) error {
	byType := make(map[string][]uuid.UUID)
	for _, ref := range refs {
		byType[ref.Type] = append(byType[ref.Type], ref.ID)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for activityType, ids := range byType {
			switch activityType {
			case types.ActivityTypeElectricity:
				if err := s.elecRepo.SoftDeleteByIDs(ctx, tx, ids); err != nil {
					return err
				}
			case types.ActivityTypeAirTravel:
				if err := s.travelRepo.SoftDeleteByIDs(ctx, tx, ids); err != nil {
					return err
				}
			case types.ActivityTypeGoodsServices:
				if err := s.goodsRepo.SoftDeleteByIDs(ctx, tx, ids); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%w: %s", ErrUnknownActivityType, activityType)
			}
			for _, id := range ids {
				ref := types.ActivityRef{Type: activityType, ID: id}
				if _, err := s.resultRepo.DeleteByActivity(ctx, tx, ref); err != nil {
					return fmt.Errorf("delete result for %s: %w", id, err)
				}
			}
		}
		s.log.Info("Deleted activities", "count", len(refs))
		return nil
	})
}

func (s *activityService) fetch(ctx context.Context, tx *gorm.DB, ref types.ActivityRef) (types.Activity, error) {
	var (
		activity types.Activity
		err      error
	)
	switch ref.Type {
	case types.ActivityTypeElectricity:
		activity, err = s.elecRepo.GetByID(ctx, tx, ref.ID)
	case types.ActivityTypeAirTravel:
		activity, err = s.travelRepo.GetByID(ctx, tx, ref.ID)
	case types.ActivityTypeGoodsServices:
		activity, err = s.goodsRepo.GetByID(ctx, tx, ref.ID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownActivityType, ref.Type)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s %s", ErrActivityNotFound, ref.Type, ref.ID)
		}
		return nil, err
	}
	return activity, nil
}

func rawJSON(data map[string]any) (datatypes.JSON, error) {
	if data == nil {
		return nil, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal raw data: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}
