package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

// SeedReport summarizes one CSV import.
type SeedReport struct {
	File     string `json:"file"`
	RowsRead int    `json:"rows_read"`
	Created  int    `json:"created"`
	Skipped  int    `json:"skipped"`
}

// SeederService imports emission factors and activity records from CSV
// exports. Dates are day-first (DD/MM/YYYY) and numeric cells may carry
// currency symbols and thousands separators; both match the upstream data
// files this system is fed with.
type SeederService interface {
	SeedFactors(ctx context.Context, path string) (*SeedReport, error)
	SeedActivities(ctx context.Context, activityType, path string) (*SeedReport, error)
}

type seederService struct {
	log        *logger.Logger
	factors    FactorService
	activities ActivityService
}

func NewSeederService(baseLog *logger.Logger, factors FactorService, activities ActivityService) SeederService {
	svcLog := baseLog.With("service", "SeederService")
	return &seederService{log: svcLog, factors: factors, activities: activities}
}

// csvRow pairs a header-indexed record with its file position for error
// messages.
type csvRow struct {
	line   int
	fields map[string]string
}

func (r csvRow) get(key string) string {
	return strings.TrimSpace(r.fields[key])
}

func readCSV(path string) ([]csvRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []csvRow
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", path, line, err)
		}
		fields := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				fields[col] = record[i]
			}
		}
		rows = append(rows, csvRow{line: line, fields: fields})
	}
	return rows, nil
}

// parseDate accepts the day-first formats the source exports use.
func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"02/01/2006", "02-01-2006", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

func (s *seederService) SeedFactors(ctx context.Context, path string) (*SeedReport, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	report := &SeedReport{File: path, RowsRead: len(rows)}

	inputs := make([]FactorInput, 0, len(rows))
	for _, row := range rows {
		factor, err := NormalizeNumber(row.get("co2e_factor"))
		if err != nil {
			s.log.Warn("Skipping factor row", "line", row.line, "error", err)
			report.Skipped++
			continue
		}
		scope, err := strconv.Atoi(row.get("scope"))
		if err != nil {
			s.log.Warn("Skipping factor row", "line", row.line, "error", fmt.Errorf("bad scope: %w", err))
			report.Skipped++
			continue
		}
		var category *int
		if raw := row.get("category"); raw != "" {
			c, err := strconv.Atoi(raw)
			if err != nil {
				s.log.Warn("Skipping factor row", "line", row.line, "error", fmt.Errorf("bad category: %w", err))
				report.Skipped++
				continue
			}
			category = &c
		}
		inputs = append(inputs, FactorInput{
			ActivityType:     row.get("activity_type"),
			LookupIdentifier: row.get("lookup_identifier"),
			Unit:             row.get("unit"),
			CO2eFactor:       factor,
			Scope:            scope,
			Category:         category,
			Source:           row.get("source"),
			Notes:            row.get("notes"),
		})
	}

	created, err := s.factors.Create(ctx, inputs)
	if err != nil {
		return nil, err
	}
	report.Created = len(created)
	s.log.Info("Seeded emission factors", "file", path, "created", report.Created, "skipped", report.Skipped)
	return report, nil
}

func (s *seederService) SeedActivities(ctx context.Context, activityType, path string) (*SeedReport, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	report := &SeedReport{File: path, RowsRead: len(rows)}
	source := path

	switch activityType {
	case types.ActivityTypeElectricity:
		inputs := make([]ElectricityActivityInput, 0, len(rows))
		for _, row := range rows {
			date, err := parseDate(row.get("date"))
			if err != nil {
				s.log.Warn("Skipping electricity row", "line", row.line, "error", err)
				report.Skipped++
				continue
			}
			usage, err := NormalizeNumber(row.get("electricity_usage_kwh"))
			if err != nil {
				s.log.Warn("Skipping electricity row", "line", row.line, "error", err)
				report.Skipped++
				continue
			}
			inputs = append(inputs, ElectricityActivityInput{
				Date:       date,
				Country:    row.get("country"),
				UsageKWh:   usage,
				SourceFile: &source,
			})
		}
		created, err := s.activities.CreateElectricity(ctx, inputs)
		if err != nil {
			return nil, err
		}
		report.Created = len(created)

	case types.ActivityTypeAirTravel:
		inputs := make([]AirTravelActivityInput, 0, len(rows))
		for _, row := range rows {
			date, err := parseDate(row.get("date"))
			if err != nil {
				s.log.Warn("Skipping air travel row", "line", row.line, "error", err)
				report.Skipped++
				continue
			}
			input := AirTravelActivityInput{
				Date:           date,
				FlightRange:    row.get("flight_range"),
				PassengerClass: row.get("passenger_class"),
				SourceFile:     &source,
			}
			if raw := row.get("distance_miles"); raw != "" {
				miles, err := NormalizeNumber(raw)
				if err != nil {
					s.log.Warn("Skipping air travel row", "line", row.line, "error", err)
					report.Skipped++
					continue
				}
				input.DistanceMiles = &miles
			}
			if raw := row.get("distance_km"); raw != "" {
				km, err := NormalizeNumber(raw)
				if err != nil {
					s.log.Warn("Skipping air travel row", "line", row.line, "error", err)
					report.Skipped++
					continue
				}
				input.DistanceKm = &km
			}
			if input.DistanceMiles == nil && input.DistanceKm == nil {
				s.log.Warn("Skipping air travel row without distance", "line", row.line)
				report.Skipped++
				continue
			}
			inputs = append(inputs, input)
		}
		created, err := s.activities.CreateAirTravel(ctx, inputs)
		if err != nil {
			return nil, err
		}
		report.Created = len(created)

	case types.ActivityTypeGoodsServices:
		inputs := make([]GoodsServicesActivityInput, 0, len(rows))
		for _, row := range rows {
			date, err := parseDate(row.get("date"))
			if err != nil {
				s.log.Warn("Skipping goods row", "line", row.line, "error", err)
				report.Skipped++
				continue
			}
			spend, err := NormalizeNumber(row.get("spend_amount"))
			if err != nil {
				s.log.Warn("Skipping goods row", "line", row.line, "error", err)
				report.Skipped++
				continue
			}
			input := GoodsServicesActivityInput{
				Date:             date,
				SupplierCategory: row.get("supplier_category"),
				SpendAmount:      spend,
				SourceFile:       &source,
			}
			if desc := row.get("description"); desc != "" {
				input.Description = &desc
			}
			inputs = append(inputs, input)
		}
		created, err := s.activities.CreateGoodsServices(ctx, inputs)
		if err != nil {
			return nil, err
		}
		report.Created = len(created)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownActivityType, activityType)
	}

	s.log.Info("Seeded activities",
		"file", path, "activity_type", activityType,
		"created", report.Created, "skipped", report.Skipped)
	return report, nil
}
