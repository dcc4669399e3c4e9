package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/carbonledger-backend/internal/types"
)

type fakeCache struct {
	entries map[string][]byte
	hits    int
}

func (f *fakeCache) Get(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	f.hits++
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if f.entries == nil {
		f.entries = map[string][]byte{}
	}
	f.entries[key] = raw
	return nil
}

func seedSummary(repo *fakeSummaryRepo, from, to time.Time, scope, category *int, activityType *string, summaryType, tonnes string, count int64) {
	repo.rows = append(repo.rows, &types.EmissionSummary{
		ID:              uuid.New(),
		FromDate:        from,
		ToDate:          to,
		Scope:           scope,
		Category:        category,
		ActivityType:    activityType,
		TotalCO2eTonnes: decimal.RequireFromString(tonnes),
		ActivityCount:   count,
		SummaryType:     summaryType,
	})
}

func TestSummaryTotal(t *testing.T) {
	repo := &fakeSummaryRepo{}
	svc := NewSummaryService(testLogger(t), repo, nil)

	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	seedSummary(repo, day1, day1, nil, nil, nil, types.SummaryTypeDaily, "0.3", 2)
	seedSummary(repo, day2, day2, nil, nil, nil, types.SummaryTypeDaily, "0.5", 3)

	report, err := svc.Total(context.Background(), day1, day2, nil, nil, nil)
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if !report.TotalCO2eTonnes.Equal(decimal.RequireFromString("0.8")) || report.ActivityCount != 5 {
		t.Fatalf("Total: %+v", report)
	}
	if !report.TotalCO2eKg.Equal(decimal.RequireFromString("800")) {
		t.Fatalf("Total: kg = %s, want 800", report.TotalCO2eKg)
	}
}

func TestSummaryTotalUsesCache(t *testing.T) {
	repo := &fakeSummaryRepo{}
	cache := &fakeCache{}
	svc := NewSummaryService(testLogger(t), repo, cache)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seedSummary(repo, day, day, nil, nil, nil, types.SummaryTypeDaily, "0.3", 2)

	if _, err := svc.Total(context.Background(), day, day, nil, nil, nil); err != nil {
		t.Fatalf("Total: %v", err)
	}
	report, err := svc.Total(context.Background(), day, day, nil, nil, nil)
	if err != nil {
		t.Fatalf("Total cached: %v", err)
	}
	if cache.hits != 1 {
		t.Fatalf("Total: cache hits %d, want 1", cache.hits)
	}
	if !report.TotalCO2eTonnes.Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("Total cached: %+v", report)
	}
}

func TestSummaryMonthlySeries(t *testing.T) {
	repo := &fakeSummaryRepo{}
	svc := NewSummaryService(testLogger(t), repo, nil)

	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seedSummary(repo, jan, jan.AddDate(0, 1, -1), nil, nil, nil, types.SummaryTypeMonthly, "1.2", 10)
	seedSummary(repo, mar, mar.AddDate(0, 1, -1), nil, nil, nil, types.SummaryTypeMonthly, "0.9", 7)

	points, err := svc.MonthlySeries(context.Background(), jan, mar.AddDate(0, 1, -1))
	if err != nil {
		t.Fatalf("MonthlySeries: %v", err)
	}
	// February has no row and is omitted.
	if len(points) != 2 {
		t.Fatalf("MonthlySeries: %d points, want 2", len(points))
	}
	if points[0].Month != "2024-01" || points[1].Month != "2024-03" {
		t.Fatalf("MonthlySeries: %+v", points)
	}
}

func TestSummaryLatestNoData(t *testing.T) {
	svc := NewSummaryService(testLogger(t), &fakeSummaryRepo{}, nil)

	_, err := svc.Latest(context.Background(), types.SummaryTypeDaily)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("Latest: expected ErrNoData, got %v", err)
	}
}

func TestSummaryBreakdown(t *testing.T) {
	repo := &fakeSummaryRepo{}
	svc := NewSummaryService(testLogger(t), repo, nil)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	scope := types.Scope2
	elec := types.ActivityTypeElectricity
	seedSummary(repo, day, day, nil, nil, nil, types.SummaryTypeDaily, "0.8", 5)
	seedSummary(repo, day, day, &scope, nil, nil, types.SummaryTypeDaily, "0.3", 2)
	seedSummary(repo, day, day, nil, nil, &elec, types.SummaryTypeDaily, "0.3", 2)

	entries, err := svc.Breakdown(context.Background(), day, day, types.SummaryTypeDaily)
	if err != nil {
		t.Fatalf("Breakdown: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Breakdown: %d entries, want 3", len(entries))
	}
}

func TestSummaryBreakdownNoData(t *testing.T) {
	svc := NewSummaryService(testLogger(t), &fakeSummaryRepo{}, nil)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Breakdown(context.Background(), day, day, types.SummaryTypeDaily)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("Breakdown: expected ErrNoData, got %v", err)
	}
}
