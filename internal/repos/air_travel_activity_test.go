package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/carbonledger-backend/internal/repos/testutil"
)

func TestAirTravelActivityRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewAirTravelActivityRepo(db, testutil.Logger(t))
	ctx := context.Background()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	miles := "500"
	withMiles := testutil.SeedAirTravel(t, ctx, tx, &miles, nil, "Long-haul", "Economy", date)
	km := "804.67"
	withKm := testutil.SeedAirTravel(t, ctx, tx, nil, &km, "Short-haul", "Business", date)

	count, err := repo.CountActive(ctx, tx)
	if err != nil {
		t.Fatalf("CountActive: %v", err)
	}
	if count != 2 {
		t.Fatalf("CountActive: expected 2, got %d", count)
	}

	page, err := repo.ListPage(ctx, tx, 0, 10)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("ListPage: expected 2 rows, got %d", len(page))
	}

	newKm := decimal.RequireFromString("804.67")
	if err := repo.UpdateDistanceKm(ctx, tx, withMiles.ID, newKm); err != nil {
		t.Fatalf("UpdateDistanceKm: %v", err)
	}
	got, err := repo.GetByID(ctx, tx, withMiles.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.DistanceKm.Valid || !got.DistanceKm.Decimal.Equal(newKm) {
		t.Fatalf("GetByID: distance_km not backfilled: %+v", got.DistanceKm)
	}

	if err := repo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{withKm.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if _, err := repo.GetByID(ctx, tx, withKm.ID); err == nil {
		t.Fatalf("GetByID: expected soft-deleted row to be hidden")
	}
	count, err = repo.CountActive(ctx, tx)
	if err != nil {
		t.Fatalf("CountActive: %v", err)
	}
	if count != 1 {
		t.Fatalf("CountActive: expected 1 after soft delete, got %d", count)
	}
}
