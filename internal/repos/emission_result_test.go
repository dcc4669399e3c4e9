package repos

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/carbonledger-backend/internal/repos/testutil"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

func TestEmissionResultRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewEmissionResultRepo(db, testutil.Logger(t))
	ctx := context.Background()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	factor := testutil.SeedFactor(t, ctx, tx, types.ActivityTypeElectricity, "United Kingdom", "0.20707", types.Scope2, nil)
	activity := testutil.SeedElectricity(t, ctx, tx, "United Kingdom", "1000", date)
	ref := activity.Ref()

	exists, err := repo.ExistsForActivity(ctx, tx, ref)
	if err != nil {
		t.Fatalf("ExistsForActivity: %v", err)
	}
	if exists {
		t.Fatalf("ExistsForActivity: expected false before create")
	}

	testutil.SeedResult(t, ctx, tx, ref, factor.ID, "0.20707", date)

	exists, err = repo.ExistsForActivity(ctx, tx, ref)
	if err != nil {
		t.Fatalf("ExistsForActivity: %v", err)
	}
	if !exists {
		t.Fatalf("ExistsForActivity: expected true after create")
	}

	got, err := repo.GetByActivity(ctx, tx, ref)
	if err != nil {
		t.Fatalf("GetByActivity: %v", err)
	}
	if !got.CO2eTonnes.Equal(decimal.RequireFromString("0.20707")) {
		t.Fatalf("GetByActivity: unexpected tonnes %s", got.CO2eTonnes)
	}

	count, err := repo.CountByFactorID(ctx, tx, factor.ID)
	if err != nil {
		t.Fatalf("CountByFactorID: %v", err)
	}
	if count != 1 {
		t.Fatalf("CountByFactorID: expected 1, got %d", count)
	}

	total, n, err := repo.AggregateForPeriod(ctx, tx, PeriodFilter{FromDate: date, ToDate: date})
	if err != nil {
		t.Fatalf("AggregateForPeriod: %v", err)
	}
	if n != 1 || !total.Equal(decimal.RequireFromString("0.20707")) {
		t.Fatalf("AggregateForPeriod: got total %s count %d", total, n)
	}

	scope := types.Scope3
	total, n, err = repo.AggregateForPeriod(ctx, tx, PeriodFilter{FromDate: date, ToDate: date, Scope: &scope})
	if err != nil {
		t.Fatalf("AggregateForPeriod scoped: %v", err)
	}
	if n != 0 || !total.IsZero() {
		t.Fatalf("AggregateForPeriod scoped: expected zero, got total %s count %d", total, n)
	}

	deleted, err := repo.DeleteByActivity(ctx, tx, ref)
	if err != nil {
		t.Fatalf("DeleteByActivity: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("DeleteByActivity: expected 1 row, got %d", deleted)
	}
}
