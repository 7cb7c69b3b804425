package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"stocktracker/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func record(symbol, iso string, metrics core.MetricValues) core.FinancialRecord {
	return core.FinancialRecord{
		Symbol:      symbol,
		PeriodType:  core.Quarterly,
		PeriodISO:   iso,
		PeriodLabel: "",
		Metrics:     metrics,
	}
}

func TestUpsertAndFindWindow(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, iso := range []string{"2024-Q1", "2024-Q2", "2024-Q3", "2024-Q4", "2025-Q1"} {
		if _, err := repo.UpsertRecord(ctx, record("LOLC", iso, core.MetricValues{core.MetricRevenue: 1}), false); err != nil {
			t.Fatalf("upsert %s: %v", iso, err)
		}
	}

	window, err := repo.FindWindow(ctx, "LOLC", core.Quarterly, 3)
	if err != nil {
		t.Fatalf("FindWindow: %v", err)
	}
	if len(window) != 3 {
		t.Fatalf("expected 3 records, got %d", len(window))
	}
	// Most recent first.
	if window[0].PeriodISO != "2025-Q1" || window[2].PeriodISO != "2024-Q3" {
		t.Fatalf("wrong window order: %s .. %s", window[0].PeriodISO, window[2].PeriodISO)
	}

	// Annual records are a separate series.
	annual, err := repo.FindWindow(ctx, "LOLC", core.Annual, 10)
	if err != nil {
		t.Fatalf("FindWindow annual: %v", err)
	}
	if len(annual) != 0 {
		t.Fatalf("expected no annual records, got %d", len(annual))
	}
}

func TestUpsertConflictAndMerge(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	first := record("LOLC", "2025-Q1", core.MetricValues{core.MetricRevenue: 500})
	first.Custom = core.MetricValues{"branchCount": 12}
	first.PeriodLabel = "Jan 2025"
	if _, err := repo.UpsertRecord(ctx, first, false); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	dup := record("LOLC", "2025-Q1", core.MetricValues{core.MetricNetIncome: 80})
	if _, err := repo.UpsertRecord(ctx, dup, false); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	merged, err := repo.UpsertRecord(ctx, dup, true)
	if err != nil {
		t.Fatalf("merge upsert: %v", err)
	}
	if merged.Metrics[core.MetricRevenue] != 500 {
		t.Fatalf("merge lost revenue: %v", merged.Metrics)
	}
	if merged.Metrics[core.MetricNetIncome] != 80 {
		t.Fatalf("merge lost incoming value: %v", merged.Metrics)
	}
	if merged.Custom["branchCount"] != 12 {
		t.Fatalf("merge lost custom metrics: %v", merged.Custom)
	}
	// dup carried no label; the stored one stays.
	if merged.PeriodLabel != "Jan 2025" {
		t.Fatalf("merge lost label: %q", merged.PeriodLabel)
	}
}

func TestFindByKeys(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, iso := range []string{"2023-Q1", "2024-Q1"} {
		if _, err := repo.UpsertRecord(ctx, record("LOLC", iso, core.MetricValues{core.MetricRevenue: 1}), false); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	found, err := repo.FindByKeys(ctx, "LOLC", core.Quarterly, []string{"2023-Q1", "2022-Q1"})
	if err != nil {
		t.Fatalf("FindByKeys: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(found))
	}
	if _, ok := found["2023-Q1"]; !ok {
		t.Fatalf("missing 2023-Q1: %v", found)
	}

	none, err := repo.FindByKeys(ctx, "LOLC", core.Quarterly, nil)
	if err != nil {
		t.Fatalf("FindByKeys empty: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no hits for empty key set, got %d", len(none))
	}
}

func TestDeleteRecord(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.UpsertRecord(ctx, record("LOLC", "2025-Q1", core.MetricValues{core.MetricRevenue: 1}), false); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.DeleteRecord(ctx, "LOLC", core.Quarterly, "2025-Q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteRecord(ctx, "LOLC", core.Quarterly, "2025-Q1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	count, err := repo.CountRecords(ctx, "LOLC")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 records, got %d", count)
	}
}

func TestSeededCatalog(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	defs, err := repo.ListDefinitions(ctx, "")
	if err != nil {
		t.Fatalf("ListDefinitions: %v", err)
	}
	if len(defs) != 20 {
		t.Fatalf("expected 20 seeded definitions, got %d", len(defs))
	}
	// Ordered by section (income, balance, cashflow), then position.
	if defs[0].Key != core.MetricRevenue {
		t.Fatalf("expected revenue first, got %s", defs[0].Key)
	}
	if defs[0].Section != core.SectionIncome || defs[len(defs)-1].Section != core.SectionCashflow {
		t.Fatalf("wrong section order: first=%s last=%s", defs[0].Section, defs[len(defs)-1].Section)
	}

	income, err := repo.ListDefinitions(ctx, core.SectionIncome)
	if err != nil {
		t.Fatalf("ListDefinitions income: %v", err)
	}
	if len(income) != 7 {
		t.Fatalf("expected 7 income definitions, got %d", len(income))
	}
}

func TestCreateDefinitionAssignsOrder(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	def, err := repo.CreateDefinition(ctx, core.MetricDefinition{
		Key: "grossMargin", Name: "Gross Margin", Section: core.SectionIncome, Unit: "%",
	})
	if err != nil {
		t.Fatalf("CreateDefinition: %v", err)
	}
	// The seed puts 7 income metrics at orders 0-6.
	if def.Order != 7 {
		t.Fatalf("expected order 7 at end of income section, got %d", def.Order)
	}

	if _, err := repo.CreateDefinition(ctx, core.MetricDefinition{
		Key: "grossMargin", Name: "Duplicate", Section: core.SectionIncome,
	}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := repo.SetDefinitionOrder(ctx, "grossMargin", 0); err != nil {
		t.Fatalf("SetDefinitionOrder: %v", err)
	}
	got, err := repo.GetDefinition(ctx, "grossMargin")
	if err != nil {
		t.Fatalf("GetDefinition: %v", err)
	}
	if got.Order != 0 {
		t.Fatalf("order not updated: %d", got.Order)
	}

	if err := repo.SetDefinitionOrder(ctx, "ghost", 1); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryDefaultsRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	defs := []core.MetricDefinition{
		{Key: core.MetricRevenue, Name: "Revenue", Section: core.SectionIncome, Order: 0},
		{Key: core.MetricEPS, Name: "EPS", Section: core.SectionIncome, Order: 1},
	}
	if err := repo.SetCategoryDefaults(ctx, "Banks", defs); err != nil {
		t.Fatalf("SetCategoryDefaults: %v", err)
	}

	got, err := repo.GetCategoryDefaults(ctx, "Banks")
	if err != nil {
		t.Fatalf("GetCategoryDefaults: %v", err)
	}
	if len(got) != 2 || got[0].Key != core.MetricRevenue {
		t.Fatalf("unexpected defaults: %+v", got)
	}

	// Replacement is wholesale.
	if err := repo.SetCategoryDefaults(ctx, "Banks", defs[:1]); err != nil {
		t.Fatalf("replace defaults: %v", err)
	}
	got, _ = repo.GetCategoryDefaults(ctx, "Banks")
	if len(got) != 1 {
		t.Fatalf("expected 1 definition after replacement, got %d", len(got))
	}

	if err := repo.DeleteCategoryDefaults(ctx, "Banks"); err != nil {
		t.Fatalf("DeleteCategoryDefaults: %v", err)
	}
	if _, err := repo.GetCategoryDefaults(ctx, "Banks"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCompanyLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	created, err := repo.CreateCompany(ctx, core.Company{
		Symbol:   "LOLC.N0000",
		Name:     "LOLC Holdings",
		Category: "Diversified",
		Beta:     &core.CompanyBeta{TriASIBetaValue: 1.2, Quarter: 4},
	})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	if _, err := repo.CreateCompany(ctx, created); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := repo.GetCompany(ctx, "LOLC.N0000")
	if err != nil {
		t.Fatalf("GetCompany: %v", err)
	}
	if got.Beta == nil || got.Beta.TriASIBetaValue != 1.2 {
		t.Fatalf("beta lost in round trip: %+v", got.Beta)
	}

	list, err := repo.ListCompanies(ctx, "lolc", 10)
	if err != nil {
		t.Fatalf("ListCompanies: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("case-insensitive search failed: %d hits", len(list))
	}

	if err := repo.DeleteCompany(ctx, "LOLC.N0000"); err != nil {
		t.Fatalf("DeleteCompany: %v", err)
	}
	if _, err := repo.GetCompany(ctx, "LOLC.N0000"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertCompanyPreservesCategory(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateCompany(ctx, core.Company{
		Symbol:   "HNB.N0000",
		Name:     "Hatton National Bank",
		Category: "Banks",
	}); err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}

	// A sync refresh carries no category; the user's assignment must
	// survive the overwrite.
	refreshed := core.Company{
		Symbol:          "HNB.N0000",
		Name:            "HATTON NATIONAL BANK PLC",
		LastTradedPrice: 198.5,
	}
	if _, err := repo.UpsertCompany(ctx, refreshed); err != nil {
		t.Fatalf("UpsertCompany: %v", err)
	}

	got, err := repo.GetCompany(ctx, "HNB.N0000")
	if err != nil {
		t.Fatalf("GetCompany: %v", err)
	}
	if got.Category != "Banks" {
		t.Fatalf("category lost in sync upsert: %q", got.Category)
	}
	if got.LastTradedPrice != 198.5 || got.Name != "HATTON NATIONAL BANK PLC" {
		t.Fatalf("quote not refreshed: %+v", got)
	}

	// Upsert on an unknown symbol inserts.
	if _, err := repo.UpsertCompany(ctx, core.Company{Symbol: "NEW.N0000", Name: "New Listing"}); err != nil {
		t.Fatalf("UpsertCompany insert: %v", err)
	}
	if _, err := repo.GetCompany(ctx, "NEW.N0000"); err != nil {
		t.Fatalf("inserted company missing: %v", err)
	}
}
