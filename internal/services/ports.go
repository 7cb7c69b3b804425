// Package services implements the aggregation engine on top of the store:
// the Y/Y series derivation, the metric catalog with category defaults, the
// cross-company comparator and the company registry.
package services

import (
	"context"
	"errors"
	"fmt"

	"stocktracker/internal/core"
)

// RecordStore is the persistence contract for per-period financial records.
type RecordStore interface {
	// FindWindow returns up to limit records, most recent period first.
	FindWindow(ctx context.Context, symbol string, periodType core.PeriodType, limit int) ([]core.FinancialRecord, error)
	// FindByKeys fetches an arbitrary key set in one round trip; missing
	// keys are absent from the map.
	FindByKeys(ctx context.Context, symbol string, periodType core.PeriodType, isoKeys []string) (map[string]core.FinancialRecord, error)
	UpsertRecord(ctx context.Context, record core.FinancialRecord, overwrite bool) (core.FinancialRecord, error)
	DeleteRecord(ctx context.Context, symbol string, periodType core.PeriodType, periodISO string) error
	CountRecords(ctx context.Context, symbol string) (int64, error)
}

// CatalogStore is the persistence contract for metric definitions.
type CatalogStore interface {
	ListDefinitions(ctx context.Context, section core.Section) ([]core.MetricDefinition, error)
	GetDefinition(ctx context.Context, key string) (core.MetricDefinition, error)
	CreateDefinition(ctx context.Context, def core.MetricDefinition) (core.MetricDefinition, error)
	UpdateDefinition(ctx context.Context, def core.MetricDefinition) (core.MetricDefinition, error)
	SetDefinitionOrder(ctx context.Context, key string, order int) error
	DeleteDefinition(ctx context.Context, key string) error
}

// CategoryDefaultsStore persists per-category metric templates.
type CategoryDefaultsStore interface {
	GetCategoryDefaults(ctx context.Context, category string) ([]core.MetricDefinition, error)
	SetCategoryDefaults(ctx context.Context, category string, defs []core.MetricDefinition) error
	DeleteCategoryDefaults(ctx context.Context, category string) error
}

// CompanyStore persists the company registry.
type CompanyStore interface {
	ListCompanies(ctx context.Context, query string, limit int) ([]core.Company, error)
	GetCompany(ctx context.Context, symbol string) (core.Company, error)
	CreateCompany(ctx context.Context, company core.Company) (core.Company, error)
	UpdateCompany(ctx context.Context, company core.Company) (core.Company, error)
	DeleteCompany(ctx context.Context, symbol string) error
}

// SyncPublisher hands a company-sync request to the worker.
type SyncPublisher interface {
	PublishCompanySync(ctx context.Context, symbol string) error
}

// mapStoreErr turns a deadline expiry on a store call into the upstream
// timeout case; everything else passes through unchanged.
func mapStoreErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", core.ErrUpstreamTimeout, err)
	}
	return err
}
