package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stocktracker/internal/core"
)

// ReorderEntry is one key/position pair of a reorder request.
type ReorderEntry struct {
	Key   string `json:"key"`
	Order int    `json:"order"`
}

// ReorderResult reports a best-effort reorder: positions that stuck and keys
// that were rejected.
type ReorderResult struct {
	Applied int      `json:"applied"`
	Failed  []string `json:"failed,omitempty"`
}

// MetricService owns the metric catalog and the per-category default
// templates.
type MetricService struct {
	catalog    CatalogStore
	categories CategoryDefaultsStore
	companies  CompanyStore
	records    RecordStore
	timeout    time.Duration
}

func NewMetricService(catalog CatalogStore, categories CategoryDefaultsStore, companies CompanyStore, records RecordStore, timeout time.Duration) *MetricService {
	return &MetricService{
		catalog:    catalog,
		categories: categories,
		companies:  companies,
		records:    records,
		timeout:    timeout,
	}
}

func (s *MetricService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// List returns the catalog ordered by section, then position, then name.
// An empty section lists everything.
func (s *MetricService) List(ctx context.Context, section core.Section) ([]core.MetricDefinition, error) {
	if section != "" && !section.Valid() {
		return nil, fmt.Errorf("%w: section %q", core.ErrValidation, section)
	}

	listCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	defs, err := s.catalog.ListDefinitions(listCtx, section)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return defs, nil
}

func (s *MetricService) Get(ctx context.Context, key string) (core.MetricDefinition, error) {
	if key == "" {
		return core.MetricDefinition{}, fmt.Errorf("%w: empty metric key", core.ErrValidation)
	}

	getCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	def, err := s.catalog.GetDefinition(getCtx, key)
	if err != nil {
		return core.MetricDefinition{}, mapStoreErr(err)
	}
	return def, nil
}

// Create adds a definition at the end of its section. The position is
// assigned by the store, never by the caller.
func (s *MetricService) Create(ctx context.Context, def core.MetricDefinition) (core.MetricDefinition, error) {
	if err := def.Validate(); err != nil {
		return core.MetricDefinition{}, err
	}

	createCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	created, err := s.catalog.CreateDefinition(createCtx, def)
	if err != nil {
		return core.MetricDefinition{}, mapStoreErr(err)
	}
	slog.InfoContext(ctx, "Metric definition created",
		"metric_key", created.Key, "section", created.Section)
	return created, nil
}

// Update changes a definition's display fields. The key and the position are
// immutable here; reordering goes through Reorder.
func (s *MetricService) Update(ctx context.Context, def core.MetricDefinition) (core.MetricDefinition, error) {
	if err := def.Validate(); err != nil {
		return core.MetricDefinition{}, err
	}

	updateCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	updated, err := s.catalog.UpdateDefinition(updateCtx, def)
	if err != nil {
		return core.MetricDefinition{}, mapStoreErr(err)
	}
	return updated, nil
}

func (s *MetricService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty metric key", core.ErrValidation)
	}

	delCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.catalog.DeleteDefinition(delCtx, key); err != nil {
		return mapStoreErr(err)
	}
	slog.InfoContext(ctx, "Metric definition deleted", "metric_key", key)
	return nil
}

// Reorder applies position updates one by one. A key that fails does not
// roll back the ones already applied; callers get the full picture in the
// result and decide whether to retry.
func (s *MetricService) Reorder(ctx context.Context, entries []ReorderEntry) (ReorderResult, error) {
	if len(entries) == 0 {
		return ReorderResult{}, fmt.Errorf("%w: empty reorder request", core.ErrValidation)
	}

	var result ReorderResult
	for _, entry := range entries {
		if entry.Key == "" {
			result.Failed = append(result.Failed, entry.Key)
			continue
		}

		setCtx, cancel := s.storeCtx(ctx)
		err := s.catalog.SetDefinitionOrder(setCtx, entry.Key, entry.Order)
		cancel()
		if err != nil {
			slog.WarnContext(ctx, "Reorder entry failed",
				"metric_key", entry.Key, "error", err)
			result.Failed = append(result.Failed, entry.Key)
			continue
		}
		result.Applied++
	}
	return result, nil
}

// EffectiveCatalog resolves the metric list an entity's data entry form
// should start from: its category's default template while the entity has no
// records of its own, the full base catalog otherwise (and for entities with
// no category or no stored template).
func (s *MetricService) EffectiveCatalog(ctx context.Context, symbol string) ([]core.MetricDefinition, error) {
	if symbol == "" {
		return nil, core.ErrEmptySymbol
	}

	resolveCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	company, err := s.companies.GetCompany(resolveCtx, symbol)
	if err == nil && company.Category != "" {
		count, countErr := s.records.CountRecords(resolveCtx, symbol)
		if countErr != nil {
			return nil, fmt.Errorf("count records: %w", mapStoreErr(countErr))
		}
		if count == 0 {
			defs, defErr := s.categories.GetCategoryDefaults(resolveCtx, company.Category)
			if defErr == nil && len(defs) > 0 {
				return defs, nil
			}
		}
	}

	defs, err := s.catalog.ListDefinitions(resolveCtx, "")
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return defs, nil
}

// CategoryDefaults returns the stored template for one category.
func (s *MetricService) CategoryDefaults(ctx context.Context, category string) ([]core.MetricDefinition, error) {
	if category == "" {
		return nil, fmt.Errorf("%w: empty category", core.ErrValidation)
	}

	getCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	defs, err := s.categories.GetCategoryDefaults(getCtx, category)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return defs, nil
}

// SetCategoryDefaults replaces a category's template wholesale.
func (s *MetricService) SetCategoryDefaults(ctx context.Context, category string, defs []core.MetricDefinition) error {
	if category == "" {
		return fmt.Errorf("%w: empty category", core.ErrValidation)
	}
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return err
		}
	}

	setCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.categories.SetCategoryDefaults(setCtx, category, defs); err != nil {
		return mapStoreErr(err)
	}
	slog.InfoContext(ctx, "Category defaults replaced",
		"category", category, "metric_count", len(defs))
	return nil
}

func (s *MetricService) DeleteCategoryDefaults(ctx context.Context, category string) error {
	if category == "" {
		return fmt.Errorf("%w: empty category", core.ErrValidation)
	}

	delCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	return mapStoreErr(s.categories.DeleteCategoryDefaults(delCtx, category))
}
