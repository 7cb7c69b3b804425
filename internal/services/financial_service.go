package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"stocktracker/internal/core"
)

const (
	// DefaultWindow is how many periods a series request returns when the
	// caller does not say.
	DefaultWindow = 5
	// MaxWindow caps a single series request.
	MaxWindow = 40
)

// MetricSet is the reported values of one period, standard and custom kept
// apart.
type MetricSet struct {
	Standard core.MetricValues `json:"standard"`
	Custom   core.MetricValues `json:"custom,omitempty"`
}

// YoYSet mirrors MetricSet with relative changes. A key present with a nil
// value means "no change data": the prior-year baseline was missing or zero,
// which render the same.
type YoYSet struct {
	Standard map[string]*float64 `json:"standard"`
	Custom   map[string]*float64 `json:"custom,omitempty"`
}

// PeriodItem is one period of a derived series.
type PeriodItem struct {
	PeriodISO string    `json:"periodISO"`
	Label     string    `json:"label"`
	Data      MetricSet `json:"data"`
	YoY       YoYSet    `json:"yoy"`
}

// FinancialService owns the financial-record write path and the Y/Y series
// derivation.
type FinancialService struct {
	records    RecordStore
	companies  CompanyStore
	catalog    CatalogStore
	categories CategoryDefaultsStore
	timeout    time.Duration
}

func NewFinancialService(records RecordStore, companies CompanyStore, catalog CatalogStore, categories CategoryDefaultsStore, timeout time.Duration) *FinancialService {
	return &FinancialService{
		records:    records,
		companies:  companies,
		catalog:    catalog,
		categories: categories,
		timeout:    timeout,
	}
}

func (s *FinancialService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// GetSeries returns the symbol's most recent periods with per-metric Y/Y
// change, in chronological order (oldest first). metricFilter, when
// non-empty, restricts the returned data and yoy maps after computation; it
// never changes which records are fetched.
func (s *FinancialService) GetSeries(ctx context.Context, symbol string, periodType core.PeriodType, limit int, metricFilter []string) ([]PeriodItem, error) {
	if symbol == "" {
		return nil, core.ErrEmptySymbol
	}
	if !periodType.Valid() {
		return nil, fmt.Errorf("%w: period type %q", core.ErrValidation, periodType)
	}
	if limit <= 0 {
		limit = DefaultWindow
	}
	if limit > MaxWindow {
		limit = MaxWindow
	}

	fetchCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	window, err := s.records.FindWindow(fetchCtx, symbol, periodType, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch window: %w", mapStoreErr(err))
	}
	if len(window) == 0 {
		return []PeriodItem{}, nil
	}

	// One batched lookup for every distinct prior-year key; N+1 round
	// trips would hurt exactly when windows are large.
	priorKeys := make([]string, 0, len(window))
	seen := make(map[string]bool, len(window))
	for _, rec := range window {
		p, err := core.ParsePeriod(rec.PeriodISO)
		if err != nil {
			// A stored key that no longer parses gets no baseline
			// instead of poisoning the whole series.
			slog.WarnContext(ctx, "Skipping malformed stored period key",
				"symbol", symbol, "period_iso", rec.PeriodISO)
			continue
		}
		key := p.PriorYear().ISO()
		if !seen[key] {
			seen[key] = true
			priorKeys = append(priorKeys, key)
		}
	}

	priorCtx, cancelPrior := s.storeCtx(ctx)
	defer cancelPrior()

	priors, err := s.records.FindByKeys(priorCtx, symbol, periodType, priorKeys)
	if err != nil {
		return nil, fmt.Errorf("fetch prior-year records: %w", mapStoreErr(err))
	}

	// The window arrives newest-first; the series reads oldest-first.
	items := make([]PeriodItem, 0, len(window))
	for i := len(window) - 1; i >= 0; i-- {
		items = append(items, deriveItem(window[i], priors, metricFilter))
	}
	return items, nil
}

func deriveItem(rec core.FinancialRecord, priors map[string]core.FinancialRecord, metricFilter []string) PeriodItem {
	var prior core.FinancialRecord
	if p, err := core.ParsePeriod(rec.PeriodISO); err == nil {
		// Absent map entry leaves prior zero-valued: every lookup in it
		// misses, which is exactly the "no baseline" case.
		prior = priors[p.PriorYear().ISO()]
	}

	item := PeriodItem{
		PeriodISO: rec.PeriodISO,
		Label:     rec.PeriodLabel,
		Data: MetricSet{
			Standard: filteredValues(rec.Metrics, metricFilter),
		},
		YoY: YoYSet{
			Standard: deriveChanges(rec.Metrics, prior.Metrics, metricFilter),
		},
	}
	if len(rec.Custom) > 0 {
		item.Data.Custom = filteredValues(rec.Custom, metricFilter)
		item.YoY.Custom = deriveChanges(rec.Custom, prior.Custom, metricFilter)
	}
	return item
}

// yoyChange computes relative change against the prior-year baseline.
// No baseline and a zero baseline are indistinguishable to a reader, so both
// yield nil rather than an infinity.
func yoyChange(current float64, prior *float64) *float64 {
	if prior == nil || *prior == 0 {
		return nil
	}
	change := (current - *prior) / math.Abs(*prior)
	return &change
}

func deriveChanges(current, prior core.MetricValues, metricFilter []string) map[string]*float64 {
	changes := make(map[string]*float64, len(current))
	for key, value := range current {
		if !keyAllowed(key, metricFilter) {
			continue
		}
		var baseline *float64
		if prev, ok := prior[key]; ok {
			baseline = &prev
		}
		changes[key] = yoyChange(value, baseline)
	}
	return changes
}

func filteredValues(values core.MetricValues, metricFilter []string) core.MetricValues {
	if len(metricFilter) == 0 {
		return values
	}
	filtered := make(core.MetricValues, len(values))
	for key, value := range values {
		if keyAllowed(key, metricFilter) {
			filtered[key] = value
		}
	}
	return filtered
}

func keyAllowed(key string, metricFilter []string) bool {
	if len(metricFilter) == 0 {
		return true
	}
	for _, allowed := range metricFilter {
		if key == allowed {
			return true
		}
	}
	return false
}

// Upsert validates and saves one period's record. The first record an entity
// ever saves also snapshots the current catalog as its category's default
// metric template; any later save must not, or one member's edits would
// silently overwrite the whole category's field set.
func (s *FinancialService) Upsert(ctx context.Context, record core.FinancialRecord, overwrite bool) (core.FinancialRecord, error) {
	if err := record.Validate(); err != nil {
		return core.FinancialRecord{}, err
	}
	if record.PeriodLabel == "" {
		if p, err := core.ParsePeriod(record.PeriodISO); err == nil {
			record.PeriodLabel = p.Label()
		}
	}

	first, err := s.isFirstRecordForEntity(ctx, record.Symbol)
	if err != nil {
		return core.FinancialRecord{}, err
	}

	saveCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	saved, err := s.records.UpsertRecord(saveCtx, record, overwrite)
	if err != nil {
		return core.FinancialRecord{}, mapStoreErr(err)
	}

	if first {
		s.snapshotCategoryDefaults(ctx, record.Symbol)
	}
	return saved, nil
}

// isFirstRecordForEntity reports whether the symbol has no records yet,
// across both period types. It is checked once, before the save, so the save
// itself cannot flip the answer.
func (s *FinancialService) isFirstRecordForEntity(ctx context.Context, symbol string) (bool, error) {
	countCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	count, err := s.records.CountRecords(countCtx, symbol)
	if err != nil {
		return false, fmt.Errorf("count existing records: %w", mapStoreErr(err))
	}
	return count == 0, nil
}

// snapshotCategoryDefaults stores the current full catalog, in order, as the
// default metric list of the entity's category. Best-effort: a failure here
// must not fail the record save that triggered it.
func (s *FinancialService) snapshotCategoryDefaults(ctx context.Context, symbol string) {
	snapCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	company, err := s.companies.GetCompany(snapCtx, symbol)
	if err != nil {
		slog.DebugContext(ctx, "No company for category snapshot",
			"symbol", symbol, "error", err)
		return
	}
	if company.Category == "" {
		return
	}

	defs, err := s.catalog.ListDefinitions(snapCtx, "")
	if err != nil {
		slog.WarnContext(ctx, "Failed to read catalog for category snapshot",
			"symbol", symbol, "category", company.Category, "error", err)
		return
	}

	if err := s.categories.SetCategoryDefaults(snapCtx, company.Category, defs); err != nil {
		slog.WarnContext(ctx, "Failed to store category defaults",
			"symbol", symbol, "category", company.Category, "error", err)
		return
	}

	slog.InfoContext(ctx, "Category defaults snapshotted from first record",
		"symbol", symbol, "category", company.Category, "metric_count", len(defs))
}

// Delete removes the record for one period.
func (s *FinancialService) Delete(ctx context.Context, symbol string, periodType core.PeriodType, periodISO string) error {
	if symbol == "" {
		return core.ErrEmptySymbol
	}
	if !periodType.Valid() {
		return fmt.Errorf("%w: period type %q", core.ErrValidation, periodType)
	}
	if _, err := core.ParsePeriod(periodISO); err != nil {
		return err
	}

	delCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	return mapStoreErr(s.records.DeleteRecord(delCtx, symbol, periodType, periodISO))
}
