package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stocktracker/internal/core"
)

// fakeRecordStore keeps records in a map keyed by symbol/type/iso and mimics
// the store's ordering and merge semantics closely enough for the services
// to be tested against it.
type fakeRecordStore struct {
	records map[string]core.FinancialRecord

	findWindowErr   error
	findWindowDelay time.Duration
	// delaySymbol restricts findWindowDelay to one symbol; empty delays all.
	delaySymbol string
	upsertErr   error
	countErr    error
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: make(map[string]core.FinancialRecord)}
}

func recordKey(symbol string, pt core.PeriodType, iso string) string {
	return fmt.Sprintf("%s|%s|%s", symbol, pt, iso)
}

func (f *fakeRecordStore) put(rec core.FinancialRecord) {
	f.records[recordKey(rec.Symbol, rec.PeriodType, rec.PeriodISO)] = rec
}

func (f *fakeRecordStore) FindWindow(ctx context.Context, symbol string, pt core.PeriodType, limit int) ([]core.FinancialRecord, error) {
	if f.findWindowDelay > 0 && (f.delaySymbol == "" || f.delaySymbol == symbol) {
		select {
		case <-time.After(f.findWindowDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.findWindowErr != nil {
		return nil, f.findWindowErr
	}

	var out []core.FinancialRecord
	for _, rec := range f.records {
		if rec.Symbol == symbol && rec.PeriodType == pt {
			out = append(out, rec)
		}
	}
	// Newest first, like the real store.
	sort.Slice(out, func(i, j int) bool {
		return core.CompareISO(out[i].PeriodISO, out[j].PeriodISO) > 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRecordStore) FindByKeys(ctx context.Context, symbol string, pt core.PeriodType, isoKeys []string) (map[string]core.FinancialRecord, error) {
	out := make(map[string]core.FinancialRecord)
	for _, iso := range isoKeys {
		if rec, ok := f.records[recordKey(symbol, pt, iso)]; ok {
			out[iso] = rec
		}
	}
	return out, nil
}

func (f *fakeRecordStore) UpsertRecord(ctx context.Context, rec core.FinancialRecord, overwrite bool) (core.FinancialRecord, error) {
	if f.upsertErr != nil {
		return core.FinancialRecord{}, f.upsertErr
	}

	key := recordKey(rec.Symbol, rec.PeriodType, rec.PeriodISO)
	existing, ok := f.records[key]
	if !ok {
		f.records[key] = rec
		return rec, nil
	}
	if !overwrite {
		return core.FinancialRecord{}, core.ErrConflict
	}

	merged := existing
	if merged.Metrics == nil {
		merged.Metrics = core.MetricValues{}
	}
	if merged.Custom == nil {
		merged.Custom = core.MetricValues{}
	}
	for k, v := range rec.Metrics {
		merged.Metrics[k] = v
	}
	for k, v := range rec.Custom {
		merged.Custom[k] = v
	}
	if rec.PeriodLabel != "" {
		merged.PeriodLabel = rec.PeriodLabel
	}
	f.records[key] = merged
	return merged, nil
}

func (f *fakeRecordStore) DeleteRecord(ctx context.Context, symbol string, pt core.PeriodType, iso string) error {
	key := recordKey(symbol, pt, iso)
	if _, ok := f.records[key]; !ok {
		return core.ErrNotFound
	}
	delete(f.records, key)
	return nil
}

func (f *fakeRecordStore) CountRecords(ctx context.Context, symbol string) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	var n int64
	for _, rec := range f.records {
		if rec.Symbol == symbol {
			n++
		}
	}
	return n, nil
}

type fakeCatalogStore struct {
	defs map[string]core.MetricDefinition

	listErr     error
	setOrderErr map[string]error
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		defs:        make(map[string]core.MetricDefinition),
		setOrderErr: make(map[string]error),
	}
}

func (f *fakeCatalogStore) ListDefinitions(ctx context.Context, section core.Section) ([]core.MetricDefinition, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []core.MetricDefinition
	for _, def := range f.defs {
		if section == "" || def.Section == section {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Section != out[j].Section {
			return out[i].Section < out[j].Section
		}
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (f *fakeCatalogStore) GetDefinition(ctx context.Context, key string) (core.MetricDefinition, error) {
	def, ok := f.defs[key]
	if !ok {
		return core.MetricDefinition{}, core.ErrNotFound
	}
	return def, nil
}

func (f *fakeCatalogStore) CreateDefinition(ctx context.Context, def core.MetricDefinition) (core.MetricDefinition, error) {
	if _, ok := f.defs[def.Key]; ok {
		return core.MetricDefinition{}, core.ErrConflict
	}
	maxOrder := -1
	for _, d := range f.defs {
		if d.Section == def.Section && d.Order > maxOrder {
			maxOrder = d.Order
		}
	}
	def.Order = maxOrder + 1
	f.defs[def.Key] = def
	return def, nil
}

func (f *fakeCatalogStore) UpdateDefinition(ctx context.Context, def core.MetricDefinition) (core.MetricDefinition, error) {
	existing, ok := f.defs[def.Key]
	if !ok {
		return core.MetricDefinition{}, core.ErrNotFound
	}
	def.Order = existing.Order
	f.defs[def.Key] = def
	return def, nil
}

func (f *fakeCatalogStore) SetDefinitionOrder(ctx context.Context, key string, order int) error {
	if err, ok := f.setOrderErr[key]; ok {
		return err
	}
	def, ok := f.defs[key]
	if !ok {
		return core.ErrNotFound
	}
	def.Order = order
	f.defs[key] = def
	return nil
}

func (f *fakeCatalogStore) DeleteDefinition(ctx context.Context, key string) error {
	if _, ok := f.defs[key]; !ok {
		return core.ErrNotFound
	}
	delete(f.defs, key)
	return nil
}

type fakeCategoryStore struct {
	defaults map[string][]core.MetricDefinition
	setErr   error
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{defaults: make(map[string][]core.MetricDefinition)}
}

func (f *fakeCategoryStore) GetCategoryDefaults(ctx context.Context, category string) ([]core.MetricDefinition, error) {
	defs, ok := f.defaults[category]
	if !ok {
		return nil, core.ErrNotFound
	}
	return defs, nil
}

func (f *fakeCategoryStore) SetCategoryDefaults(ctx context.Context, category string, defs []core.MetricDefinition) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.defaults[category] = defs
	return nil
}

func (f *fakeCategoryStore) DeleteCategoryDefaults(ctx context.Context, category string) error {
	if _, ok := f.defaults[category]; !ok {
		return core.ErrNotFound
	}
	delete(f.defaults, category)
	return nil
}

type fakeCompanyStore struct {
	companies map[string]core.Company
}

func newFakeCompanyStore() *fakeCompanyStore {
	return &fakeCompanyStore{companies: make(map[string]core.Company)}
}

func (f *fakeCompanyStore) ListCompanies(ctx context.Context, query string, limit int) ([]core.Company, error) {
	var out []core.Company
	for _, c := range f.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCompanyStore) GetCompany(ctx context.Context, symbol string) (core.Company, error) {
	c, ok := f.companies[symbol]
	if !ok {
		return core.Company{}, core.ErrNotFound
	}
	return c, nil
}

func (f *fakeCompanyStore) CreateCompany(ctx context.Context, company core.Company) (core.Company, error) {
	if _, ok := f.companies[company.Symbol]; ok {
		return core.Company{}, core.ErrConflict
	}
	f.companies[company.Symbol] = company
	return company, nil
}

func (f *fakeCompanyStore) UpdateCompany(ctx context.Context, company core.Company) (core.Company, error) {
	if _, ok := f.companies[company.Symbol]; !ok {
		return core.Company{}, core.ErrNotFound
	}
	f.companies[company.Symbol] = company
	return company, nil
}

func (f *fakeCompanyStore) DeleteCompany(ctx context.Context, symbol string) error {
	if _, ok := f.companies[symbol]; !ok {
		return core.ErrNotFound
	}
	delete(f.companies, symbol)
	return nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) PublishCompanySync(ctx context.Context, symbol string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, symbol)
	return nil
}
