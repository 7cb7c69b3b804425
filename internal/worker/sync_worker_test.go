package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"stocktracker/internal/amqp"
	"stocktracker/internal/core"
)

type fakeFetcher struct {
	mu        sync.Mutex
	companies map[string]core.Company
	errs      map[string]error
	calls     int
}

func (f *fakeFetcher) FetchCompany(ctx context.Context, symbol string) (core.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[symbol]; ok {
		return core.Company{}, err
	}
	c, ok := f.companies[symbol]
	if !ok {
		return core.Company{}, core.ErrNotFound
	}
	return c, nil
}

type fakeRegistry struct {
	mu        sync.Mutex
	companies map[string]core.Company
	upsertErr error
}

func (f *fakeRegistry) UpsertCompany(ctx context.Context, company core.Company) (core.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return core.Company{}, f.upsertErr
	}
	f.companies[company.Symbol] = company
	return company, nil
}

func (f *fakeRegistry) ListCompanies(ctx context.Context, query string, limit int) ([]core.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Company
	for _, c := range f.companies {
		out = append(out, c)
	}
	return out, nil
}

func TestHandleSyncMessage(t *testing.T) {
	fetcher := &fakeFetcher{companies: map[string]core.Company{
		"LOLC": {Symbol: "LOLC", Name: "LOLC Holdings", LastTradedPrice: 545},
	}}
	registry := &fakeRegistry{companies: map[string]core.Company{}}

	w := NewSyncWorker(fetcher, registry, 2)
	if err := w.HandleSyncMessage(context.Background(), amqp.NewCompanySyncMessage("LOLC")); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if registry.companies["LOLC"].LastTradedPrice != 545 {
		t.Fatalf("quote not stored: %+v", registry.companies["LOLC"])
	}
}

func TestHandleSyncMessageUnknownSymbol(t *testing.T) {
	fetcher := &fakeFetcher{companies: map[string]core.Company{}}
	registry := &fakeRegistry{companies: map[string]core.Company{}}

	w := NewSyncWorker(fetcher, registry, 2)
	err := w.HandleSyncMessage(context.Background(), amqp.NewCompanySyncMessage("GHOST"))
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshAllSkipsDelistedSymbols(t *testing.T) {
	fetcher := &fakeFetcher{companies: map[string]core.Company{
		"AAA": {Symbol: "AAA", Name: "A", LastTradedPrice: 1},
		"BBB": {Symbol: "BBB", Name: "B", LastTradedPrice: 2},
	}}
	registry := &fakeRegistry{companies: map[string]core.Company{
		"AAA":  {Symbol: "AAA", Name: "A"},
		"BBB":  {Symbol: "BBB", Name: "B"},
		"GONE": {Symbol: "GONE", Name: "Delisted"},
	}}

	w := NewSyncWorker(fetcher, registry, 2)
	if err := w.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	if fetcher.calls != 3 {
		t.Fatalf("expected 3 fetches, got %d", fetcher.calls)
	}
	if registry.companies["AAA"].LastTradedPrice != 1 || registry.companies["BBB"].LastTradedPrice != 2 {
		t.Fatalf("quotes not refreshed: %+v", registry.companies)
	}
}

func TestRefreshAllPropagatesStoreFailure(t *testing.T) {
	fetcher := &fakeFetcher{companies: map[string]core.Company{
		"AAA": {Symbol: "AAA", Name: "A"},
	}}
	registry := &fakeRegistry{
		companies: map[string]core.Company{"AAA": {Symbol: "AAA", Name: "A"}},
		upsertErr: errors.New("disk full"),
	}

	w := NewSyncWorker(fetcher, registry, 2)
	if err := w.RefreshAll(context.Background()); err == nil {
		t.Fatal("expected error from failed upsert")
	}
}

func TestRefreshAllEmptyRegistry(t *testing.T) {
	w := NewSyncWorker(&fakeFetcher{}, &fakeRegistry{companies: map[string]core.Company{}}, 2)
	if err := w.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll on empty registry: %v", err)
	}
}
