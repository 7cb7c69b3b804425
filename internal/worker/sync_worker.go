// Package worker refreshes company market data from the exchange, driven by
// sync messages from the API and by a periodic full refresh.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"stocktracker/internal/amqp"
	"stocktracker/internal/core"
)

// CompanyFetcher pulls current quote data for one symbol from the exchange.
type CompanyFetcher interface {
	FetchCompany(ctx context.Context, symbol string) (core.Company, error)
}

// CompanyUpserter writes refreshed quote data into the registry.
type CompanyUpserter interface {
	UpsertCompany(ctx context.Context, company core.Company) (core.Company, error)
	ListCompanies(ctx context.Context, query string, limit int) ([]core.Company, error)
}

// SyncWorker applies market-data refreshes to the company registry.
type SyncWorker struct {
	fetcher     CompanyFetcher
	store       CompanyUpserter
	concurrency int
}

func NewSyncWorker(fetcher CompanyFetcher, store CompanyUpserter, concurrency int) *SyncWorker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &SyncWorker{
		fetcher:     fetcher,
		store:       store,
		concurrency: concurrency,
	}
}

// HandleSyncMessage processes a single company sync request from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.CompanySyncMessage) error {
	slog.InfoContext(ctx, "Processing company sync message", "symbol", msg.Symbol)
	return w.refreshOne(ctx, msg.Symbol)
}

func (w *SyncWorker) refreshOne(ctx context.Context, symbol string) error {
	company, err := w.fetcher.FetchCompany(ctx, symbol)
	if err != nil {
		return fmt.Errorf("fetch company %q: %w", symbol, err)
	}

	if _, err := w.store.UpsertCompany(ctx, company); err != nil {
		return fmt.Errorf("store company %q: %w", symbol, err)
	}

	slog.InfoContext(ctx, "Company market data refreshed",
		"symbol", company.Symbol,
		"last_traded_price", company.LastTradedPrice)
	return nil
}

// RefreshAll re-fetches every registered company, bounded by the configured
// concurrency. A symbol the exchange no longer knows is logged and skipped;
// any other failure aborts the sweep.
func (w *SyncWorker) RefreshAll(ctx context.Context) error {
	companies, err := w.store.ListCompanies(ctx, "", 0)
	if err != nil {
		return fmt.Errorf("list companies: %w", err)
	}
	if len(companies) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, company := range companies {
		g.Go(func() error {
			err := w.refreshOne(gctx, company.Symbol)
			if errors.Is(err, core.ErrNotFound) {
				slog.WarnContext(gctx, "Exchange no longer lists symbol, skipping",
					"symbol", company.Symbol)
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh sweep: %w", err)
	}

	slog.InfoContext(ctx, "Full market data refresh complete", "companies", len(companies))
	return nil
}

// RunPeriodicRefresh sweeps the registry on a fixed interval until ctx is
// cancelled. Errors are logged, not returned: the next tick retries.
func (w *SyncWorker) RunPeriodicRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Periodic market data refresh started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Periodic refresh stopped", "reason", ctx.Err())
			return
		case <-ticker.C:
			if err := w.RefreshAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic refresh failed", "error", err)
			}
		}
	}
}
