package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stocktracker/internal/core"
)

const defaultCompanyListLimit = 50

// CompanyService owns the company registry and hands sync requests off to
// the market-data worker.
type CompanyService struct {
	companies CompanyStore
	publisher SyncPublisher
	timeout   time.Duration
}

// NewCompanyService wires the registry. publisher may be nil when the
// message broker is not configured; sync requests then fail with
// core.ErrSyncUnavailable instead of panicking.
func NewCompanyService(companies CompanyStore, publisher SyncPublisher, timeout time.Duration) *CompanyService {
	return &CompanyService{companies: companies, publisher: publisher, timeout: timeout}
}

func (s *CompanyService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// List returns companies matching query by symbol or name, ordered by
// symbol.
func (s *CompanyService) List(ctx context.Context, query string, limit int) ([]core.Company, error) {
	if limit <= 0 {
		limit = defaultCompanyListLimit
	}

	listCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	companies, err := s.companies.ListCompanies(listCtx, query, limit)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return companies, nil
}

func (s *CompanyService) Get(ctx context.Context, symbol string) (core.Company, error) {
	if symbol == "" {
		return core.Company{}, core.ErrEmptySymbol
	}

	getCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	company, err := s.companies.GetCompany(getCtx, symbol)
	if err != nil {
		return core.Company{}, mapStoreErr(err)
	}
	return company, nil
}

func (s *CompanyService) Create(ctx context.Context, company core.Company) (core.Company, error) {
	if err := company.Validate(); err != nil {
		return core.Company{}, err
	}

	createCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	created, err := s.companies.CreateCompany(createCtx, company)
	if err != nil {
		return core.Company{}, mapStoreErr(err)
	}
	slog.InfoContext(ctx, "Company registered", "symbol", created.Symbol)
	return created, nil
}

func (s *CompanyService) Update(ctx context.Context, company core.Company) (core.Company, error) {
	if err := company.Validate(); err != nil {
		return core.Company{}, err
	}

	updateCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	updated, err := s.companies.UpdateCompany(updateCtx, company)
	if err != nil {
		return core.Company{}, mapStoreErr(err)
	}
	return updated, nil
}

func (s *CompanyService) Delete(ctx context.Context, symbol string) error {
	if symbol == "" {
		return core.ErrEmptySymbol
	}

	delCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	return mapStoreErr(s.companies.DeleteCompany(delCtx, symbol))
}

// RequestSync queues a market-data refresh for one symbol. The refresh runs
// in the worker; this only confirms the request was accepted by the broker.
func (s *CompanyService) RequestSync(ctx context.Context, symbol string) error {
	if symbol == "" {
		return core.ErrEmptySymbol
	}
	if s.publisher == nil {
		return fmt.Errorf("%w: message broker not configured", core.ErrSyncUnavailable)
	}

	if err := s.publisher.PublishCompanySync(ctx, symbol); err != nil {
		return fmt.Errorf("%w: %v", core.ErrSyncUnavailable, err)
	}
	slog.InfoContext(ctx, "Company sync requested", "symbol", symbol)
	return nil
}
