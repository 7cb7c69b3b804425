package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"stocktracker/internal/core"
)

const (
	// MinCompareSymbols and MaxCompareSymbols bound a comparison request.
	MinCompareSymbols = 2
	MaxCompareSymbols = 5

	// DefaultCompareWindow is how many periods each entity contributes when
	// the caller does not say.
	DefaultCompareWindow = 5
)

// CompareDataset is one entity's column of a comparison: Values is aligned
// with the Comparison's Periods axis, nil where the entity has no value for
// that period.
type CompareDataset struct {
	Symbol string     `json:"symbol"`
	Values []*float64 `json:"values"`
}

// Comparison is a single metric across several entities on a shared period
// axis.
type Comparison struct {
	MetricKey  string           `json:"metricKey"`
	PeriodType core.PeriodType  `json:"periodType"`
	Periods    []string         `json:"periods"`
	Datasets   []CompareDataset `json:"datasets"`
}

// CompareService aligns one metric across several entities.
type CompareService struct {
	records RecordStore
	timeout time.Duration
}

func NewCompareService(records RecordStore, timeout time.Duration) *CompareService {
	return &CompareService{records: records, timeout: timeout}
}

// Compare fetches each entity's limit most recent records concurrently and
// aligns the requested metric on the union of their periods. A symbol whose
// fetch fails or times out contributes an empty series rather than failing
// the request: partial comparisons are still useful, a 504 for four good
// symbols and one slow one is not.
func (s *CompareService) Compare(ctx context.Context, symbols []string, metricKey string, periodType core.PeriodType, limit int) (Comparison, error) {
	if len(symbols) < MinCompareSymbols || len(symbols) > MaxCompareSymbols {
		return Comparison{}, fmt.Errorf("%w: comparison takes %d to %d symbols, got %d",
			core.ErrValidation, MinCompareSymbols, MaxCompareSymbols, len(symbols))
	}
	if metricKey == "" {
		return Comparison{}, fmt.Errorf("%w: empty metric key", core.ErrValidation)
	}
	if !periodType.Valid() {
		return Comparison{}, fmt.Errorf("%w: period type %q", core.ErrValidation, periodType)
	}
	for _, symbol := range symbols {
		if symbol == "" {
			return Comparison{}, core.ErrEmptySymbol
		}
	}
	if limit <= 0 {
		limit = DefaultCompareWindow
	}
	if limit > MaxWindow {
		limit = MaxWindow
	}

	series := make([][]core.FinancialRecord, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		g.Go(func() error {
			fetchCtx := gctx
			var cancel context.CancelFunc = func() {}
			if s.timeout > 0 {
				fetchCtx, cancel = context.WithTimeout(gctx, s.timeout)
			}
			defer cancel()

			records, err := s.records.FindWindow(fetchCtx, symbol, periodType, limit)
			if err != nil {
				slog.WarnContext(ctx, "Comparison fetch failed, symbol will be empty",
					"symbol", symbol, "error", err)
				return nil
			}
			series[i] = records
			return nil
		})
	}
	// Goroutines never return errors, but Wait still fences the writes to
	// series before the reads below.
	if err := g.Wait(); err != nil {
		return Comparison{}, err
	}

	periods := unionPeriods(series)

	comparison := Comparison{
		MetricKey:  metricKey,
		PeriodType: periodType,
		Periods:    periods,
		Datasets:   make([]CompareDataset, 0, len(symbols)),
	}
	for i, symbol := range symbols {
		comparison.Datasets = append(comparison.Datasets, CompareDataset{
			Symbol: symbol,
			Values: alignValues(series[i], periods, metricKey),
		})
	}
	return comparison, nil
}

// unionPeriods collects every period key appearing in any series, sorted in
// period order.
func unionPeriods(series [][]core.FinancialRecord) []string {
	seen := make(map[string]bool)
	var periods []string
	for _, records := range series {
		for _, rec := range records {
			if !seen[rec.PeriodISO] {
				seen[rec.PeriodISO] = true
				periods = append(periods, rec.PeriodISO)
			}
		}
	}
	sort.Slice(periods, func(i, j int) bool {
		return core.CompareISO(periods[i], periods[j]) < 0
	})
	return periods
}

// alignValues projects one entity's records onto the shared period axis.
// Standard values shadow custom ones when a key exists in both.
func alignValues(records []core.FinancialRecord, periods []string, metricKey string) []*float64 {
	byPeriod := make(map[string]core.FinancialRecord, len(records))
	for _, rec := range records {
		byPeriod[rec.PeriodISO] = rec
	}

	values := make([]*float64, len(periods))
	for i, iso := range periods {
		rec, ok := byPeriod[iso]
		if !ok {
			continue
		}
		if v, ok := rec.Metrics[metricKey]; ok {
			values[i] = &v
			continue
		}
		if v, ok := rec.Custom[metricKey]; ok {
			values[i] = &v
		}
	}
	return values
}
