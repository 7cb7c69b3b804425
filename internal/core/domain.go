package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error taxonomy. Handlers map these to HTTP status codes; everything the
// services return wraps one of them (or is an internal error).
var (
	ErrValidation      = errors.New("invalid input")
	ErrConflict        = errors.New("already exists")
	ErrNotFound        = errors.New("not found")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrSyncUnavailable = errors.New("sync is not configured")

	ErrInvalidPeriod = fmt.Errorf("%w: malformed period", ErrValidation)
	ErrUnknownMetric = fmt.Errorf("%w: unknown metric key", ErrValidation)
	ErrEmptySymbol   = fmt.Errorf("%w: empty symbol", ErrValidation)
)

type Section string

const (
	SectionIncome   Section = "income"
	SectionBalance  Section = "balance"
	SectionCashflow Section = "cashflow"
)

func (s Section) Valid() bool {
	return s == SectionIncome || s == SectionBalance || s == SectionCashflow
}

// MetricValues maps metric keys to reported values. A missing key means
// "no data", never zero.
type MetricValues map[string]float64

// FinancialRecord is the single current statement snapshot for one
// (symbol, period type, period). Metrics holds schema-known keys only;
// user-defined metrics live in Custom under arbitrary keys. The pair is kept
// separate on purpose so the schema/no-schema boundary stays visible.
type FinancialRecord struct {
	Symbol      string       `json:"symbol"`
	PeriodType  PeriodType   `json:"periodType"`
	PeriodISO   string       `json:"periodISO"`
	PeriodLabel string       `json:"periodLabel"`
	Metrics     MetricValues `json:"metrics"`
	Custom      MetricValues `json:"custom,omitempty"`
	CreatedAt   time.Time    `json:"createdAt,omitempty"`
	UpdatedAt   time.Time    `json:"updatedAt,omitempty"`
}

func (r FinancialRecord) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return ErrEmptySymbol
	}
	if !r.PeriodType.Valid() {
		return fmt.Errorf("%w: period type %q", ErrValidation, r.PeriodType)
	}
	p, err := ParsePeriod(r.PeriodISO)
	if err != nil {
		return err
	}
	if p.Type != r.PeriodType {
		return fmt.Errorf("%w: key %q is not a %s period", ErrInvalidPeriod, r.PeriodISO, r.PeriodType)
	}
	for key := range r.Metrics {
		if !IsStandardMetric(key) {
			return fmt.Errorf("%w: %q (user-defined metrics go in custom)", ErrUnknownMetric, key)
		}
	}
	for key := range r.Custom {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("%w: empty custom metric key", ErrValidation)
		}
	}
	return nil
}

// MetricDefinition is a catalog entry describing one metric key and where it
// renders. Order sorts within a section; gaps are fine, ties break by name.
type MetricDefinition struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Section   Section   `json:"section"`
	Unit      string    `json:"unit"`
	Order     int       `json:"order"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

func (d MetricDefinition) Validate() error {
	key := strings.TrimSpace(d.Key)
	if key == "" {
		return fmt.Errorf("%w: empty metric key", ErrValidation)
	}
	if strings.ContainsAny(key, " \t\n") {
		return fmt.Errorf("%w: metric key %q contains whitespace", ErrValidation, d.Key)
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: empty metric name", ErrValidation)
	}
	if !d.Section.Valid() {
		return fmt.Errorf("%w: section %q", ErrValidation, d.Section)
	}
	return nil
}

// CompanyBeta carries the exchange-published beta figures.
type CompanyBeta struct {
	TriASIBetaValue  float64 `json:"triASIBetaValue,omitempty"`
	BetaValueSPSL    float64 `json:"betaValueSPSL,omitempty"`
	TriASIBetaPeriod string  `json:"triASIBetaPeriod,omitempty"`
	Quarter          int     `json:"quarter,omitempty"`
}

// Company is a tracked listed entity. Identity and category are entered by
// users; the quote block is overwritten wholesale by the market-data sync
// worker and never edited by hand.
type Company struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	ISIN     string `json:"isin,omitempty"`
	Category string `json:"category,omitempty"`

	IssueDate      string  `json:"issueDate,omitempty"`
	QuantityIssued float64 `json:"quantityIssued,omitempty"`
	ParValue       float64 `json:"parValue,omitempty"`

	LastTradedPrice  float64 `json:"lastTradedPrice,omitempty"`
	ClosingPrice     float64 `json:"closingPrice,omitempty"`
	PreviousClose    float64 `json:"previousClose,omitempty"`
	HiTrade          float64 `json:"hiTrade,omitempty"`
	LowTrade         float64 `json:"lowTrade,omitempty"`
	Change           float64 `json:"change,omitempty"`
	ChangePercentage float64 `json:"changePercentage,omitempty"`

	ShareVolume float64 `json:"tdyShareVolume,omitempty"`
	TradeVolume float64 `json:"tdyTradeVolume,omitempty"`
	Turnover    float64 `json:"tdyTurnover,omitempty"`

	MarketCap           float64 `json:"marketCap,omitempty"`
	MarketCapPercentage float64 `json:"marketCapPercentage,omitempty"`

	Beta     *CompanyBeta `json:"beta,omitempty"`
	LogoPath string       `json:"logoPath,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

func (c Company) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return ErrEmptySymbol
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: empty company name", ErrValidation)
	}
	return nil
}
