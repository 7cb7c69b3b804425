package core

// The standard metric schema. These are the only keys allowed in
// FinancialRecord.Metrics; everything else is a custom metric. The same set
// is seeded into the metric_definitions table by migration so the base
// catalog and the schema cannot drift apart.
const (
	MetricRevenue          = "revenue"
	MetricOperatingExpense = "operatingExpense"
	MetricNetIncome        = "netIncome"
	MetricNetProfitMargin  = "netProfitMargin"
	MetricEPS              = "eps"
	MetricEBITDA           = "ebitda"
	MetricEffectiveTaxRate = "effectiveTaxRate"

	MetricCashAndShortTermInvestments = "cashAndShortTermInvestments"
	MetricTotalAssets                 = "totalAssets"
	MetricTotalLiabilities            = "totalLiabilities"
	MetricTotalEquity                 = "totalEquity"
	MetricSharesOutstanding           = "sharesOutstanding"
	MetricPriceToBook                 = "priceToBook"
	MetricReturnOnAssets              = "returnOnAssets"
	MetricReturnOnCapital             = "returnOnCapital"

	MetricCashFromOperations = "cashFromOperations"
	MetricCashFromInvesting  = "cashFromInvesting"
	MetricCashFromFinancing  = "cashFromFinancing"
	MetricNetChangeInCash    = "netChangeInCash"
	MetricFreeCashFlow       = "freeCashFlow"
)

var standardMetrics = map[string]Section{
	MetricRevenue:          SectionIncome,
	MetricOperatingExpense: SectionIncome,
	MetricNetIncome:        SectionIncome,
	MetricNetProfitMargin:  SectionIncome,
	MetricEPS:              SectionIncome,
	MetricEBITDA:           SectionIncome,
	MetricEffectiveTaxRate: SectionIncome,

	MetricCashAndShortTermInvestments: SectionBalance,
	MetricTotalAssets:                 SectionBalance,
	MetricTotalLiabilities:            SectionBalance,
	MetricTotalEquity:                 SectionBalance,
	MetricSharesOutstanding:           SectionBalance,
	MetricPriceToBook:                 SectionBalance,
	MetricReturnOnAssets:              SectionBalance,
	MetricReturnOnCapital:             SectionBalance,

	MetricCashFromOperations: SectionCashflow,
	MetricCashFromInvesting:  SectionCashflow,
	MetricCashFromFinancing:  SectionCashflow,
	MetricNetChangeInCash:    SectionCashflow,
	MetricFreeCashFlow:       SectionCashflow,
}

// IsStandardMetric reports whether key belongs to the fixed statement schema.
func IsStandardMetric(key string) bool {
	_, ok := standardMetrics[key]
	return ok
}

// StandardMetricSection returns the statement section a standard key belongs
// to, and false for unknown keys.
func StandardMetricSection(key string) (Section, bool) {
	s, ok := standardMetrics[key]
	return s, ok
}
