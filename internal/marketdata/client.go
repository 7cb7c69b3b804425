// Package marketdata fetches listed-company quote data from the exchange's
// public summary API. The API takes form-encoded POSTs and answers JSON.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stocktracker/internal/cache"
	"stocktracker/internal/core"
)

const (
	defaultTimeout = 10 * time.Second
	quoteCacheTTL  = time.Minute
)

// symbolInfo is the quote block of the summary response. Field names follow
// the exchange payload.
type symbolInfo struct {
	Symbol              string  `json:"symbol"`
	Name                string  `json:"name"`
	ISIN                string  `json:"isin"`
	IssueDate           string  `json:"issueDate"`
	QuantityIssued      float64 `json:"quantityIssued"`
	ParValue            float64 `json:"parValue"`
	LastTradedPrice     float64 `json:"lastTradedPrice"`
	ClosingPrice        float64 `json:"closingPrice"`
	PreviousClose       float64 `json:"previousClose"`
	HiTrade             float64 `json:"hiTrade"`
	LowTrade            float64 `json:"lowTrade"`
	Change              float64 `json:"change"`
	ChangePercentage    float64 `json:"changePercentage"`
	TdyShareVolume      float64 `json:"tdyShareVolume"`
	TdyTradeVolume      float64 `json:"tdyTradeVolume"`
	TdyTurnover         float64 `json:"tdyTurnover"`
	MarketCap           float64 `json:"marketCap"`
	MarketCapPercentage float64 `json:"marketCapPercentage"`
}

type betaInfo struct {
	TriASIBetaValue  float64 `json:"triASIBetaValue"`
	BetaValueSPSL    float64 `json:"betaValueSPSL"`
	TriASIBetaPeriod string  `json:"triASIBetaPeriod"`
	Quarter          int     `json:"quarter"`
}

type logoInfo struct {
	Path string `json:"path"`
}

type summaryResponse struct {
	SymbolInfo *symbolInfo `json:"reqSymbolInfo"`
	BetaInfo   *betaInfo   `json:"reqSymbolBetaInfo"`
	Logo       *logoInfo   `json:"reqLogo"`
}

// Client talks to the exchange API. Quote summaries are cached briefly so a
// burst of sync requests for the same symbol costs one upstream call.
type Client struct {
	baseURL string
	http    *http.Client
	quotes  *cache.LRUCache[core.Company]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		quotes:  cache.NewLRUCache[core.Company](256, quoteCacheTTL),
	}
}

// FetchCompany retrieves the current quote summary for one symbol. A
// response without the quote block means the exchange does not know the
// symbol; that maps to core.ErrNotFound so callers need not understand the
// payload shape.
func (c *Client) FetchCompany(ctx context.Context, symbol string) (core.Company, error) {
	if symbol == "" {
		return core.Company{}, core.ErrEmptySymbol
	}
	if company, ok := c.quotes.Get(symbol); ok {
		return company, nil
	}

	form := url.Values{}
	form.Set("symbol", symbol)

	resp, err := c.postForm(ctx, "/companyInfoSummery", form)
	if err != nil {
		return core.Company{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.Company{}, fmt.Errorf("exchange API returned %s for %q", resp.Status, symbol)
	}

	var summary summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return core.Company{}, fmt.Errorf("decode exchange response: %w", err)
	}
	if summary.SymbolInfo == nil {
		return core.Company{}, fmt.Errorf("%w: exchange has no data for %q", core.ErrNotFound, symbol)
	}

	company := mapCompany(summary)
	c.quotes.Set(symbol, company)
	return company, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", core.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("exchange request: %w", err)
	}
	return resp, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func mapCompany(summary summaryResponse) core.Company {
	info := summary.SymbolInfo
	company := core.Company{
		Symbol:              info.Symbol,
		Name:                info.Name,
		ISIN:                info.ISIN,
		IssueDate:           info.IssueDate,
		QuantityIssued:      info.QuantityIssued,
		ParValue:            info.ParValue,
		LastTradedPrice:     info.LastTradedPrice,
		ClosingPrice:        info.ClosingPrice,
		PreviousClose:       info.PreviousClose,
		HiTrade:             info.HiTrade,
		LowTrade:            info.LowTrade,
		Change:              info.Change,
		ChangePercentage:    info.ChangePercentage,
		ShareVolume:         info.TdyShareVolume,
		TradeVolume:         info.TdyTradeVolume,
		Turnover:            info.TdyTurnover,
		MarketCap:           info.MarketCap,
		MarketCapPercentage: info.MarketCapPercentage,
	}
	if summary.BetaInfo != nil {
		company.Beta = &core.CompanyBeta{
			TriASIBetaValue:  summary.BetaInfo.TriASIBetaValue,
			BetaValueSPSL:    summary.BetaInfo.BetaValueSPSL,
			TriASIBetaPeriod: summary.BetaInfo.TriASIBetaPeriod,
			Quarter:          summary.BetaInfo.Quarter,
		}
	}
	if summary.Logo != nil {
		company.LogoPath = summary.Logo.Path
	}
	return company
}
