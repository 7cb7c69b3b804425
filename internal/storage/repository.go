package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stocktracker/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the single persistent store: financial records, the
// metric catalog, category defaults and the company registry.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the store is reachable, for readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func encodeMetrics(m core.MetricValues) (string, error) {
	if m == nil {
		m = core.MetricValues{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metrics: %w", err)
	}
	return string(b), nil
}

func decodeMetrics(s string) (core.MetricValues, error) {
	m := core.MetricValues{}
	if s == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	return m, nil
}

// --- Financial records ---

const recordColumns = `symbol, period_type, period_iso, period_label, metrics, custom, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (core.FinancialRecord, error) {
	var (
		rec              core.FinancialRecord
		metrics, custom  string
		created, updated time.Time
	)
	err := row.Scan(&rec.Symbol, &rec.PeriodType, &rec.PeriodISO, &rec.PeriodLabel,
		&metrics, &custom, &created, &updated)
	if err != nil {
		return rec, err
	}
	rec.CreatedAt, rec.UpdatedAt = created, updated
	if rec.Metrics, err = decodeMetrics(metrics); err != nil {
		return rec, err
	}
	if rec.Custom, err = decodeMetrics(custom); err != nil {
		return rec, err
	}
	return rec, nil
}

// FindWindow returns up to limit records for the symbol and period type,
// most recent period first. Reporting gaps pass through as absence.
func (r *SQLiteRepository) FindWindow(ctx context.Context, symbol string, periodType core.PeriodType, limit int) ([]core.FinancialRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM financial_records
		WHERE symbol = ? AND period_type = ?
		ORDER BY period_iso DESC
		LIMIT ?`, symbol, string(periodType), limit)
	if err != nil {
		return nil, fmt.Errorf("query record window: %w", err)
	}
	defer rows.Close()

	var records []core.FinancialRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record window: %w", err)
	}
	return records, nil
}

// FindByKeys fetches records for an arbitrary set of period keys in one
// query. Missing keys are simply absent from the result map.
func (r *SQLiteRepository) FindByKeys(ctx context.Context, symbol string, periodType core.PeriodType, isoKeys []string) (map[string]core.FinancialRecord, error) {
	result := make(map[string]core.FinancialRecord, len(isoKeys))
	if len(isoKeys) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(isoKeys))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(isoKeys)+2)
	args = append(args, symbol, string(periodType))
	for _, key := range isoKeys {
		args = append(args, key)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM financial_records
		WHERE symbol = ? AND period_type = ? AND period_iso IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query records by keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		result[rec.PeriodISO] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records by keys: %w", err)
	}
	return result, nil
}

// UpsertRecord creates the record, or merges into the existing one when
// overwrite is set. The merge is field-level for both metric maps: keys
// absent from the incoming payload stay untouched. Without overwrite an
// existing record fails with ErrConflict and is left unchanged.
func (r *SQLiteRepository) UpsertRecord(ctx context.Context, incoming core.FinancialRecord, overwrite bool) (core.FinancialRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.FinancialRecord{}, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM financial_records
		WHERE symbol = ? AND period_type = ? AND period_iso = ?`,
		incoming.Symbol, string(incoming.PeriodType), incoming.PeriodISO)

	existing, err := scanRecord(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		metrics, encErr := encodeMetrics(incoming.Metrics)
		if encErr != nil {
			return core.FinancialRecord{}, encErr
		}
		custom, encErr := encodeMetrics(incoming.Custom)
		if encErr != nil {
			return core.FinancialRecord{}, encErr
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO financial_records (symbol, period_type, period_iso, period_label, metrics, custom)
			VALUES (?, ?, ?, ?, ?, ?)`,
			incoming.Symbol, string(incoming.PeriodType), incoming.PeriodISO,
			incoming.PeriodLabel, metrics, custom)
		if isUniqueViolation(err) {
			// Lost a race with a concurrent create for the same period.
			return core.FinancialRecord{}, fmt.Errorf("record for %s %s: %w",
				incoming.Symbol, incoming.PeriodISO, core.ErrConflict)
		}
		if err != nil {
			return core.FinancialRecord{}, fmt.Errorf("insert record: %w", err)
		}
	case err != nil:
		return core.FinancialRecord{}, fmt.Errorf("load existing record: %w", err)
	case !overwrite:
		return core.FinancialRecord{}, fmt.Errorf("record for %s %s: %w",
			incoming.Symbol, incoming.PeriodISO, core.ErrConflict)
	default:
		merged := mergeRecord(existing, incoming)
		metrics, encErr := encodeMetrics(merged.Metrics)
		if encErr != nil {
			return core.FinancialRecord{}, encErr
		}
		custom, encErr := encodeMetrics(merged.Custom)
		if encErr != nil {
			return core.FinancialRecord{}, encErr
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE financial_records
			SET period_label = ?, metrics = ?, custom = ?, updated_at = CURRENT_TIMESTAMP
			WHERE symbol = ? AND period_type = ? AND period_iso = ?`,
			merged.PeriodLabel, metrics, custom,
			incoming.Symbol, string(incoming.PeriodType), incoming.PeriodISO)
		if err != nil {
			return core.FinancialRecord{}, fmt.Errorf("update record: %w", err)
		}
	}

	row = tx.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM financial_records
		WHERE symbol = ? AND period_type = ? AND period_iso = ?`,
		incoming.Symbol, string(incoming.PeriodType), incoming.PeriodISO)
	saved, err := scanRecord(row)
	if err != nil {
		return core.FinancialRecord{}, fmt.Errorf("reload record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.FinancialRecord{}, fmt.Errorf("commit upsert: %w", err)
	}

	slog.InfoContext(ctx, "Financial record saved",
		"symbol", saved.Symbol,
		"period_type", saved.PeriodType,
		"period_iso", saved.PeriodISO,
		"metric_count", len(saved.Metrics),
		"custom_count", len(saved.Custom))

	return saved, nil
}

func mergeRecord(existing, incoming core.FinancialRecord) core.FinancialRecord {
	merged := existing
	if incoming.PeriodLabel != "" {
		merged.PeriodLabel = incoming.PeriodLabel
	}
	if merged.Metrics == nil {
		merged.Metrics = core.MetricValues{}
	}
	if merged.Custom == nil {
		merged.Custom = core.MetricValues{}
	}
	for key, value := range incoming.Metrics {
		merged.Metrics[key] = value
	}
	for key, value := range incoming.Custom {
		merged.Custom[key] = value
	}
	return merged
}

// DeleteRecord removes the whole record for a period.
func (r *SQLiteRepository) DeleteRecord(ctx context.Context, symbol string, periodType core.PeriodType, periodISO string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM financial_records
		WHERE symbol = ? AND period_type = ? AND period_iso = ?`,
		symbol, string(periodType), periodISO)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("record for %s %s: %w", symbol, periodISO, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Financial record deleted",
		"symbol", symbol, "period_type", periodType, "period_iso", periodISO)
	return nil
}

// CountRecords returns how many records exist for the symbol, any period
// type. The category-defaults snapshot keys off this being zero.
func (r *SQLiteRepository) CountRecords(ctx context.Context, symbol string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM financial_records WHERE symbol = ?`, symbol).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// --- Metric definitions ---

const definitionColumns = `key, name, section, unit, sort_order, is_default, created_at, updated_at`

// sectionOrder keeps the all-sections listing in statement order rather than
// alphabetical.
const sectionOrder = `CASE section WHEN 'income' THEN 0 WHEN 'balance' THEN 1 ELSE 2 END`

func scanDefinition(row interface{ Scan(...any) error }) (core.MetricDefinition, error) {
	var (
		def       core.MetricDefinition
		isDefault int
	)
	err := row.Scan(&def.Key, &def.Name, &def.Section, &def.Unit,
		&def.Order, &isDefault, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return def, err
	}
	def.IsDefault = isDefault != 0
	return def, nil
}

// ListDefinitions returns catalog entries sorted by order ascending, ties
// broken by name. An empty section lists every section in statement order.
func (r *SQLiteRepository) ListDefinitions(ctx context.Context, section core.Section) ([]core.MetricDefinition, error) {
	query := `SELECT ` + definitionColumns + ` FROM metric_definitions`
	var args []any
	if section != "" {
		query += ` WHERE section = ?`
		args = append(args, string(section))
	}
	query += ` ORDER BY ` + sectionOrder + `, sort_order ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metric definitions: %w", err)
	}
	defer rows.Close()

	var defs []core.MetricDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan metric definition: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metric definitions: %w", err)
	}
	return defs, nil
}

func (r *SQLiteRepository) GetDefinition(ctx context.Context, key string) (core.MetricDefinition, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+definitionColumns+` FROM metric_definitions WHERE key = ?`, key)
	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return def, fmt.Errorf("metric definition %q: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return def, fmt.Errorf("get metric definition: %w", err)
	}
	return def, nil
}

// CreateDefinition inserts a new catalog entry at the end of its section:
// order becomes max existing order in the section plus one, zero for an
// empty section.
func (r *SQLiteRepository) CreateDefinition(ctx context.Context, def core.MetricDefinition) (core.MetricDefinition, error) {
	isDefault := 0
	if def.IsDefault {
		isDefault = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metric_definitions (key, name, section, unit, sort_order, is_default)
		VALUES (?, ?, ?, ?,
			COALESCE((SELECT MAX(sort_order) + 1 FROM metric_definitions WHERE section = ?), 0),
			?)`,
		def.Key, def.Name, string(def.Section), def.Unit, string(def.Section), isDefault)
	if isUniqueViolation(err) {
		return core.MetricDefinition{}, fmt.Errorf("metric definition %q: %w", def.Key, core.ErrConflict)
	}
	if err != nil {
		return core.MetricDefinition{}, fmt.Errorf("insert metric definition: %w", err)
	}

	slog.InfoContext(ctx, "Metric definition created",
		"key", def.Key, "section", def.Section)
	return r.GetDefinition(ctx, def.Key)
}

// UpdateDefinition updates name, section, unit and the default flag by key.
func (r *SQLiteRepository) UpdateDefinition(ctx context.Context, def core.MetricDefinition) (core.MetricDefinition, error) {
	isDefault := 0
	if def.IsDefault {
		isDefault = 1
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE metric_definitions
		SET name = ?, section = ?, unit = ?, is_default = ?, updated_at = CURRENT_TIMESTAMP
		WHERE key = ?`,
		def.Name, string(def.Section), def.Unit, isDefault, def.Key)
	if err != nil {
		return core.MetricDefinition{}, fmt.Errorf("update metric definition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.MetricDefinition{}, fmt.Errorf("update metric definition affected rows: %w", err)
	}
	if affected == 0 {
		return core.MetricDefinition{}, fmt.Errorf("metric definition %q: %w", def.Key, core.ErrNotFound)
	}
	return r.GetDefinition(ctx, def.Key)
}

// SetDefinitionOrder sets a single entry's sort order.
func (r *SQLiteRepository) SetDefinitionOrder(ctx context.Context, key string, order int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE metric_definitions
		SET sort_order = ?, updated_at = CURRENT_TIMESTAMP
		WHERE key = ?`, order, key)
	if err != nil {
		return fmt.Errorf("set metric order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set metric order affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("metric definition %q: %w", key, core.ErrNotFound)
	}
	return nil
}

// DeleteDefinition removes a catalog entry. Historical financial records
// keep any values stored under the deleted key.
func (r *SQLiteRepository) DeleteDefinition(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM metric_definitions WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete metric definition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete metric definition affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("metric definition %q: %w", key, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Metric definition deleted", "key", key)
	return nil
}

// --- Category defaults ---

// GetCategoryDefaults returns the stored default metric list for a category.
func (r *SQLiteRepository) GetCategoryDefaults(ctx context.Context, category string) ([]core.MetricDefinition, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT metrics FROM category_metrics WHERE category = ?`, category).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category defaults for %q: %w", category, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category defaults: %w", err)
	}

	var defs []core.MetricDefinition
	if err := json.Unmarshal([]byte(raw), &defs); err != nil {
		return nil, fmt.Errorf("decode category defaults: %w", err)
	}
	return defs, nil
}

// SetCategoryDefaults replaces the category's stored list wholesale.
func (r *SQLiteRepository) SetCategoryDefaults(ctx context.Context, category string, defs []core.MetricDefinition) error {
	if defs == nil {
		defs = []core.MetricDefinition{}
	}
	raw, err := json.Marshal(defs)
	if err != nil {
		return fmt.Errorf("encode category defaults: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO category_metrics (category, metrics)
		VALUES (?, ?)
		ON CONFLICT(category) DO UPDATE SET
			metrics = excluded.metrics,
			updated_at = CURRENT_TIMESTAMP`,
		category, string(raw))
	if err != nil {
		return fmt.Errorf("set category defaults: %w", err)
	}

	slog.InfoContext(ctx, "Category defaults saved",
		"category", category, "metric_count", len(defs))
	return nil
}

// DeleteCategoryDefaults removes a category's stored list.
func (r *SQLiteRepository) DeleteCategoryDefaults(ctx context.Context, category string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM category_metrics WHERE category = ?`, category)
	if err != nil {
		return fmt.Errorf("delete category defaults: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category defaults affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("category defaults for %q: %w", category, core.ErrNotFound)
	}
	return nil
}

// --- Companies ---

const companyColumns = `symbol, name, isin, category, issue_date, quantity_issued, par_value,
	last_traded_price, closing_price, previous_close, hi_trade, low_trade,
	price_change, change_percentage, share_volume, trade_volume, turnover,
	market_cap, market_cap_percentage, beta, logo_path, created_at, updated_at`

func scanCompany(row interface{ Scan(...any) error }) (core.Company, error) {
	var (
		c    core.Company
		beta sql.NullString
	)
	err := row.Scan(&c.Symbol, &c.Name, &c.ISIN, &c.Category, &c.IssueDate,
		&c.QuantityIssued, &c.ParValue,
		&c.LastTradedPrice, &c.ClosingPrice, &c.PreviousClose, &c.HiTrade, &c.LowTrade,
		&c.Change, &c.ChangePercentage, &c.ShareVolume, &c.TradeVolume, &c.Turnover,
		&c.MarketCap, &c.MarketCapPercentage, &beta, &c.LogoPath,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	if beta.Valid && beta.String != "" {
		var b core.CompanyBeta
		if err := json.Unmarshal([]byte(beta.String), &b); err != nil {
			return c, fmt.Errorf("decode company beta: %w", err)
		}
		c.Beta = &b
	}
	return c, nil
}

func encodeBeta(b *core.CompanyBeta) (any, error) {
	if b == nil {
		return nil, nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode company beta: %w", err)
	}
	return string(raw), nil
}

// ListCompanies returns companies sorted by symbol, optionally filtered by a
// case-insensitive substring match on symbol or name.
func (r *SQLiteRepository) ListCompanies(ctx context.Context, query string, limit int) ([]core.Company, error) {
	sqlQuery := `SELECT ` + companyColumns + ` FROM companies`
	var args []any
	if query != "" {
		sqlQuery += ` WHERE symbol LIKE ? COLLATE NOCASE OR name LIKE ? COLLATE NOCASE`
		pattern := "%" + query + "%"
		args = append(args, pattern, pattern)
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	sqlQuery += ` ORDER BY symbol ASC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []core.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

func (r *SQLiteRepository) GetCompany(ctx context.Context, symbol string) (core.Company, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE symbol = ?`, symbol)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("company %q: %w", symbol, core.ErrNotFound)
	}
	if err != nil {
		return c, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCompany(ctx context.Context, c core.Company) (core.Company, error) {
	beta, err := encodeBeta(c.Beta)
	if err != nil {
		return core.Company{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO companies (symbol, name, isin, category, issue_date, quantity_issued, par_value,
			last_traded_price, closing_price, previous_close, hi_trade, low_trade,
			price_change, change_percentage, share_volume, trade_volume, turnover,
			market_cap, market_cap_percentage, beta, logo_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Symbol, c.Name, c.ISIN, c.Category, c.IssueDate, c.QuantityIssued, c.ParValue,
		c.LastTradedPrice, c.ClosingPrice, c.PreviousClose, c.HiTrade, c.LowTrade,
		c.Change, c.ChangePercentage, c.ShareVolume, c.TradeVolume, c.Turnover,
		c.MarketCap, c.MarketCapPercentage, beta, c.LogoPath)
	if isUniqueViolation(err) {
		return core.Company{}, fmt.Errorf("company %q: %w", c.Symbol, core.ErrConflict)
	}
	if err != nil {
		return core.Company{}, fmt.Errorf("insert company: %w", err)
	}

	slog.InfoContext(ctx, "Company created", "symbol", c.Symbol, "name", c.Name)
	return r.GetCompany(ctx, c.Symbol)
}

// UpdateCompany replaces the company's user-editable and quote fields by
// symbol.
func (r *SQLiteRepository) UpdateCompany(ctx context.Context, c core.Company) (core.Company, error) {
	beta, err := encodeBeta(c.Beta)
	if err != nil {
		return core.Company{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE companies
		SET name = ?, isin = ?, category = ?, issue_date = ?, quantity_issued = ?, par_value = ?,
			last_traded_price = ?, closing_price = ?, previous_close = ?, hi_trade = ?, low_trade = ?,
			price_change = ?, change_percentage = ?, share_volume = ?, trade_volume = ?, turnover = ?,
			market_cap = ?, market_cap_percentage = ?, beta = ?, logo_path = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE symbol = ?`,
		c.Name, c.ISIN, c.Category, c.IssueDate, c.QuantityIssued, c.ParValue,
		c.LastTradedPrice, c.ClosingPrice, c.PreviousClose, c.HiTrade, c.LowTrade,
		c.Change, c.ChangePercentage, c.ShareVolume, c.TradeVolume, c.Turnover,
		c.MarketCap, c.MarketCapPercentage, beta, c.LogoPath, c.Symbol)
	if err != nil {
		return core.Company{}, fmt.Errorf("update company: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Company{}, fmt.Errorf("update company affected rows: %w", err)
	}
	if affected == 0 {
		return core.Company{}, fmt.Errorf("company %q: %w", c.Symbol, core.ErrNotFound)
	}
	return r.GetCompany(ctx, c.Symbol)
}

// UpsertCompany is the market-data sync write path: it creates the company
// or refreshes its identity and quote fields, leaving the user-assigned
// category alone.
func (r *SQLiteRepository) UpsertCompany(ctx context.Context, c core.Company) (core.Company, error) {
	beta, err := encodeBeta(c.Beta)
	if err != nil {
		return core.Company{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO companies (symbol, name, isin, category, issue_date, quantity_issued, par_value,
			last_traded_price, closing_price, previous_close, hi_trade, low_trade,
			price_change, change_percentage, share_volume, trade_volume, turnover,
			market_cap, market_cap_percentage, beta, logo_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = excluded.name,
			isin = excluded.isin,
			issue_date = excluded.issue_date,
			quantity_issued = excluded.quantity_issued,
			par_value = excluded.par_value,
			last_traded_price = excluded.last_traded_price,
			closing_price = excluded.closing_price,
			previous_close = excluded.previous_close,
			hi_trade = excluded.hi_trade,
			low_trade = excluded.low_trade,
			price_change = excluded.price_change,
			change_percentage = excluded.change_percentage,
			share_volume = excluded.share_volume,
			trade_volume = excluded.trade_volume,
			turnover = excluded.turnover,
			market_cap = excluded.market_cap,
			market_cap_percentage = excluded.market_cap_percentage,
			beta = excluded.beta,
			logo_path = excluded.logo_path,
			updated_at = CURRENT_TIMESTAMP`,
		c.Symbol, c.Name, c.ISIN, c.Category, c.IssueDate, c.QuantityIssued, c.ParValue,
		c.LastTradedPrice, c.ClosingPrice, c.PreviousClose, c.HiTrade, c.LowTrade,
		c.Change, c.ChangePercentage, c.ShareVolume, c.TradeVolume, c.Turnover,
		c.MarketCap, c.MarketCapPercentage, beta, c.LogoPath)
	if err != nil {
		return core.Company{}, fmt.Errorf("upsert company: %w", err)
	}

	slog.InfoContext(ctx, "Company synced", "symbol", c.Symbol)
	return r.GetCompany(ctx, c.Symbol)
}

func (r *SQLiteRepository) DeleteCompany(ctx context.Context, symbol string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete company affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("company %q: %w", symbol, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Company deleted", "symbol", symbol)
	return nil
}
