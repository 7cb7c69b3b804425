package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldSymbol     = "symbol"
	FieldPeriodType = "period_type"
	FieldPeriodISO  = "period_iso"
	FieldMetricKey  = "metric_key"
	FieldCategory   = "category"
	FieldLimit      = "limit"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentMarketData = "marketdata"
	ComponentFinancials = "financials"
	ComponentMetrics    = "metrics"
	ComponentCompare    = "compare"
	ComponentTrace      = "trace"
)
