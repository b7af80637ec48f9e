package log

import "gasolina/internal/core"

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldQuery          = "query"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldUserAgent      = "user_agent"
	FieldReferer        = "referer"
	FieldSuccess        = "success"
	FieldError          = "error"
	FieldErrorType      = "error_type"
	FieldOperation      = "operation"
	FieldEntryID        = "entry_id"
	FieldEntryDate      = "entry_date"
	FieldLiters         = "liters"
	FieldPricePerLiter  = "price_per_liter"
	FieldTotalCost      = "total_cost"
	FieldOdometer       = "odometer"
	FieldBudget         = "budget"
	FieldSpentThisMonth = "spent_this_month"
	FieldPercentage     = "percentage"
	FieldMonth          = "month"
	FieldEventType      = "event_type"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentEntry     = "entry"
	ComponentStats     = "stats"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentIcon      = "icon"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpCompute  = "compute"
	OpExport   = "export"
	OpImport   = "import"
	OpValidate = "validate"
	OpParse    = "parse"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds error field; a nil error adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(t string) LogFields {
	f[FieldErrorType] = t
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntry adds the fuel entry fields. Unrecorded quantities are omitted.
func (f LogFields) WithEntry(e core.Entry) LogFields {
	f[FieldEntryID] = e.ID
	f[FieldEntryDate] = e.Date.String()
	f[FieldTotalCost] = e.TotalCost
	if e.Liters > 0 {
		f[FieldLiters] = e.Liters
	}
	if e.PricePerLiter > 0 {
		f[FieldPricePerLiter] = e.PricePerLiter
	}
	if e.Odometer > 0 {
		f[FieldOdometer] = e.Odometer
	}
	return f
}

// WithBudget adds the monthly budget evaluation.
func (f LogFields) WithBudget(month string, b core.BudgetStatus) LogFields {
	f[FieldMonth] = month
	f[FieldBudget] = b.Limit
	f[FieldSpentThisMonth] = b.Spent
	f[FieldPercentage] = b.RawPercentage()
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	f[FieldReferer] = referer
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
