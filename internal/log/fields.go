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

	FieldAccountID     = "account_id"
	FieldCategoryID    = "category_id"
	FieldStatementID   = "statement_id"
	FieldTransactionID = "transaction_id"
	FieldSlipID        = "slip_id"
	FieldAmount        = "amount"
	FieldBillingMonth  = "billing_month"
	FieldYear          = "year"
	FieldMonth         = "month"
	FieldSheetsRef     = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStatement = "statement"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentSheets    = "sheets"
)

// Operations defines standard operation names
const (
	OpRecord   = "record"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpSettle   = "settle"
	OpPay      = "pay"
	OpGroup    = "group"
	OpUngroup  = "ungroup"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
