package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldCurrency  = "currency"
	FieldCategory  = "category"
	FieldKind      = "kind"
	FieldAmount    = "amount"
	FieldTxID      = "transaction_id"
	FieldFormat    = "format"
	FieldRows      = "rows"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentService  = "service"
	ComponentStorage  = "storage"
	ComponentFX       = "fx"
	ComponentTransfer = "transfer"
)
