package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldIdentity    = "identity"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldTxID        = "tx_id"
	FieldTxType      = "tx_type"
	FieldAmount      = "amount"
	FieldCurrency    = "currency"
	FieldBase        = "base_currency"
	FieldFileID      = "file_id"
	FieldFileName    = "file_name"
	FieldRowCount    = "row_count"
	FieldHash        = "hash"
	FieldDuration    = "duration_ms"
	FieldStatus      = "status"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentStorage      = "storage"
	ComponentTransactions = "transactions"
	ComponentRates        = "rates"
	ComponentAnalytics    = "analytics"
	ComponentMirror       = "mirror"
	ComponentSync         = "sync"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpPush     = "push"
	OpPull     = "pull"
	OpFetch    = "fetch"
	OpConvert  = "convert"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
