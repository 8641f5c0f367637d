package log

// Common field names for structured logging.
const (
	FieldError    = "error"
	FieldProvider = "provider"
	FieldFrom     = "from"
	FieldTo       = "to"
	FieldAsOf     = "as_of"
	FieldProbe    = "probe"
	FieldAttempt  = "attempt"
	FieldRate     = "rate"
	FieldAccount  = "account"
	FieldPath     = "path"
	FieldURL      = "url"
	FieldStatus   = "status"
)
