package logging

// Standardized field names for structured logging.
const (
	FieldFile       = "file_path"
	FieldStage      = "stage"
	FieldRow        = "row"
	FieldBookingID  = "booking_id"
	FieldAccount    = "account"
	FieldCurrency   = "currency"
	FieldReason     = "reason"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldDelimiter  = "delimiter"
	FieldInputFile  = "input_file"
	FieldOutputFile = "output_file"
	FieldConfigFile = "config_file"
	FieldRunID      = "run_id"
)
