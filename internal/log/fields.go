package log

import (
	"go.uber.org/zap"

	"shipments/internal/core"
)

// Common field names for structured logging
const (
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldQuery        = "query"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration"
	FieldUserAgent    = "user_agent"
	FieldOperation    = "operation"
	FieldBackend      = "backend"
	FieldErrorType    = "error_type"
	FieldShipmentDate = "shipment_date"
	FieldStaffName    = "staff_name"
	FieldVegetable    = "vegetable"
	FieldQuantity     = "quantity"
	FieldRecordedAt   = "recorded_at"
	FieldRecordCount  = "record_count"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentShipment  = "shipment"
	ComponentStore     = "store"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentCLI       = "cli"
)

// Operations defines standard operation names
const (
	OpInit     = "ensure_initialized"
	OpLoad     = "load"
	OpAppend   = "append"
	OpMirror   = "mirror"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpSummary  = "summary"
	OpValidate = "validate"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeStorage       = "storage_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeInternal      = "internal_error"
)

// Record expands a shipment record into log fields.
func Record(r core.ShipmentRecord) []zap.Field {
	fields := []zap.Field{
		zap.String(FieldShipmentDate, r.ShipmentDate.String()),
		zap.String(FieldStaffName, r.StaffName),
		zap.String(FieldVegetable, r.Vegetable),
		zap.Stringer(FieldQuantity, r.Quantity),
	}
	if !r.RecordedAt.IsZero() {
		fields = append(fields, zap.String(FieldRecordedAt, core.FormatRecordedAt(r.RecordedAt)))
	}
	return fields
}

// Op tags an entry with an operation name.
func Op(op string) zap.Field {
	return zap.String(FieldOperation, op)
}

// ErrorType tags an entry with an error category.
func ErrorType(kind string) zap.Field {
	return zap.String(FieldErrorType, kind)
}
