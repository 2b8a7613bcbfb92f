package httpapi

const (
	jsonKeyError = "error"

	errorValueInvalidJSON          = "invalid_json"
	errorValueInvalidConfiguration = "invalid_configuration"
	errorValueInvalidName          = "invalid_name"
	errorValueUnknownConfiguration = "unknown_configuration"
	errorValueUnknownInvite        = "unknown_invite"
	errorValueQueryFailed          = "query_failed"
	errorValueSaveFailed           = "save_failed"
	errorValueDeleteFailed         = "delete_failed"
	errorValueRenderFailed         = "render_failed"
	errorValueStreamUnavailable    = "stream_unavailable"
	errorValueMissingClient        = "missing_client"

	htmlContentType = "text/html; charset=utf-8"
)

const logFieldConfigName = "config_name"
