package constants

// Error codes attached to routing provider failures as ProviderError.Code.
// The orchestrator never branches on these, and ProviderError.Error(), the
// string that is logged and persisted to batch_status, does not include them.
const (
	ErrCodeNetworkError      = "NETWORK_ERROR"
	ErrCodeBadStatus         = "BAD_STATUS"
	ErrCodeEmptyResponse     = "EMPTY_RESPONSE"
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE"
	ErrCodeInvalidMode       = "INVALID_MODE"
	ErrCodeInvalidDayType    = "INVALID_DAY_TYPE"
)
