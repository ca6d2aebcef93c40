package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidQuantity      ErrorCode = 103
	ErrCodeInvalidTimeframe     ErrorCode = 104
	ErrCodeInvalidSymbol        ErrorCode = 105
	ErrCodeInvalidAdapter       ErrorCode = 106

	// Connection errors (200-299)
	ErrCodeConnectionFailed ErrorCode = 200
	ErrCodeConnectionLost   ErrorCode = 201
	ErrCodeNotConnected     ErrorCode = 202

	// Data errors (300-399)
	ErrCodeDataUnavailable      ErrorCode = 300
	ErrCodeQueryFailed          ErrorCode = 301
	ErrCodeStreamClosed         ErrorCode = 302
	ErrCodeStreamingUnsupported ErrorCode = 303
	ErrCodeDataParseFailed      ErrorCode = 304

	// Safety errors (400-499)
	ErrCodeSafetyViolation ErrorCode = 400

	// Execution errors (500-599)
	ErrCodeOrderExecutionFailed ErrorCode = 500
	ErrCodeOrderNotFound        ErrorCode = 501
	ErrCodeOrderCancelFailed    ErrorCode = 502
	ErrCodeInsufficientEquity   ErrorCode = 503

	// Strategy errors (600-699)
	ErrCodeStrategyConfigError ErrorCode = 600
	ErrCodeStrategyNotFound    ErrorCode = 601
	ErrCodeVersionMismatch     ErrorCode = 602

	// Runtime errors (700-799)
	ErrCodeRuntimeHalted       ErrorCode = 700
	ErrCodeJournalWriteFailed  ErrorCode = 701
	ErrCodeMetricsServerFailed ErrorCode = 702
)
