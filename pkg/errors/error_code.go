package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidSignal        ErrorCode = 102
	ErrCodeInvalidTakeProfit    ErrorCode = 103
	ErrCodeInvalidStopLoss      ErrorCode = 104
	ErrCodeInvalidOrder         ErrorCode = 105
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeUnknownInstrument    ErrorCode = 110

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError  ErrorCode = 401
	ErrCodeStrategyRuntimeError ErrorCode = 402

	// Exchange request errors (500-599)
	ErrCodeOrderFailed        ErrorCode = 500
	ErrCodeRequestFailed      ErrorCode = 501
	ErrCodeUnexpectedResponse ErrorCode = 502

	// Backtest errors (600-699)
	ErrCodeBacktestConfigError   ErrorCode = 602
	ErrCodeBacktestDataPathError ErrorCode = 603
	ErrCodeBacktestNoSignals     ErrorCode = 604
	ErrCodeBacktestResultsError  ErrorCode = 605

	// Stream/transport errors (700-799)
	ErrCodeTransportFailed   ErrorCode = 700
	ErrCodeStreamParseFailed ErrorCode = 701
	ErrCodeKeepAliveFailed   ErrorCode = 702

	// Signal lifecycle errors (800-899)
	ErrCodeInvalidTransition ErrorCode = 800
	ErrCodePathOutOfOrder    ErrorCode = 801

	// Session errors (900-999)
	ErrCodeUnwindIncomplete ErrorCode = 900
	ErrCodeSessionAborted   ErrorCode = 901
	ErrCodeCallbackFailed   ErrorCode = 902
	ErrCodeSessionOutput    ErrorCode = 903
)
