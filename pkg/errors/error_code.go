package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidCostModel     ErrorCode = 102
	ErrCodeInvalidSortKey       ErrorCode = 103
	ErrCodeInvalidAllocation    ErrorCode = 104
	ErrCodeInvalidWindow        ErrorCode = 105
	ErrCodeInvalidVersion       ErrorCode = 106

	// Input data errors (200-299)
	ErrCodeRuleFileNotFound   ErrorCode = 200
	ErrCodeDataFileNotFound   ErrorCode = 201
	ErrCodeMalformedCondition ErrorCode = 202
	ErrCodeMalformedRuleRow   ErrorCode = 203
	ErrCodeEmptyRuleSet       ErrorCode = 204
	ErrCodeDataLoadFailed     ErrorCode = 205
	ErrCodeUnorderedSeries    ErrorCode = 206

	// Simulation errors (300-399)
	ErrCodeInsufficientWindow ErrorCode = 300
	ErrCodeNoSignals          ErrorCode = 301
	ErrCodeNoTrades           ErrorCode = 302

	// Walk-forward errors (400-499)
	ErrCodeNoPeriods        ErrorCode = 400
	ErrCodeAllPeriodsEmpty  ErrorCode = 401
	ErrCodePeriodOutOfRange ErrorCode = 402

	// Portfolio errors (500-599)
	ErrCodeDegenerateStatistics ErrorCode = 500
	ErrCodeNoUsableAssets       ErrorCode = 501

	// Results store errors (600-699)
	ErrCodeResultsStoreNil    ErrorCode = 600
	ErrCodeResultsInitFailed  ErrorCode = 601
	ErrCodeResultsQueryFailed ErrorCode = 602
	ErrCodeResultsWriteFailed ErrorCode = 603

	// Engine errors (700-799)
	ErrCodeEngineNoConfig        ErrorCode = 700
	ErrCodeEngineNoAssets        ErrorCode = 701
	ErrCodeEngineNoRuleFolder    ErrorCode = 702
	ErrCodeEngineNoDataFolder    ErrorCode = 703
	ErrCodeEngineNoResultsFolder ErrorCode = 704
)
