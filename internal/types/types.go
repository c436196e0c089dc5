// Package types defines core data types and enums for the RTL converter application.
package types

// Config holds the persistent application configuration.
type Config struct {
	GeminiAPIKey   string `json:"gemini_api_key"`
	GeminiBaseURL  string `json:"gemini_base_url"` // base URL of the generateContent endpoint family
	TargetLanguage string `json:"target_language"` // BCP 47 code, e.g. "ar"
	FontFamily     string `json:"font_family"`     // target font family applied to translated text
	// FontDirs lists the directories scanned for font files. Empty means
	// the platform defaults.
	FontDirs []string `json:"font_dirs,omitempty"`
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `json:"log_level,omitempty"`
}

// ProcessPhase identifies the stage of a running conversion.
type ProcessPhase string

const (
	PhaseIdle        ProcessPhase = "idle"
	PhaseScanning    ProcessPhase = "scanning"
	PhaseTranslating ProcessPhase = "translating"
	PhaseFonts       ProcessPhase = "fonts"
	PhaseApplying    ProcessPhase = "applying"
	PhaseMirroring   ProcessPhase = "mirroring"
	PhaseSaving      ProcessPhase = "saving"
	PhaseComplete    ProcessPhase = "complete"
	PhaseError       ProcessPhase = "error"
)

// Status describes the current pipeline state reported to the UI.
type Status struct {
	Phase    ProcessPhase `json:"phase"`
	Progress int          `json:"progress"` // 0-100
	Message  string       `json:"message"`
	Error    string       `json:"error,omitempty"`
}

// ScanResult summarizes the text content of a loaded document page.
type ScanResult struct {
	PageName      string   `json:"page_name"`
	FrameCount    int      `json:"frame_count"`
	TextNodeCount int      `json:"text_node_count"`
	UniqueTexts   int      `json:"unique_texts"`
	Texts         []string `json:"texts"`
}

// ConvertRequest carries the parameters of one conversion run, as sent by
// the UI after a scan.
type ConvertRequest struct {
	APIKey         string   `json:"api_key,omitempty"` // empty means use the stored credential
	TargetLanguage string   `json:"target_language"`
	FontFamily     string   `json:"font_family"`
	Texts          []string `json:"texts"`
}

// ConvertResult aggregates the counts of a finished conversion.
type ConvertResult struct {
	Translated    int    `json:"translated"`     // strings covered by the translation map
	TotalTexts    int    `json:"total_texts"`    // unique strings requested
	Applied       int    `json:"applied"`        // text nodes rewritten
	FlowReversed  int    `json:"flow_reversed"`  // flow containers whose child order was reversed
	FixedMoved    int    `json:"fixed_moved"`    // fixed-position children whose offset changed
	OutputPath    string `json:"output_path"`
	DurationMilli int64  `json:"duration_ms"`
}

// ErrorCode classifies application errors.
type ErrorCode string

const (
	ErrNetwork      ErrorCode = "NETWORK_ERROR"
	ErrAPICall      ErrorCode = "API_CALL_ERROR"
	ErrAPIRateLimit ErrorCode = "API_RATE_LIMIT"
	ErrAPIResponse  ErrorCode = "API_RESPONSE_ERROR"
	ErrConfig       ErrorCode = "CONFIG_ERROR"
	ErrDocument     ErrorCode = "DOCUMENT_ERROR"
	ErrFont         ErrorCode = "FONT_ERROR"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError is the application error type carrying a code and an optional cause.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError.
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause.
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details.
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}
