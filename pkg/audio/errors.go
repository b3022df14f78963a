package audio

// DecodeError represents a failure to decode input bytes into a waveform
type DecodeError struct {
	Format  string `json:"format"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Decode error codes
const (
	ErrCodeEmptyInput    = "EMPTY_INPUT"
	ErrCodeInvalidFormat = "INVALID_FORMAT"
	ErrCodeCorruptData   = "CORRUPT_DATA"
	ErrCodeUnsupported   = "UNSUPPORTED_FORMAT"
	ErrCodeEncoding      = "ENCODING_FAILED"
)

// NewDecodeError creates a new decode error
func NewDecodeError(format, code, message string, cause error) *DecodeError {
	return &DecodeError{
		Format:  format,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
