package datatypes

import "errors"

// --- Error Definitions ---

var (
	ErrUnknownTypeCode = errors.New("unknown data type code")
	ErrLengthMismatch  = errors.New("payload length does not match the width of the data type")
	ErrUtf8Decode      = errors.New("text payload is not valid utf-8")
	ErrValueTooLarge   = errors.New("value exceeds the maximum length of its type class")
	ErrTruncated       = errors.New("framed value is truncated")
	ErrInvalidLiteral  = errors.New("invalid literal for data type")
)
