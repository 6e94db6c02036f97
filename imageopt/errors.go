package imageopt

import "errors"

var (
	ErrInvalidParams     = errors.New("imageopt: invalid parameters")
	ErrSourceNotFound    = errors.New("imageopt: source image not found")
	ErrUnsupportedFormat = errors.New("imageopt: unsupported source format")
	ErrSourceTooLarge    = errors.New("imageopt: source image too large")
)

// paramError carries the client-facing message for a rejected request.
type paramError struct {
	msg string
}

func (e *paramError) Error() string { return e.msg }

func (e *paramError) Unwrap() error { return ErrInvalidParams }

func invalid(msg string) error {
	return &paramError{msg: msg}
}
