package ocr

import "errors"

// Error kinds for a page that produced no chunks. Page errors wrap one of
// these so callers can tell them apart with errors.Is.
var (
	ErrModelCall         = errors.New("model call failed")
	ErrBlocked           = errors.New("model response blocked")
	ErrEmptyResponse     = errors.New("model returned an empty response")
	ErrRefusal           = errors.New("model refused the request")
	ErrMalformedResponse = errors.New("model returned malformed JSON")
)
