package vision

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model responds without any text.
var ErrEmptyResponse = errors.New("vision: empty response from model")

// Image is a raster handed to the model inline.
type Image struct {
	Data     []byte
	MIMEType string
}

// Client is the external analysis capability: prompt plus image in,
// markdown text out. Cross-cutting concerns (retries, rate limiting,
// logging) are applied via Middleware.
type Client interface {
	Name() string
	Describe(ctx context.Context, prompt string, img Image) (string, error)
	Close() error
}

// PermanentError indicates a failure that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}
