package jobs

import "errors"

var (
	ErrInvalidJobType      = errors.New("invalid job type")
	ErrInvalidJobPayload   = errors.New("invalid job payload")
	ErrPayloadTypeMismatch = errors.New("payload type mismatch for job type")
)

// Permanent marks an error that retrying cannot fix.
type Permanent struct {
	Err error
}

func (p Permanent) Error() string { return "permanent: " + p.Err.Error() }
func (p Permanent) Unwrap() error { return p.Err }

func IsPermanent(err error) bool {
	var p Permanent
	return errors.As(err, &p) ||
		errors.Is(err, ErrInvalidJobType) ||
		errors.Is(err, ErrInvalidJobPayload) ||
		errors.Is(err, ErrPayloadTypeMismatch)
}
