package domain

import "errors"

// ErrInvalid is wrapped by every Parse* failure so callers can map it to a 400.
var ErrInvalid = errors.New("invalid value")
