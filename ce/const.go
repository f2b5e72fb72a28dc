package ce

import (
	"errors"
)

var (
	ErrLoadSourceFailed   = errors.New("load rule source failed")
	ErrCheckNotRegistered = errors.New("named check is not registered")
)
