package automation

import "errors"

var ErrInvalidScript = errors.New("invalid script")
