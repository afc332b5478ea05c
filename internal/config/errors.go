package config

import "errors"

var ErrInvalidAIMark = errors.New("ai mark must be 1 or 2")
