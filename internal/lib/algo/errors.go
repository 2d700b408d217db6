package algo

import "errors"

var ErrStateKeyNotFound = errors.New("state key not found")
