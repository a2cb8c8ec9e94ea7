package model

import "errors"

// ErrNotFound is returned by stores when the requested record does not
// exist. It lives here so that both the stores and their consumers can
// refer to it without importing each other.
var ErrNotFound = errors.New("not found")
