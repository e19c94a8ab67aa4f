package database

import "errors"

// ErrPingNotFound is returned when a channel has no stored ping.
var ErrPingNotFound = errors.New("ping record not found")
