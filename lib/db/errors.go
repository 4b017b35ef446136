package db

import "errors"

// ErrClosed is returned by every KVDB operation issued after Close.
var ErrClosed = errors.New("database is closed")
