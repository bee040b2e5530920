package service

import "errors"

// Sentinel errors for service lifecycle.
var (
	ErrNotStarted = errors.New("service not started")
	ErrNoCatalogs = errors.New("no catalogs configured")
)
