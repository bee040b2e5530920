package repository

import "errors"

// Sentinel errors for catalog lookups.
var (
	ErrUnknownObjectID = errors.New("unknown object id")
	ErrUnknownSource   = errors.New("unknown catalog source")
)
