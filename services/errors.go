package services

import "errors"

var (
	ErrInvalidRecord   = errors.New("invalid cycle record")
	ErrNotFound        = errors.New("not found")
	ErrUnknownResource = errors.New("unknown admin resource")
	ErrEmailTaken      = errors.New("email already registered")
	ErrBadCredentials  = errors.New("invalid email or password")
	ErrInvalidQuery    = errors.New("invalid request")
	ErrConflict        = errors.New("conflicts with an existing row")
)
