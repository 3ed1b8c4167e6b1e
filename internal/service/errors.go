package service

import "errors"

// Domain errors. Operations wrap them with the offending name; test with errors.Is.
var (
	ErrDuplicateIdentity = errors.New("username already registered")
	ErrUnknownUser       = errors.New("unknown user")
	ErrCardNotFound      = errors.New("card not found")
	ErrPriceUnavailable  = errors.New("price unavailable")
	ErrInvalidInput      = errors.New("invalid input")
)
