package token

import "errors"

var (
	ErrExpired      = errors.New("token: expired")
	ErrBadSignature = errors.New("token: signature invalid")
	ErrMalformed    = errors.New("token: malformed")
	ErrInvalid      = errors.New("token: validation failed")
	ErrGeneration   = errors.New("token: generation failed")
)
