package services

import (
	"errors"

	"github.com/thereayou/stringify/pkg/key"
)

var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrProfileNotFound        = errors.New("profile not found")
	ErrProfileTakenOver       = errors.New("profile taken over by another connection")
	ErrInvalidKey             = key.ErrInvalidKey
	ErrConnectionLimitReached = errors.New("connection limit reached")
	ErrKeyExhausted           = errors.New("could not assign a unique session key")
	ErrInvalidPage            = errors.New("invalid page")
)
