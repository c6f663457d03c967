package database

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid database config")

	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateKey is a primary or unique key conflict
	ErrDuplicateKey = errors.New("duplicate key")
)
