package store

import "errors"

var (
	ErrEmptyKey    = errors.New("the key should not be empty")
	ErrNilValue    = errors.New("the value should not be nil")
	ErrKeyNotFound = errors.New("the key does not exist in the store")
)
