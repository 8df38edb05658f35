// Package kverrors holds the sentinel errors shared by the store, the
// kv manager and everything built on top of them.
package kverrors

import "errors"

var (
	ErrNotFound       = errors.New("kv: not found")
	ErrAlreadyExists  = errors.New("kv: already exists")
	ErrWrongPassword  = errors.New("kv: wrong password")
	ErrSerialization  = errors.New("kv: serialization failed")
	ErrDeserializaton = errors.New("kv: deserialization failed")
	ErrNoReservation  = errors.New("kv: put without a matching reservation")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsWrongPassword(err error) bool {
	return errors.Is(err, ErrWrongPassword)
}
