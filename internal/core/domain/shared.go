package domain

import "encoding/hex"

type ID string

// ValidateID reports whether id is a well-formed ObjectID hex string.
// Length alone is not enough: a 24-char value with non-hex bytes would
// otherwise reach the driver and fail there with a decode error.
func ValidateID(id string) bool {
	if len(id) != 24 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

type Event interface {
	GetName() string
	GetEntityName() string
}
