package utils

import "github.com/oklog/ulid/v2"

// NewULID generates a new ULID string, used for request ids and store row ids.
func NewULID() string {
	return ulid.Make().String()
}
