// Package uuid7 mints time-ordered (version 7) UUIDs for stored objects.
// Listing endpoints sort newest first, so primary keys that sort in
// creation order keep index scans aligned with the result order.
package uuid7

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

// New returns a version 7 UUID. Generation fails only when the random
// source does, which nothing here can recover from.
func New() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return id
}

// Timestamp extracts the creation time embedded in a version 7 UUID.
// The top 48 bits carry Unix milliseconds.
func Timestamp(u uuid.UUID) time.Time {
	ms := binary.BigEndian.Uint64(u[0:8]) >> 16
	return time.UnixMilli(int64(ms))
}
