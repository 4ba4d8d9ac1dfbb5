package stewcommon

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewShortId returns a 12-character opaque identifier. Collision odds are
// negligible at our volumes; callers that persist these still enforce
// uniqueness in the database.
func NewShortId() string {
	id, _ := gonanoid.New(12)
	return id
}

// NewBatchId identifies one upload batch in logs and error reports.
func NewBatchId() string {
	id, _ := gonanoid.New(8)
	return "up-" + id
}
