package uuid7

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewIsVersion7(t *testing.T) {
	id := New()
	if id == uuid.Nil {
		t.Fatal("Expected a non-nil UUID")
	}
	if id.Version() != uuid.Version(7) {
		t.Errorf("Expected version 7, but got %d", id.Version())
	}
	if id.Variant() != uuid.RFC4122 {
		t.Errorf("Expected RFC 4122 variant, but got %v", id.Variant())
	}
}

func TestNewIsOrdered(t *testing.T) {
	prev := New()
	for i := 0; i < 100; i++ {
		next := New()
		if bytes.Compare(prev[:], next[:]) >= 0 {
			t.Fatalf("Expected %s to sort before %s", prev, next)
		}
		prev = next
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := New()
	after := time.Now().Add(time.Second)

	ts := Timestamp(id)
	if ts.Before(before) || ts.After(after) {
		t.Errorf("Expected timestamp near now, but got %v", ts)
	}
}
