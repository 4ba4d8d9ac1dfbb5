package stewcommon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewShortId(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewShortId()
		assert.Len(t, id, 12)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestNewBatchId(t *testing.T) {
	id := NewBatchId()
	assert.True(t, strings.HasPrefix(id, "up-"))
	assert.Len(t, id, 11)
	assert.NotEqual(t, id, NewBatchId())
}
