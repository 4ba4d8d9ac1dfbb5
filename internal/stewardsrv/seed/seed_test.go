package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func writeSeedFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadSeedItemsBareList(t *testing.T) {
	ctx := context.Background()
	path := writeSeedFile(t, "teams.yaml", `
- name: data-platform
  description: Platform team
- name: analytics
`)
	items := readSeedItems(ctx, path, "teams")
	require.Len(t, items, 2)
	assert.Equal(t, "data-platform", items[0].Get("name").String())
	assert.Equal(t, "Platform team", items[0].Get("description").String())
	assert.Equal(t, "analytics", items[1].Get("name").String())
}

func TestReadSeedItemsWrappedList(t *testing.T) {
	ctx := context.Background()
	path := writeSeedFile(t, "teams.yaml", `
teams:
  - name: data-platform
  - name: analytics
  - name: governance
`)
	items := readSeedItems(ctx, path, "teams")
	require.Len(t, items, 3)
	assert.Equal(t, "governance", items[2].Get("name").String())
}

func TestReadSeedItemsWrongKey(t *testing.T) {
	ctx := context.Background()
	path := writeSeedFile(t, "teams.yaml", `
domains:
  - name: finance
`)
	items := readSeedItems(ctx, path, "teams")
	assert.Empty(t, items)
}

func TestReadSeedItemsMissingFile(t *testing.T) {
	ctx := context.Background()
	items := readSeedItems(ctx, filepath.Join(t.TempDir(), "absent.yaml"), "teams")
	assert.Empty(t, items)
}

func TestReadSeedItemsMalformedYaml(t *testing.T) {
	ctx := context.Background()
	path := writeSeedFile(t, "teams.yaml", "teams: [unterminated")
	items := readSeedItems(ctx, path, "teams")
	assert.Empty(t, items)
}

func TestReadSeedItemsScalarDocument(t *testing.T) {
	ctx := context.Background()
	path := writeSeedFile(t, "teams.yaml", `just a string`)
	items := readSeedItems(ctx, path, "teams")
	assert.Empty(t, items)
}

func TestStripField(t *testing.T) {
	doc := []byte(`{"name":"finance","parent":"corporate","description":"money"}`)

	stripped, parent := stripField(doc, "parent")
	assert.Equal(t, "corporate", parent)
	assert.False(t, gjson.GetBytes(stripped, "parent").Exists())
	assert.Equal(t, "finance", gjson.GetBytes(stripped, "name").String())
	assert.Equal(t, "money", gjson.GetBytes(stripped, "description").String())

	same, value := stripField(stripped, "parent")
	assert.Empty(t, value)
	assert.Equal(t, string(stripped), string(same))
}

func TestStripFieldEmptyValue(t *testing.T) {
	doc := []byte(`{"name":"finance","parent":""}`)
	stripped, value := stripField(doc, "parent")
	assert.Empty(t, value)
	// Empty references are not worth resolving, so the field stays put.
	assert.True(t, gjson.GetBytes(stripped, "parent").Exists())
}
