package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildOrTsQuery(t *testing.T) {
	assert.Equal(t, "login | bug", buildOrTsQuery("login bug"))
	assert.Equal(t, "single", buildOrTsQuery("  single  "))
	assert.Equal(t, "", buildOrTsQuery(""))
}

func TestContentHashStableAndContentSensitive(t *testing.T) {
	desc := "dogs bark"
	h1 := contentHash("title", &desc)
	h2 := contentHash("title", &desc)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 16)

	other := "cats meow"
	h3 := contentHash("title", &other)
	assert.NotEqual(t, h1, h3)
}

func TestContentHashNilDescription(t *testing.T) {
	h := contentHash("title", nil)
	assert.Len(t, h, 16)
}

func TestTagsEqualIgnoresOrderAndDuplicates(t *testing.T) {
	assert.True(t, tagsEqual([]string{"a", "b"}, []string{"b", "a"}))
	assert.True(t, tagsEqual([]string{"a", "a", "b"}, []string{"b", "a"}))
	assert.False(t, tagsEqual([]string{"a"}, []string{"a", "b"}))
}

func TestTagsSupersetOf(t *testing.T) {
	assert.True(t, tagsSupersetOf([]string{"urgent", "backend", "db"}, []string{"backend", "db"}))
	assert.False(t, tagsSupersetOf([]string{"backend"}, []string{"backend", "db"}))
	assert.True(t, tagsSupersetOf([]string{"backend"}, nil))
}

func TestMetadataEqual(t *testing.T) {
	a := map[string]any{"x": 1.0, "y": "z"}
	b := map[string]any{"y": "z", "x": 1.0}
	assert.True(t, metadataEqual(a, b))
	assert.False(t, metadataEqual(a, map[string]any{"x": 2.0}))
	assert.True(t, metadataEqual(nil, map[string]any{}))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 50, clampLimit(0, 50, 200))
	assert.Equal(t, 200, clampLimit(500, 50, 200))
	assert.Equal(t, 10, clampLimit(10, 50, 200))
	assert.Equal(t, 100, clampLimit(1000, 20, 100))
}

func TestClampOffset(t *testing.T) {
	assert.Equal(t, 0, clampOffset(-5))
	assert.Equal(t, 7, clampOffset(7))
}

func TestArchiveCutoffDefaultsWhenNonPositive(t *testing.T) {
	now := int64(2_000_000)
	assert.Equal(t, now-defaultArchiveTTLSeconds, archiveCutoff(now, 0))
	assert.Equal(t, now-defaultArchiveTTLSeconds, archiveCutoff(now, -1))
	assert.Equal(t, now-100, archiveCutoff(now, 100))
}

func TestToStringSlice(t *testing.T) {
	out, ok := toStringSlice([]any{"a", "b"})
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, out)

	_, ok = toStringSlice([]any{"a", 1})
	assert.False(t, ok)

	_, ok = toStringSlice(42)
	assert.False(t, ok)
}

func TestToOptionalString(t *testing.T) {
	v, ok := toOptionalString(nil)
	assert.True(t, ok)
	assert.Nil(t, v)

	v, ok = toOptionalString("x")
	assert.True(t, ok)
	assert.Equal(t, "x", *v)

	_, ok = toOptionalString(42)
	assert.False(t, ok)
}
