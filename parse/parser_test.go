package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlabs/codeprism/core"
)

func TestParseSimpleFunction(t *testing.T) {
	parser, err := NewParser(core.LanguageRust)
	require.NoError(t, err)

	source := []byte("fn test() { let x = 42; }")
	parsed, err := parser.Parse(context.Background(), core.FileID(1), source, nil)
	require.NoError(t, err)

	root := parsed.Root()
	assert.Equal(t, "source_file", root.Type())
	assert.Equal(t, core.FileID(1), parsed.FileID)

	fn := root.Child(0)
	require.NotNil(t, fn)
	assert.Equal(t, "function_item", fn.Type())

	name := fn.ChildByFieldName("name")
	require.NotNil(t, name)
	assert.Equal(t, "test", name.Content(source))
}

func TestParseUnsupportedLanguage(t *testing.T) {
	_, err := NewParser(core.LanguageUnknown)
	assert.True(t, core.IsKind(err, core.MalformedInput))
}

func TestTreeCacheHitAndMiss(t *testing.T) {
	parser, err := NewParser(core.LanguageRust)
	require.NoError(t, err)

	cache, err := NewTreeCache(8)
	require.NoError(t, err)

	source := []byte("fn test() { }")
	fileID := core.FileID(7)

	_, ok := cache.Get(fileID, source)
	assert.False(t, ok, "empty cache should miss")

	parsed, err := parser.Parse(context.Background(), fileID, source, nil)
	require.NoError(t, err)
	cache.Put(parsed)

	got, ok := cache.Get(fileID, source)
	assert.True(t, ok)
	assert.Same(t, parsed, got)

	// Changed content misses even for the same file.
	_, ok = cache.Get(fileID, []byte("fn test() { let x = 1; }"))
	assert.False(t, ok)
}
