package service

import (
	"testing"

	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldPath(t *testing.T) {
	segments, err := parseFieldPath("content.items[2].title")
	require.NoError(t, err)
	require.Len(t, segments, 4)
	assert.Equal(t, "content", segments[0].key)
	assert.Equal(t, "items", segments[1].key)
	assert.True(t, segments[2].isIndex)
	assert.Equal(t, 2, segments[2].index)
	assert.Equal(t, "title", segments[3].key)
}

func TestParseFieldPath_Invalid(t *testing.T) {
	for _, path := range []string{"", ".", "a..b", "[0].title", "items[]", "items[x]", "items[-1]", "items[0]x"} {
		_, err := parseFieldPath(path)
		assert.ErrorIs(t, err, common.ErrInvalidFieldPath, "path %q", path)
	}
}

func TestSetAtPath_NestedWrite(t *testing.T) {
	root := map[string]interface{}{
		"content": map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"title": "old"},
			},
		},
	}

	segments, err := parseFieldPath("content.items[0].title")
	require.NoError(t, err)
	require.NoError(t, setAtPath(root, segments, "new"))

	items := root["content"].(map[string]interface{})["items"].([]interface{})
	assert.Equal(t, "new", items[0].(map[string]interface{})["title"])
}

func TestSetAtPath_CreatesIntermediateObjects(t *testing.T) {
	root := map[string]interface{}{}

	segments, err := parseFieldPath("seo.meta.title")
	require.NoError(t, err)
	require.NoError(t, setAtPath(root, segments, "Landing"))

	meta := root["seo"].(map[string]interface{})["meta"].(map[string]interface{})
	assert.Equal(t, "Landing", meta["title"])
}

func TestSetAtPath_AppendAtLength(t *testing.T) {
	root := map[string]interface{}{
		"items": []interface{}{map[string]interface{}{"n": 1}},
	}

	segments, err := parseFieldPath("items[1].n")
	require.NoError(t, err)
	require.NoError(t, setAtPath(root, segments, 2))

	items := root["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[1].(map[string]interface{})["n"])
}

func TestSetAtPath_IndexPastEndRejected(t *testing.T) {
	root := map[string]interface{}{"items": []interface{}{}}

	segments, err := parseFieldPath("items[3].n")
	require.NoError(t, err)
	assert.ErrorIs(t, setAtPath(root, segments, 1), common.ErrInvalidFieldPath)
}

func TestSetAtPath_IndexIntoNonArray(t *testing.T) {
	root := map[string]interface{}{"title": "scalar"}

	segments, err := parseFieldPath("title[0]")
	require.NoError(t, err)
	assert.ErrorIs(t, setAtPath(root, segments, "x"), common.ErrInvalidFieldPath)
}
