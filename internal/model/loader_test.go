package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimal glTF document: one head node, one mesh with two named morph
// targets. Buffer data is never dereferenced by the loader.
const testGLTF = `{
  "asset": {"version": "2.0"},
  "nodes": [{"name": "Head"}, {"name": "Body"}],
  "meshes": [{
    "primitives": [{
      "attributes": {"POSITION": 0},
      "targets": [{"POSITION": 1}, {"POSITION": 2}, {"POSITION": 3}]
    }],
    "extras": {"targetNames": ["mouth_open", "jaw_open"]}
  }],
  "accessors": [
    {"componentType": 5126, "count": 3, "type": "VEC3"},
    {"componentType": 5126, "count": 3, "type": "VEC3"},
    {"componentType": 5126, "count": 3, "type": "VEC3"},
    {"componentType": 5126, "count": 3, "type": "VEC3"}
  ]
}`

func writeTestModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "avatar.gltf")
	require.NoError(t, os.WriteFile(path, []byte(testGLTF), 0o644))
	return path
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/avatar.gltf", zerolog.Nop())
	require.Error(t, err)

	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "/nonexistent/avatar.gltf", lerr.Path)
}

func TestLoad_ResolvesMorphTargets(t *testing.T) {
	m, err := Load(writeTestModel(t), zerolog.Nop())
	require.NoError(t, err)

	names := m.MorphTargetNames()
	require.Len(t, names, 3)
	assert.Equal(t, "mouth_open", names[0])
	assert.Equal(t, "jaw_open", names[1])
	// Third target has no name in extras, keeps its placeholder.
	assert.Equal(t, "target_2", names[2])
}

func TestModel_Nodes(t *testing.T) {
	m, err := Load(writeTestModel(t), zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{"Head", "Body"}, m.NodeNames())
	assert.Equal(t, 0, m.FindNode("Head"))
	assert.Equal(t, -1, m.FindNode("Tail"))
}

func TestModel_HasMouthShapes(t *testing.T) {
	m, err := Load(writeTestModel(t), zerolog.Nop())
	require.NoError(t, err)

	assert.True(t, m.HasMouthShapes([]string{"mouth_open", "jaw_open"}))
	assert.False(t, m.HasMouthShapes([]string{"mouth_open", "tongue_out"}))
	assert.False(t, m.HasMouthShapes(nil))
}

func TestModel_Describe(t *testing.T) {
	path := writeTestModel(t)
	m, err := Load(path, zerolog.Nop())
	require.NoError(t, err)

	info := m.Describe()
	assert.Equal(t, path, info.Path)
	assert.Equal(t, 2, info.Nodes)
	assert.Equal(t, 1, info.Meshes)
	assert.Len(t, info.MorphTargets, 3)
}
