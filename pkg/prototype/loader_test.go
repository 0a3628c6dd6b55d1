package prototype_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/arbor/pkg/prototype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_YAMLAndJSONAgree(t *testing.T) {
	fromYAML, err := prototype.Decode([]byte(nuwaYAML), ".yaml")
	require.NoError(t, err)

	fromJSON, err := prototype.Decode([]byte(`{
		"id": "nuwa",
		"name": "individual",
		"description": "A role",
		"information": "Feature: I am Nuwa",
		"alias": ["nw"],
		"parent": {"name": "society", "description": "The world"},
		"children": [
			{"name": "identity", "description": "Who", "children": [
				{"name": "background", "description": "Origins"}
			]}
		]
	}`), ".json")
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromJSON)
}

func TestDecode_WeakTypes(t *testing.T) {
	state, err := prototype.Decode([]byte("id: 42\nname: goal\nalias: g1\n"), ".yml")
	require.NoError(t, err)
	assert.Equal(t, "42", state.ID)
	assert.Equal(t, []string{"g1"}, state.Alias)
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"no name":       "id: x\n",
		"unknown field": "name: goal\ncolour: red\n",
		"not a map":     "- a\n- b\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := prototype.Decode([]byte(doc), ".yaml")
			assert.Error(t, err)
		})
	}
}

func TestFileLoader_Locators(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "goal.yaml"), "name: goal\n")

	loader := &prototype.FileLoader{Dir: dir}

	_, err := loader.Load(ctx, "goal.yaml")
	assert.NoError(t, err, "relative to Dir")

	_, err = loader.Load(ctx, "file://"+filepath.Join(dir, "goal.yaml"))
	assert.NoError(t, err, "file scheme")

	_, err = loader.Load(ctx, "https://example.com/goal.yaml")
	assert.Error(t, err, "remote locators are not files")

	_, err = loader.Load(ctx, "missing.yaml")
	assert.Error(t, err)
}
