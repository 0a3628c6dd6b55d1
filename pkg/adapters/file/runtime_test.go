package file_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.Runtime     = (*file.Runtime)(nil)
	_ ports.SourceStore = (*file.SourceStore)(nil)
)

var (
	society    = domain.NewStructure("society", "The world", nil)
	individual = domain.NewStructure("individual", "A role", society)
)

func TestFileRuntime_Contract(t *testing.T) {
	ports.RunRuntimeContract(t, func(t *testing.T) ports.Runtime {
		return file.NewRuntime(filepath.Join(t.TempDir(), "graph.json"))
	})
}

func TestFileSourceStore_Contract(t *testing.T) {
	ports.RunSourceStoreContract(t, file.NewSourceStore(filepath.Join(t.TempDir(), "sources.json")))
}

func TestFileRuntime_CrossInstanceVisibility(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "graph.json")

	writer := file.NewRuntime(path)
	reader := file.NewRuntime(path)

	root, err := writer.Create(ctx, "", society, domain.Attributes{})
	require.NoError(t, err)
	sean, err := writer.Create(ctx, root.Ref, individual, domain.Attributes{ID: "sean"})
	require.NoError(t, err)

	state, err := reader.Project(ctx, sean.Ref)
	require.NoError(t, err, "a second handle sees writes through the file")
	assert.Equal(t, "sean", state.ID)

	require.NoError(t, reader.Remove(ctx, sean.Ref))
	_, err = writer.Project(ctx, sean.Ref)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileRuntime_PersistedFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.json")
	rt := file.NewRuntime(path)

	root, err := rt.Create(ctx, "", society, domain.Attributes{ID: "world"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	nodes, ok := doc["nodes"].([]any)
	require.True(t, ok)
	require.Len(t, nodes, 1)
	assert.Equal(t, root.Ref, nodes[0].(map[string]any)["key"])
	assert.Contains(t, doc, "edges")
}

func TestFileRuntime_FailedMutationLeavesFileUntouched(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.json")
	rt := file.NewRuntime(path)

	_, err := rt.Create(ctx, "", society, domain.Attributes{})
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = rt.Create(ctx, "missing-ref", individual, domain.Attributes{})
	require.ErrorIs(t, err, domain.ErrNotFound)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileRuntime_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := file.NewRuntime(path).Roots(context.Background())
	assert.Error(t, err, "I/O and decode failures are surfaced, not masked")
}

func TestFileSourceStore_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sources.json")

	require.NoError(t, file.NewSourceStore(path).Summon(ctx, "nuwa", "prototypes/nuwa.yaml"))

	sources, err := file.NewSourceStore(path).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"nuwa": "prototypes/nuwa.yaml"}, sources)
}
