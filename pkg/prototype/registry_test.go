package prototype_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/prototype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Watchable = (*prototype.Registry)(nil)

const nuwaYAML = `
id: nuwa
name: individual
description: A role
information: "Feature: I am Nuwa"
alias: [nw]
parent:
  name: society
  description: The world
children:
  - name: identity
    description: Who
    children:
      - name: background
        description: Origins
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRegistry_Seed(t *testing.T) {
	reg := prototype.NewRegistry()

	err := reg.Seed(&domain.State{Name: "individual"})
	assert.ErrorIs(t, err, domain.ErrMissingID)

	require.NoError(t, reg.Seed(&domain.State{ID: "sean", Name: "individual", Information: "v1"}))
	require.NoError(t, reg.Seed(&domain.State{ID: "sean", Name: "individual", Information: "v2"}), "last write wins")

	tpl, err := reg.Resolve(context.Background(), "sean")
	require.NoError(t, err)
	assert.Equal(t, "v2", tpl.Information)
	assert.Equal(t, []string{"sean"}, reg.Seeded())
}

func TestRegistry_ResolveReturnsCopies(t *testing.T) {
	reg := prototype.NewRegistry()
	seed := &domain.State{ID: "sean", Name: "individual", Information: "v1"}
	require.NoError(t, reg.Seed(seed))

	seed.Information = "mutated after seed"
	tpl, err := reg.Resolve(context.Background(), "sean")
	require.NoError(t, err)
	assert.Equal(t, "v1", tpl.Information)

	tpl.Information = "mutated after resolve"
	again, err := reg.Resolve(context.Background(), "sean")
	require.NoError(t, err)
	assert.Equal(t, "v1", again.Information)
}

func TestRegistry_ResolveMissing(t *testing.T) {
	_, err := prototype.NewRegistry().Resolve(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_SummonResolvesFromSource(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "nuwa.yaml"), nuwaYAML)

	reg := prototype.NewRegistry(prototype.WithLoader(&prototype.FileLoader{Dir: dir}))
	require.NoError(t, reg.Summon(ctx, "nuwa", "nuwa.yaml"))

	tpl, err := reg.Resolve(ctx, "nuwa")
	require.NoError(t, err)
	assert.Equal(t, "individual", tpl.Name)
	assert.Equal(t, "Feature: I am Nuwa", tpl.Information)
	require.NotNil(t, tpl.Parent)
	assert.Equal(t, "society", tpl.Parent.Name)
	require.Len(t, tpl.Children, 1)
	assert.Equal(t, "background", tpl.Children[0].Children[0].Name)

	// Cached: removing the file does not affect later resolutions.
	require.NoError(t, os.Remove(filepath.Join(dir, "nuwa.yaml")))
	_, err = reg.Resolve(ctx, "nuwa")
	assert.NoError(t, err)

	_, err = reg.Reload(ctx, "nuwa")
	assert.Error(t, err, "reload goes back to the source")
}

func TestRegistry_Banish(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "nuwa.yaml"), nuwaYAML)

	reg := prototype.NewRegistry()
	require.NoError(t, reg.Summon(ctx, "nuwa", filepath.Join(dir, "nuwa.yaml")))
	_, err := reg.Resolve(ctx, "nuwa")
	require.NoError(t, err)

	require.NoError(t, reg.Banish(ctx, "nuwa"))

	sources, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)

	_, err = reg.Resolve(ctx, "nuwa")
	assert.ErrorIs(t, err, domain.ErrNotFound, "the loaded template goes with its source")
}

func TestRegistry_BanishKeepsSeeded(t *testing.T) {
	ctx := context.Background()
	reg := prototype.NewRegistry()

	require.NoError(t, reg.Seed(&domain.State{ID: "sean", Name: "individual", Information: "seeded"}))
	require.NoError(t, reg.Summon(ctx, "sean", "sean.yaml"))
	require.NoError(t, reg.Banish(ctx, "sean"))

	tpl, err := reg.Resolve(ctx, "sean")
	require.NoError(t, err)
	assert.Equal(t, "seeded", tpl.Information)
	assert.Equal(t, []string{"sean"}, reg.Seeded())
}

func TestRegistry_ResummonReadsNewSource(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	v1 := filepath.Join(dir, "v1.json")
	v2 := filepath.Join(dir, "v2.json")
	writeFile(t, v1, `{"name": "individual", "information": "v1"}`)
	writeFile(t, v2, `{"name": "individual", "information": "v2"}`)

	reg := prototype.NewRegistry()
	require.NoError(t, reg.Summon(ctx, "sean", v1))
	tpl, err := reg.Resolve(ctx, "sean")
	require.NoError(t, err)
	assert.Equal(t, "v1", tpl.Information)

	require.NoError(t, reg.Summon(ctx, "sean", v2))
	tpl, err = reg.Resolve(ctx, "sean")
	require.NoError(t, err)
	assert.Equal(t, "v2", tpl.Information)
}

func TestRegistry_SeededExcludesLoaded(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "nuwa.yaml"), nuwaYAML)

	reg := prototype.NewRegistry()
	require.NoError(t, reg.Seed(&domain.State{ID: "sean", Name: "individual"}))
	require.NoError(t, reg.Summon(ctx, "nuwa", filepath.Join(dir, "nuwa.yaml")))
	_, err := reg.Resolve(ctx, "nuwa")
	require.NoError(t, err)

	assert.Equal(t, []string{"sean"}, reg.Seeded())
}

func TestRegistry_SummonValidation(t *testing.T) {
	ctx := context.Background()
	reg := prototype.NewRegistry()
	assert.ErrorIs(t, reg.Summon(ctx, "", "x.yaml"), domain.ErrMissingID)
	assert.Error(t, reg.Summon(ctx, "x", ""))
}

func TestRegistry_SourcesSurviveRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sourcesPath := filepath.Join(dir, "sources.json")
	writeFile(t, filepath.Join(dir, "nuwa.yaml"), nuwaYAML)

	first := prototype.NewRegistry(prototype.WithSourceStore(file.NewSourceStore(sourcesPath)))
	require.NoError(t, first.Summon(ctx, "nuwa", filepath.Join(dir, "nuwa.yaml")))
	require.NoError(t, first.Seed(&domain.State{ID: "seeded", Name: "individual"}))

	second := prototype.NewRegistry(prototype.WithSourceStore(file.NewSourceStore(sourcesPath)))
	tpl, err := second.Resolve(ctx, "nuwa")
	require.NoError(t, err, "summoned sources persist")
	assert.Equal(t, "nuwa", tpl.ID)

	_, err = second.Resolve(ctx, "seeded")
	assert.ErrorIs(t, err, domain.ErrNotFound, "seeded templates do not")
}

func TestRegistry_SourceIDOverridesDeclaredID(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "t.json"), `{"id": "other", "name": "individual"}`)

	reg := prototype.NewRegistry()
	require.NoError(t, reg.Summon(ctx, "sean", "file://"+filepath.Join(dir, "t.json")))

	tpl, err := reg.Resolve(ctx, "sean")
	require.NoError(t, err)
	assert.Equal(t, "sean", tpl.ID)
}

func TestRegistry_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nuwa.yaml")
	writeFile(t, path, nuwaYAML)

	reg := prototype.NewRegistry()
	require.NoError(t, reg.Summon(ctx, "nuwa", path))
	_, err := reg.Resolve(ctx, "nuwa")
	require.NoError(t, err)

	changes, err := reg.Watch(ctx)
	require.NoError(t, err)

	writeFile(t, path, "id: nuwa\nname: individual\ninformation: rewritten\n")

	select {
	case id := <-changes:
		assert.Equal(t, "nuwa", id)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	tpl, err := reg.Resolve(ctx, "nuwa")
	require.NoError(t, err)
	assert.Equal(t, "rewritten", tpl.Information)

	cancel()
	for range changes {
	}
}
