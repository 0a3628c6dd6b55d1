package arbor_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/prototype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	society    = domain.NewStructure("society", "The world", nil)
	individual = domain.NewStructure("individual", "A role", society)
	identity   = domain.NewStructure("identity", "Who", individual)
	tone       = domain.NewStructure("tone", "How", identity)
)

func TestPlatform_ActivateMergesTemplate(t *testing.T) {
	ctx := context.Background()
	reg := prototype.NewRegistry()
	require.NoError(t, reg.Seed(&domain.State{
		ID:          "sean",
		Name:        "individual",
		Information: "Feature: template",
		Alias:       []string{"sj"},
		Children: []*domain.State{
			{Name: "identity", Children: []*domain.State{{Name: "background", Information: "Grew up online"}}},
		},
	}))

	p, err := arbor.New(arbor.WithPrototypes(reg))
	require.NoError(t, err)
	rt := p.Runtime()

	world, err := rt.Create(ctx, "", society, domain.Attributes{})
	require.NoError(t, err)
	sean, err := rt.Create(ctx, world.Ref, individual, domain.Attributes{ID: "sean", Information: "Feature: I am Sean"})
	require.NoError(t, err)
	id, err := rt.Create(ctx, sean.Ref, identity, domain.Attributes{})
	require.NoError(t, err)
	_, err = rt.Create(ctx, id.Ref, tone, domain.Attributes{Information: "Dry"})
	require.NoError(t, err)

	state, err := p.Activate(ctx, "", sean.Ref)
	require.NoError(t, err)

	assert.Equal(t, sean.Ref, state.Ref, "the live node keeps its identity")
	assert.Equal(t, "Feature: I am Sean", state.Information)
	assert.Equal(t, []string{"sj"}, state.Alias, "defaults come from the template")
	require.Len(t, state.Children, 1)
	names := []string{}
	for _, c := range state.Children[0].Children {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"background", "tone"}, names)
}

func TestPlatform_ActivateWithoutTemplate(t *testing.T) {
	ctx := context.Background()

	for name, opts := range map[string][]arbor.Option{
		"no registry": nil,
		"no template": {arbor.WithPrototypes(prototype.NewRegistry())},
	} {
		t.Run(name, func(t *testing.T) {
			p, err := arbor.New(opts...)
			require.NoError(t, err)

			world, err := p.Runtime().Create(ctx, "", society, domain.Attributes{ID: "world", Information: "plain"})
			require.NoError(t, err)

			state, err := p.Activate(ctx, "", world.Ref)
			require.NoError(t, err)
			assert.Equal(t, "plain", state.Information)
		})
	}
}

func TestPlatform_ActivateMissingNode(t *testing.T) {
	p, err := arbor.New()
	require.NoError(t, err)

	_, err = p.Activate(context.Background(), "sean", "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlatform_WithRuntimeAndMiddleware(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.json")

	var wrapped bool
	p, err := arbor.New(
		arbor.WithRuntime(file.NewRuntime(path)),
		arbor.WithMiddleware(func(next ports.Runtime) ports.Runtime {
			wrapped = true
			return next
		}),
	)
	require.NoError(t, err)
	assert.True(t, wrapped)

	world, err := p.Runtime().Create(ctx, "", society, domain.Attributes{})
	require.NoError(t, err)

	other := file.NewRuntime(path)
	_, err = other.Project(ctx, world.Ref)
	assert.NoError(t, err, "writes land in the configured runtime")

	assert.Nil(t, p.Prototypes())
	assert.NotNil(t, p.Organization())
}

func TestPlatform_OrganizationUsesWrappedRuntime(t *testing.T) {
	ctx := context.Background()
	metrics := middleware.NewMetrics("test")
	p, err := arbor.New(arbor.WithMiddleware(middleware.NewMetricsMiddleware(metrics)))
	require.NoError(t, err)

	org := domain.NewStructure("organization", "A group", society)
	world, err := p.Runtime().Create(ctx, "", society, domain.Attributes{})
	require.NoError(t, err)
	acme, err := p.Runtime().Create(ctx, world.Ref, org, domain.Attributes{ID: "acme"})
	require.NoError(t, err)
	sean, err := p.Runtime().Create(ctx, world.Ref, individual, domain.Attributes{ID: "sean"})
	require.NoError(t, err)

	require.NoError(t, p.Organization().Hire(ctx, acme.Ref, sean.Ref))

	state, err := p.Runtime().Project(ctx, acme.Ref)
	require.NoError(t, err)
	require.Len(t, state.Links, 1)
	assert.Equal(t, "membership", state.Links[0].Relation)
}
