package ports

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Structures used by the contract suites.
var (
	contractSociety      = domain.NewStructure("society", "The world every role lives in", nil)
	contractIndividual   = domain.NewStructure("individual", "A role", contractSociety)
	contractOrganization = domain.NewStructure("organization", "A group of roles", contractSociety)
	contractPosition     = domain.NewStructure("position", "A seat in an organization", contractOrganization)
	contractDuty         = domain.NewStructure("duty", "A responsibility of a position", contractPosition)
	contractGoal         = domain.NewStructure("goal", "Something a role pursues", contractIndividual)
)

// RunRuntimeContract runs a suite of tests to verify that a Runtime implementation
// adheres to the defined interface contract. newRuntime must return an empty runtime.
func RunRuntimeContract(t *testing.T, newRuntime func(t *testing.T) Runtime) {
	ctx := context.Background()

	t.Run("Create and Project", func(t *testing.T) {
		rt := newRuntime(t)
		society, err := rt.Create(ctx, "", contractSociety, domain.Attributes{})
		require.NoError(t, err)
		require.NotEmpty(t, society.Ref)

		sean, err := rt.Create(ctx, society.Ref, contractIndividual, domain.Attributes{
			ID:          "sean",
			Alias:       []string{"Sean", "姜山"},
			Information: "Feature: I am Sean",
		})
		require.NoError(t, err)
		assert.NotEqual(t, society.Ref, sean.Ref, "refs are unique")
		assert.Equal(t, "individual", sean.Name)

		state, err := rt.Project(ctx, sean.Ref)
		require.NoError(t, err)
		assert.Equal(t, sean.Ref, state.Ref)
		assert.Equal(t, "sean", state.ID)
		assert.Equal(t, []string{"Sean", "姜山"}, state.Alias)
		assert.Equal(t, "individual", state.Name)
		assert.Equal(t, "A role", state.Description)
		assert.Equal(t, "Feature: I am Sean", state.Information)
		require.NotNil(t, state.Parent)
		assert.Equal(t, "society", state.Parent.Name)

		root, err := rt.Project(ctx, society.Ref)
		require.NoError(t, err)
		assert.Nil(t, root.Parent)
		require.Len(t, root.Children, 1)
		assert.Equal(t, sean.Ref, root.Children[0].Ref)
	})

	t.Run("Create Under Missing Parent", func(t *testing.T) {
		rt := newRuntime(t)
		_, err := rt.Create(ctx, "missing-ref", contractIndividual, domain.Attributes{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Project Missing", func(t *testing.T) {
		rt := newRuntime(t)
		_, err := rt.Project(ctx, "missing-ref")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Children Keep Creation Order", func(t *testing.T) {
		rt := newRuntime(t)
		society, err := rt.Create(ctx, "", contractSociety, domain.Attributes{})
		require.NoError(t, err)
		for _, id := range []string{"a", "b", "c"} {
			_, err := rt.Create(ctx, society.Ref, contractIndividual, domain.Attributes{ID: id})
			require.NoError(t, err)
		}

		state, err := rt.Project(ctx, society.Ref)
		require.NoError(t, err)
		var ids []string
		for _, c := range state.Children {
			ids = append(ids, c.ID)
		}
		assert.Equal(t, []string{"a", "b", "c"}, ids)
	})

	t.Run("End To End Link", func(t *testing.T) {
		rt := newRuntime(t)
		society, err := rt.Create(ctx, "", contractSociety, domain.Attributes{})
		require.NoError(t, err)
		sean, err := rt.Create(ctx, society.Ref, contractIndividual, domain.Attributes{Information: "Feature: I am Sean", ID: "sean"})
		require.NoError(t, err)
		acme, err := rt.Create(ctx, society.Ref, contractOrganization, domain.Attributes{ID: "acme"})
		require.NoError(t, err)

		require.NoError(t, rt.Link(ctx, acme.Ref, sean.Ref, "membership", "belong"))

		acmeState, err := rt.Project(ctx, acme.Ref)
		require.NoError(t, err)
		require.Len(t, acmeState.Links, 1)
		assert.Equal(t, "membership", acmeState.Links[0].Relation)
		assert.Equal(t, "sean", acmeState.Links[0].Target.ID)
		assert.Empty(t, acmeState.Links[0].Target.Children, "link targets are shallow")
		assert.Empty(t, acmeState.Links[0].Target.Links, "link targets are shallow")

		seanState, err := rt.Project(ctx, sean.Ref)
		require.NoError(t, err)
		require.Len(t, seanState.Links, 1)
		assert.Equal(t, "belong", seanState.Links[0].Relation)
		assert.Equal(t, "acme", seanState.Links[0].Target.ID)

		root, err := rt.Project(ctx, society.Ref)
		require.NoError(t, err)
		assert.Len(t, root.Children, 2, "links never change tree shape")
	})

	t.Run("Link Is Idempotent", func(t *testing.T) {
		rt := newRuntime(t)
		society, _ := rt.Create(ctx, "", contractSociety, domain.Attributes{})
		sean, _ := rt.Create(ctx, society.Ref, contractIndividual, domain.Attributes{ID: "sean"})
		acme, _ := rt.Create(ctx, society.Ref, contractOrganization, domain.Attributes{ID: "acme"})

		require.NoError(t, rt.Link(ctx, acme.Ref, sean.Ref, "membership", "belong"))
		require.NoError(t, rt.Link(ctx, acme.Ref, sean.Ref, "membership", "belong"))

		acmeState, err := rt.Project(ctx, acme.Ref)
		require.NoError(t, err)
		assert.Len(t, acmeState.Links, 1)
		seanState, err := rt.Project(ctx, sean.Ref)
		require.NoError(t, err)
		assert.Len(t, seanState.Links, 1)
	})

	t.Run("Link Missing Node", func(t *testing.T) {
		rt := newRuntime(t)
		society, _ := rt.Create(ctx, "", contractSociety, domain.Attributes{})
		err := rt.Link(ctx, society.Ref, "missing-ref", "membership", "belong")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Unlink", func(t *testing.T) {
		rt := newRuntime(t)
		society, _ := rt.Create(ctx, "", contractSociety, domain.Attributes{})
		sean, _ := rt.Create(ctx, society.Ref, contractIndividual, domain.Attributes{ID: "sean"})
		acme, _ := rt.Create(ctx, society.Ref, contractOrganization, domain.Attributes{ID: "acme"})

		// Absent edge: no-op.
		require.NoError(t, rt.Unlink(ctx, acme.Ref, sean.Ref, "membership", "belong"))

		require.NoError(t, rt.Link(ctx, acme.Ref, sean.Ref, "membership", "belong"))
		require.NoError(t, rt.Unlink(ctx, acme.Ref, sean.Ref, "membership", "belong"))

		acmeState, err := rt.Project(ctx, acme.Ref)
		require.NoError(t, err)
		assert.Empty(t, acmeState.Links)
		seanState, err := rt.Project(ctx, sean.Ref)
		require.NoError(t, err)
		assert.Empty(t, seanState.Links, "both directions go together")

		err = rt.Unlink(ctx, acme.Ref, "missing-ref", "membership", "belong")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Remove Cascades", func(t *testing.T) {
		rt := newRuntime(t)
		society, _ := rt.Create(ctx, "", contractSociety, domain.Attributes{})
		sean, _ := rt.Create(ctx, society.Ref, contractIndividual, domain.Attributes{ID: "sean"})
		acme, _ := rt.Create(ctx, society.Ref, contractOrganization, domain.Attributes{ID: "acme"})
		cto, _ := rt.Create(ctx, acme.Ref, contractPosition, domain.Attributes{ID: "cto"})
		duty, _ := rt.Create(ctx, cto.Ref, contractDuty, domain.Attributes{ID: "architecture"})

		require.NoError(t, rt.Link(ctx, acme.Ref, sean.Ref, "membership", "belong"))
		require.NoError(t, rt.Link(ctx, cto.Ref, sean.Ref, "appointment", "serve"))
		require.NoError(t, rt.Link(ctx, duty.Ref, cto.Ref, "of", "has"))

		before, err := rt.Project(ctx, sean.Ref)
		require.NoError(t, err)
		require.Len(t, before.Links, 2)

		require.NoError(t, rt.Remove(ctx, acme.Ref))

		for _, ref := range []string{acme.Ref, cto.Ref, duty.Ref} {
			_, err := rt.Project(ctx, ref)
			assert.ErrorIs(t, err, domain.ErrNotFound, "descendant %s must be gone", ref)
		}

		after, err := rt.Project(ctx, sean.Ref)
		require.NoError(t, err)
		assert.Empty(t, after.Links, "relations into the removed subtree are dropped")
		assert.Equal(t, "sean", after.ID)

		root, err := rt.Project(ctx, society.Ref)
		require.NoError(t, err)
		require.Len(t, root.Children, 1)
		assert.Equal(t, sean.Ref, root.Children[0].Ref)
	})

	t.Run("Remove Is Idempotent", func(t *testing.T) {
		rt := newRuntime(t)
		society, _ := rt.Create(ctx, "", contractSociety, domain.Attributes{})
		assert.NoError(t, rt.Remove(ctx, "missing-ref"))
		require.NoError(t, rt.Remove(ctx, society.Ref))
		assert.NoError(t, rt.Remove(ctx, society.Ref))

		roots, err := rt.Roots(ctx)
		require.NoError(t, err)
		assert.Empty(t, roots)
	})

	t.Run("Ref Stability", func(t *testing.T) {
		rt := newRuntime(t)
		society, _ := rt.Create(ctx, "", contractSociety, domain.Attributes{})
		sean, _ := rt.Create(ctx, society.Ref, contractIndividual, domain.Attributes{ID: "sean"})
		_, _ = rt.Create(ctx, sean.Ref, contractGoal, domain.Attributes{ID: "ship", Information: "Feature: Ship"})

		before, err := rt.Project(ctx, sean.Ref)
		require.NoError(t, err)

		acme, err := rt.Create(ctx, society.Ref, contractOrganization, domain.Attributes{ID: "acme"})
		require.NoError(t, err)
		nuwa, err := rt.Create(ctx, society.Ref, contractIndividual, domain.Attributes{ID: "nuwa"})
		require.NoError(t, err)
		require.NoError(t, rt.Link(ctx, acme.Ref, nuwa.Ref, "membership", "belong"))
		require.NoError(t, rt.Unlink(ctx, acme.Ref, nuwa.Ref, "membership", "belong"))
		require.NoError(t, rt.Remove(ctx, nuwa.Ref))

		after, err := rt.Project(ctx, sean.Ref)
		require.NoError(t, err)
		assert.Equal(t, before, after, "unrelated operations must not churn a projection")
	})

	t.Run("Transform", func(t *testing.T) {
		rt := newRuntime(t)
		society, _ := rt.Create(ctx, "", contractSociety, domain.Attributes{})
		sean, _ := rt.Create(ctx, society.Ref, contractIndividual, domain.Attributes{ID: "sean"})
		acme, _ := rt.Create(ctx, society.Ref, contractOrganization, domain.Attributes{ID: "acme"})

		goal, err := rt.Transform(ctx, acme.Ref, contractGoal, "Feature: Grow acme")
		require.NoError(t, err)
		assert.Equal(t, "goal", goal.Name)
		assert.Equal(t, "Feature: Grow acme", goal.Information)

		seanState, err := rt.Project(ctx, sean.Ref)
		require.NoError(t, err)
		require.Len(t, seanState.Children, 1, "goal lands under the unique individual")
		assert.Equal(t, goal.Ref, seanState.Children[0].Ref)

		_, err = rt.Project(ctx, acme.Ref)
		assert.NoError(t, err, "transform never deletes the source")
	})

	t.Run("Transform Without Container", func(t *testing.T) {
		rt := newRuntime(t)
		society, _ := rt.Create(ctx, "", contractSociety, domain.Attributes{})

		_, err := rt.Transform(ctx, society.Ref, contractGoal, "Feature: Nowhere")
		assert.ErrorIs(t, err, domain.ErrNoContainer)

		_, err = rt.Transform(ctx, society.Ref, contractSociety, "")
		assert.ErrorIs(t, err, domain.ErrNoContainer, "root types have no container")
	})

	t.Run("Transform Ambiguous Container", func(t *testing.T) {
		rt := newRuntime(t)
		society, _ := rt.Create(ctx, "", contractSociety, domain.Attributes{})
		_, _ = rt.Create(ctx, society.Ref, contractIndividual, domain.Attributes{ID: "sean"})
		nuwa, _ := rt.Create(ctx, society.Ref, contractIndividual, domain.Attributes{ID: "nuwa"})

		_, err := rt.Transform(ctx, society.Ref, contractGoal, "Feature: Whose?")
		assert.ErrorIs(t, err, domain.ErrAmbiguousContainer)

		// Removing one container resolves the ambiguity.
		require.NoError(t, rt.Remove(ctx, nuwa.Ref))
		_, err = rt.Transform(ctx, society.Ref, contractGoal, "Feature: Sean's")
		assert.NoError(t, err)
	})

	t.Run("Transform Missing Source", func(t *testing.T) {
		rt := newRuntime(t)
		society, _ := rt.Create(ctx, "", contractSociety, domain.Attributes{})
		_, _ = rt.Create(ctx, society.Ref, contractIndividual, domain.Attributes{ID: "sean"})

		_, err := rt.Transform(ctx, "missing-ref", contractGoal, "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Tag", func(t *testing.T) {
		rt := newRuntime(t)
		society, _ := rt.Create(ctx, "", contractSociety, domain.Attributes{})
		sean, _ := rt.Create(ctx, society.Ref, contractIndividual, domain.Attributes{ID: "sean"})
		goal, _ := rt.Create(ctx, sean.Ref, contractGoal, domain.Attributes{ID: "ship"})

		require.NoError(t, rt.Tag(ctx, goal.Ref, "done"))

		state, err := rt.Project(ctx, sean.Ref)
		require.NoError(t, err)
		require.Len(t, state.Children, 1)
		assert.Equal(t, "done", state.Children[0].Tag)
		assert.Equal(t, goal.Ref, state.Children[0].Ref, "tagging keeps tree shape")

		assert.ErrorIs(t, rt.Tag(ctx, "missing-ref", "done"), domain.ErrNotFound)
	})

	t.Run("Roots", func(t *testing.T) {
		rt := newRuntime(t)
		first, _ := rt.Create(ctx, "", contractSociety, domain.Attributes{ID: "first"})
		_, _ = rt.Create(ctx, first.Ref, contractIndividual, domain.Attributes{ID: "sean"})
		second, _ := rt.Create(ctx, "", contractSociety, domain.Attributes{ID: "second"})

		roots, err := rt.Roots(ctx)
		require.NoError(t, err)
		require.Len(t, roots, 2)
		assert.Equal(t, first.Ref, roots[0].Ref)
		assert.Equal(t, second.Ref, roots[1].Ref)
		assert.Equal(t, "society", roots[0].Name)
	})
}

// RunSourceStoreContract runs a suite of tests to verify that a SourceStore implementation
// adheres to the defined interface contract. The store must start empty.
func RunSourceStoreContract(t *testing.T, store SourceStore) {
	ctx := context.Background()

	t.Run("Summon and List", func(t *testing.T) {
		require.NoError(t, store.Summon(ctx, "nuwa", "file:///prototypes/nuwa.yaml"))
		require.NoError(t, store.Summon(ctx, "sean", "prototypes/sean.json"))

		sources, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, "file:///prototypes/nuwa.yaml", sources["nuwa"])
		assert.Equal(t, "prototypes/sean.json", sources["sean"])
	})

	t.Run("Summon Overwrites", func(t *testing.T) {
		require.NoError(t, store.Summon(ctx, "nuwa", "prototypes/nuwa-v2.yaml"))

		sources, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, "prototypes/nuwa-v2.yaml", sources["nuwa"])
	})

	t.Run("Banish", func(t *testing.T) {
		require.NoError(t, store.Banish(ctx, "nuwa"))
		assert.NoError(t, store.Banish(ctx, "never-summoned"), "banishing an unknown id is a no-op")

		sources, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, sources, "nuwa")
		assert.Contains(t, sources, "sean")
	})
}
