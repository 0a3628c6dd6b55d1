/*
Package arbor is a runtime for typed trees of structures with cross-branch relations.

A Structure is a type descriptor (name, description and the structure it must
live under). Instances are created under a parent, linked to each other by named
relations and read back as a State: a recursive projection of a node, its
children and the nodes it relates to.

# Platform

The Platform bundles the pieces a host needs:

  - a ports.Runtime (in memory, a JSON graph file or SQLite),
  - an optional prototype registry, so instances inherit defaults from templates,
  - an organization service that validates hire, fire, appoint and dismiss.

Usage:

	p, err := arbor.New(arbor.WithPrototypes(prototype.NewRegistry()))
	if err != nil {
		log.Fatal(err)
	}

	rt := p.Runtime()
	world, _ := rt.Create(ctx, "", society, domain.Attributes{})
	sean, _ := rt.Create(ctx, world.Ref, individual, domain.Attributes{ID: "sean"})

	// Merge the "sean" template under the live node.
	state, err := p.Activate(ctx, "sean", sean.Ref)

Inheritance is domain.MergeState: the live projection wins on every field it
sets, the template fills the rest.
*/
package arbor
