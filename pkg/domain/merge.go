package domain

// MergeState combines a prototype tree (base) with a live instance tree (overlay).
//
// Scalar fields come from overlay when set, from base otherwise. Children are
// grouped by name and, inside each group, matched by id; when exactly one id-less
// node is left on each side the two are merged as a singleton. Everything else is
// kept from both sides. Links are unioned and deduplicated by relation and target
// identity (id, else ref, else name).
//
// Neither input is modified.
func MergeState(base, overlay *State) *State {
	if base == nil {
		return overlay.Clone()
	}
	if overlay == nil {
		return base.Clone()
	}

	merged := &State{
		Ref:         pick(overlay.Ref, base.Ref),
		ID:          pick(overlay.ID, base.ID),
		Name:        pick(overlay.Name, base.Name),
		Description: pick(overlay.Description, base.Description),
		Information: pick(overlay.Information, base.Information),
		Tag:         pick(overlay.Tag, base.Tag),
	}

	if len(overlay.Alias) > 0 {
		merged.Alias = cloneStrings(overlay.Alias)
	} else {
		merged.Alias = cloneStrings(base.Alias)
	}

	if overlay.Parent != nil {
		merged.Parent = overlay.Parent.Clone()
	} else {
		merged.Parent = base.Parent.Clone()
	}

	merged.Children = mergeChildren(base.Children, overlay.Children)
	merged.Links = mergeLinks(base.Links, overlay.Links)
	return merged
}

func pick(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}

// childGroup holds the same-named siblings of both trees.
type childGroup struct {
	base    []*State
	overlay []*State
}

func mergeChildren(base, overlay []*State) []*State {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}

	var names []string
	groups := make(map[string]*childGroup)
	group := func(name string) *childGroup {
		g, ok := groups[name]
		if !ok {
			g = &childGroup{}
			groups[name] = g
			names = append(names, name)
		}
		return g
	}
	for _, c := range base {
		g := group(c.Name)
		g.base = append(g.base, c)
	}
	for _, c := range overlay {
		g := group(c.Name)
		g.overlay = append(g.overlay, c)
	}

	var out []*State
	for _, name := range names {
		out = append(out, groups[name].merge()...)
	}
	return out
}

// merge applies the id, singleton and union tiers to one name group.
// Output keeps base order, with unmatched overlay nodes appended.
func (g *childGroup) merge() []*State {
	pairs := make(map[int]int) // base index -> overlay index
	usedOverlay := make(map[int]bool)

	// Tier 1: pair by id.
	for i, b := range g.base {
		if b.ID == "" {
			continue
		}
		for j, o := range g.overlay {
			if !usedOverlay[j] && o.ID == b.ID {
				pairs[i] = j
				usedOverlay[j] = true
				break
			}
		}
	}

	// Tier 2: a lone id-less node on each side is a structural singleton.
	baseLone, overlayLone := -1, -1
	baseCount, overlayCount := 0, 0
	for i, b := range g.base {
		if b.ID == "" {
			baseCount++
			baseLone = i
		}
	}
	for j, o := range g.overlay {
		if o.ID == "" {
			overlayCount++
			overlayLone = j
		}
	}
	if baseCount == 1 && overlayCount == 1 {
		pairs[baseLone] = overlayLone
		usedOverlay[overlayLone] = true
	}

	// Tier 3: union of whatever is left.
	out := make([]*State, 0, len(g.base)+len(g.overlay))
	for i, b := range g.base {
		if j, ok := pairs[i]; ok {
			out = append(out, MergeState(b, g.overlay[j]))
			continue
		}
		out = append(out, b.Clone())
	}
	for j, o := range g.overlay {
		if !usedOverlay[j] {
			out = append(out, o.Clone())
		}
	}
	return out
}

func mergeLinks(base, overlay []Link) []Link {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	seen := make(map[[2]string]bool, len(base)+len(overlay))
	out := make([]Link, 0, len(base)+len(overlay))
	add := func(l Link) {
		key := [2]string{l.Relation, targetIdentity(l.Target)}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, Link{Relation: l.Relation, Target: l.Target.Clone()})
	}
	for _, l := range overlay {
		add(l)
	}
	for _, l := range base {
		add(l)
	}
	return out
}

func targetIdentity(s *State) string {
	switch {
	case s == nil:
		return ""
	case s.ID != "":
		return "id:" + s.ID
	case s.Ref != "":
		return "ref:" + s.Ref
	default:
		return "name:" + s.Name
	}
}
