package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Overlay contains dynamic data to visualize on the graph.
type Overlay struct {
	// Highlight lists refs drawn with the "current" style.
	Highlight []string
}

// GenerateMermaid produces a Mermaid flowchart of a projection.
// Tree edges are solid arrows; relations are dotted arrows labeled with the
// relation name. Tagged nodes carry their tag under the label.
func GenerateMermaid(root *domain.State, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if root == nil {
		return sb.String()
	}

	declared := make(map[string]bool)
	declare := func(s *domain.State) {
		if declared[s.Ref] {
			return
		}
		declared[s.Ref] = true
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", nodeID(s.Ref), label(s)))
	}

	var walk func(s *domain.State)
	walk = func(s *domain.State) {
		declare(s)
		for _, child := range s.Children {
			walk(child)
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeID(s.Ref), nodeID(child.Ref)))
		}
	}
	walk(root)

	// Relations after the tree so targets outside the subtree are declared once.
	var relations func(s *domain.State)
	relations = func(s *domain.State) {
		for _, l := range s.Links {
			declare(l.Target)
			sb.WriteString(fmt.Sprintf("    %s -. \"%s\" .-> %s\n", nodeID(s.Ref), escape(l.Relation), nodeID(l.Target.Ref)))
		}
		for _, child := range s.Children {
			relations(child)
		}
	}
	relations(root)

	if overlay != nil && len(overlay.Highlight) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on both light and dark themes.
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		seen := make(map[string]bool)
		for _, ref := range overlay.Highlight {
			if !declared[ref] || seen[ref] {
				continue
			}
			seen[ref] = true
			sb.WriteString(fmt.Sprintf("    class %s current;\n", nodeID(ref)))
		}
	}

	return sb.String()
}

func label(s *domain.State) string {
	text := s.Name
	if s.ID != "" {
		text += ": " + s.ID
	}
	if s.Tag != "" {
		text += " <br/> #" + s.Tag
	}
	return escape(text)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

// nodeID turns a ref into a Mermaid-safe identifier.
func nodeID(ref string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", ":", "_")
	return "n_" + r.Replace(ref)
}
