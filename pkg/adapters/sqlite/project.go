package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

type nodeRow struct {
	node      *domain.Node
	parentRef string
}

func scanNode(s scanner) (nodeRow, error) {
	var (
		ref, name, description                     string
		id, alias, parentRef, info, tag, structure sql.NullString
	)
	if err := s.Scan(&ref, &id, &alias, &name, &description, &parentRef, &info, &tag, &structure); err != nil {
		return nodeRow{}, fmt.Errorf("sqlite: scan node: %w", err)
	}

	node := &domain.Node{
		Structure:   domain.Structure{Name: name, Description: description},
		Ref:         ref,
		ID:          id.String,
		Information: info.String,
		Tag:         tag.String,
	}
	if alias.Valid {
		if err := json.Unmarshal([]byte(alias.String), &node.Alias); err != nil {
			return nodeRow{}, fmt.Errorf("sqlite: decode alias of %q: %w", ref, err)
		}
	}
	if structure.Valid {
		if err := json.Unmarshal([]byte(structure.String), &node.Parent); err != nil {
			return nodeRow{}, fmt.Errorf("sqlite: decode structure of %q: %w", ref, err)
		}
	}
	return nodeRow{node: node, parentRef: parentRef.String}, nil
}

// Project builds the State tree rooted at ref from two queries: one for the
// subtree nodes and one for the links leaving them.
func (r *Runtime) Project(ctx context.Context, ref string) (*domain.State, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // nothing to commit

	rows, err := tx.QueryContext(ctx,
		subtreeCTE+` SELECT `+nodeColumns+` FROM nodes n JOIN subtree s ON n.ref = s.ref ORDER BY n.rowid`, ref)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query subtree: %w", err)
	}
	var subtree []nodeRow
	for rows.Next() {
		row, err := scanNode(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		subtree = append(subtree, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: iterate subtree: %w", err)
	}
	rows.Close()

	if len(subtree) == 0 {
		return nil, notFound(ref)
	}

	states := make(map[string]*domain.State, len(subtree))
	for _, row := range subtree {
		states[row.node.Ref] = domain.NewState(row.node)
	}
	for _, row := range subtree {
		if row.node.Ref == ref {
			continue
		}
		parent := states[row.parentRef]
		parent.Children = append(parent.Children, states[row.node.Ref])
	}

	rows, err = tx.QueryContext(ctx,
		subtreeCTE+` SELECT l.from_ref, l.relation, `+nodeColumns+`
		FROM links l
		JOIN subtree s ON l.from_ref = s.ref
		JOIN nodes n ON n.ref = l.to_ref
		ORDER BY l.rowid`, ref)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var from, relation string
		row, err := scanNode(prefixed{rows, []any{&from, &relation}})
		if err != nil {
			return nil, err
		}
		owner := states[from]
		owner.Links = append(owner.Links, domain.Link{
			Relation: relation,
			Target:   domain.NewState(row.node),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate links: %w", err)
	}

	return states[ref], nil
}

// prefixed scans leading columns into head before handing the rest to the
// wrapped destination list.
type prefixed struct {
	rows *sql.Rows
	head []any
}

func (p prefixed) Scan(dest ...any) error {
	return p.rows.Scan(append(p.head, dest...)...)
}
