package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Runtime implements ports.Runtime over a SQLite database.
//
// Every operation reads and writes the nodes/links tables directly; there is no
// load/save cycle. Refs are random UUIDs stored as primary keys, so a ref captured
// by a caller stays valid until that node is removed. Mutations run in a single
// transaction each.
type Runtime struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at dbPath, enables WAL mode, foreign
// keys and busy timeout, and creates the schema tables if they do not exist.
func Open(ctx context.Context, dbPath string) (*Runtime, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	// SQLite supports a single writer. One connection keeps the PRAGMAs below
	// in effect for every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	return &Runtime{db: db}, nil
}

// Close closes the database.
func (r *Runtime) Close() error {
	return r.db.Close()
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (r *Runtime) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func notFound(ref string) error {
	return fmt.Errorf("node %q: %w", ref, domain.ErrNotFound)
}

func exists(ctx context.Context, q querier, ref string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM nodes WHERE ref = ?", ref).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: lookup %q: %w", ref, err)
	}
	return true, nil
}

func requireNode(ctx context.Context, q querier, ref string) error {
	ok, err := exists(ctx, q, ref)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(ref)
	}
	return nil
}

// Create materializes typ under parentRef.
func (r *Runtime) Create(ctx context.Context, parentRef string, typ *domain.Structure, attrs domain.Attributes) (*domain.Node, error) {
	if typ == nil {
		return nil, fmt.Errorf("structure is required")
	}
	var node *domain.Node
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if parentRef != "" {
			if err := requireNode(ctx, tx, parentRef); err != nil {
				return fmt.Errorf("parent: %w", err)
			}
		}
		var err error
		node, err = insertNode(ctx, tx, parentRef, typ, attrs)
		return err
	})
	return node, err
}

func insertNode(ctx context.Context, q querier, parentRef string, typ *domain.Structure, attrs domain.Attributes) (*domain.Node, error) {
	node := &domain.Node{
		Structure:   *typ.Clone(),
		Ref:         uuid.NewString(),
		ID:          attrs.ID,
		Alias:       attrs.Alias,
		Information: attrs.Information,
	}

	alias, err := encodeJSON(node.Alias, len(node.Alias) > 0)
	if err != nil {
		return nil, fmt.Errorf("sqlite: encode alias: %w", err)
	}
	parentType, err := encodeJSON(node.Parent, node.Parent != nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: encode structure: %w", err)
	}

	const stmt = `
		INSERT INTO nodes (ref, id, alias, name, description, parent_ref, information, tag, structure)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?)`
	if _, err := q.ExecContext(ctx, stmt, node.Ref, nullable(node.ID), alias, node.Name, node.Description,
		nullable(parentRef), nullable(node.Information), parentType); err != nil {
		return nil, fmt.Errorf("sqlite: insert %s: %w", node.Name, err)
	}
	return node, nil
}

// Remove deletes the subtree at ref and every link touching it.
func (r *Runtime) Remove(ctx context.Context, ref string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, subtreeCTE+` SELECT ref FROM subtree ORDER BY depth DESC`, ref)
		if err != nil {
			return fmt.Errorf("sqlite: collect subtree: %w", err)
		}
		var refs []string
		for rows.Next() {
			var sub string
			if err := rows.Scan(&sub); err != nil {
				rows.Close()
				return fmt.Errorf("sqlite: scan subtree: %w", err)
			}
			refs = append(refs, sub)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: iterate subtree: %w", err)
		}
		rows.Close()

		// Leaves first, so parent_ref never points at a deleted row.
		for _, sub := range refs {
			if _, err := tx.ExecContext(ctx, "DELETE FROM links WHERE from_ref = ? OR to_ref = ?", sub, sub); err != nil {
				return fmt.Errorf("sqlite: delete links of %q: %w", sub, err)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM nodes WHERE ref = ?", sub); err != nil {
				return fmt.Errorf("sqlite: delete %q: %w", sub, err)
			}
		}
		return nil
	})
}

// Transform creates target under the unique container of its parent type.
func (r *Runtime) Transform(ctx context.Context, sourceRef string, target *domain.Structure, information string) (*domain.Node, error) {
	if target == nil {
		return nil, fmt.Errorf("structure is required")
	}
	var node *domain.Node
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireNode(ctx, tx, sourceRef); err != nil {
			return fmt.Errorf("source: %w", err)
		}
		if target.Parent == nil {
			return fmt.Errorf("%q is a root structure: %w", target.Name, domain.ErrNoContainer)
		}
		container, err := findContainer(ctx, tx, target.Parent.Name)
		if err != nil {
			return err
		}
		node, err = insertNode(ctx, tx, container, target, domain.Attributes{Information: information})
		return err
	})
	return node, err
}

func findContainer(ctx context.Context, q querier, typeName string) (string, error) {
	rows, err := q.QueryContext(ctx, "SELECT ref FROM nodes WHERE name = ? ORDER BY rowid LIMIT 2", typeName)
	if err != nil {
		return "", fmt.Errorf("sqlite: find container %q: %w", typeName, err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return "", fmt.Errorf("sqlite: scan container: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("sqlite: iterate containers: %w", err)
	}

	switch len(refs) {
	case 0:
		return "", fmt.Errorf("%q: %w", typeName, domain.ErrNoContainer)
	case 1:
		return refs[0], nil
	default:
		return "", fmt.Errorf("%q has more than one instance: %w", typeName, domain.ErrAmbiguousContainer)
	}
}

// Link relates two nodes. The pair is written only if the forward edge is absent.
func (r *Runtime) Link(ctx context.Context, fromRef, toRef, relation, reverse string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireBoth(ctx, tx, fromRef, toRef); err != nil {
			return err
		}

		var one int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM links WHERE from_ref = ? AND to_ref = ? AND relation = ?",
			fromRef, toRef, relation).Scan(&one)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("sqlite: lookup link: %w", err)
		}

		const q = `INSERT OR IGNORE INTO links (from_ref, to_ref, relation) VALUES (?, ?, ?)`
		if _, err := tx.ExecContext(ctx, q, fromRef, toRef, relation); err != nil {
			return fmt.Errorf("sqlite: insert link %q: %w", relation, err)
		}
		if _, err := tx.ExecContext(ctx, q, toRef, fromRef, reverse); err != nil {
			return fmt.Errorf("sqlite: insert link %q: %w", reverse, err)
		}
		return nil
	})
}

// Unlink removes both directions of a relation.
func (r *Runtime) Unlink(ctx context.Context, fromRef, toRef, relation, reverse string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireBoth(ctx, tx, fromRef, toRef); err != nil {
			return err
		}
		const q = `DELETE FROM links WHERE from_ref = ? AND to_ref = ? AND relation = ?`
		if _, err := tx.ExecContext(ctx, q, fromRef, toRef, relation); err != nil {
			return fmt.Errorf("sqlite: delete link %q: %w", relation, err)
		}
		if _, err := tx.ExecContext(ctx, q, toRef, fromRef, reverse); err != nil {
			return fmt.Errorf("sqlite: delete link %q: %w", reverse, err)
		}
		return nil
	})
}

func requireBoth(ctx context.Context, q querier, fromRef, toRef string) error {
	if err := requireNode(ctx, q, fromRef); err != nil {
		return err
	}
	return requireNode(ctx, q, toRef)
}

// Tag sets the tag of a node.
func (r *Runtime) Tag(ctx context.Context, ref, tag string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE nodes SET tag = ? WHERE ref = ?", nullable(tag), ref)
	if err != nil {
		return fmt.Errorf("sqlite: tag %q: %w", ref, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: tag %q: %w", ref, err)
	}
	if n == 0 {
		return notFound(ref)
	}
	return nil
}

// Roots returns the parentless nodes in creation order.
func (r *Runtime) Roots(ctx context.Context) ([]*domain.Node, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes n WHERE n.parent_ref IS NULL ORDER BY n.rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query roots: %w", err)
	}
	defer rows.Close()

	var roots []*domain.Node
	for rows.Next() {
		row, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		roots = append(roots, row.node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate roots: %w", err)
	}
	return roots, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func encodeJSON(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
