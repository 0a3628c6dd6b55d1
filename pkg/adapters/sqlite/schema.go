package sqlite

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup.
//
// nodes.structure holds the JSON descriptor of the node type's parent, which
// projections expose as State.Parent. Child and link order follow rowid.
const schema = `
CREATE TABLE IF NOT EXISTS nodes (
    ref         TEXT PRIMARY KEY,
    id          TEXT,
    alias       TEXT,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    parent_ref  TEXT REFERENCES nodes(ref),
    information TEXT,
    tag         TEXT,
    structure   TEXT
);

CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_ref);
CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);

CREATE TABLE IF NOT EXISTS links (
    from_ref TEXT NOT NULL REFERENCES nodes(ref),
    to_ref   TEXT NOT NULL REFERENCES nodes(ref),
    relation TEXT NOT NULL,
    PRIMARY KEY (from_ref, to_ref, relation)
);

CREATE INDEX IF NOT EXISTS idx_links_to ON links(to_ref);
`

// nodeColumns is the column list every node query selects, in scan order.
const nodeColumns = `n.ref, n.id, n.alias, n.name, n.description, n.parent_ref, n.information, n.tag, n.structure`

// subtreeCTE selects a node and all of its tree descendants with their depth.
const subtreeCTE = `
WITH RECURSIVE subtree(ref, depth) AS (
    SELECT ref, 0 FROM nodes WHERE ref = ?
    UNION ALL
    SELECT n.ref, s.depth + 1 FROM nodes n JOIN subtree s ON n.parent_ref = s.ref
)`
