package store

// schemaVersion is bumped whenever the tables below change shape. Databases
// with an older version are wiped on open.
const schemaVersion = 1

const SchemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

const PreferencesSchema = `
CREATE TABLE IF NOT EXISTS preferences (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

const FilterStateSchema = `
CREATE TABLE IF NOT EXISTS filter_states (
    cluster TEXT NOT NULL,
    view TEXT NOT NULL,
    state TEXT NOT NULL, -- FilterState as JSON
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (cluster, view)
);
`
