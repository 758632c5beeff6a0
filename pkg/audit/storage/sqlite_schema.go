package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the decision records table and its query indexes.
const Schema = `
CREATE TABLE IF NOT EXISTS decisions (
    id TEXT PRIMARY KEY,
    time TIMESTAMP NOT NULL,

    endpoint TEXT NOT NULL,
    phase TEXT NOT NULL,
    decision TEXT NOT NULL,
    reason TEXT,
    rule_index INTEGER NOT NULL,
    error TEXT,

    user_id TEXT,
    user_role TEXT,

    policy_commit TEXT,

    duration_us INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_time ON decisions(time);
CREATE INDEX IF NOT EXISTS idx_decisions_endpoint ON decisions(endpoint);
CREATE INDEX IF NOT EXISTS idx_decisions_user ON decisions(user_id);
CREATE INDEX IF NOT EXISTS idx_decisions_decision ON decisions(decision);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InsertSchemaVersion records the schema version after creation.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?);`

// GetSchemaVersion reads the recorded schema version.
const GetSchemaVersion = `SELECT version FROM schema_version LIMIT 1;`
