package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ledger (
    id                   INTEGER PRIMARY KEY CHECK (id = 1),
    admin                TEXT NOT NULL,
    total_budget         INTEGER NOT NULL,
    pool                 INTEGER NOT NULL,
    saved_at             TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS departments (
    id                   TEXT PRIMARY KEY,
    allocated            INTEGER NOT NULL,
    requested            INTEGER NOT NULL,
    spent                INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS treasury (
    id                   INTEGER PRIMARY KEY CHECK (id = 1),
    funded               INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS balances (
    recipient            TEXT PRIMARY KEY,
    amount               INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    seq                  INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id             TEXT NOT NULL UNIQUE,
    type                 TEXT NOT NULL,
    department           TEXT NOT NULL,
    amount               INTEGER NOT NULL,
    at                   TEXT NOT NULL
);
`
