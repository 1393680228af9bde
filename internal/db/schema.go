package db

// Schema is the DDL for the sent-mail archive.
const Schema = `
CREATE TABLE IF NOT EXISTS sent_messages (
    id          TEXT PRIMARY KEY,
    sheet_row   INTEGER NOT NULL,
    recipient   TEXT NOT NULL,
    subject     TEXT NOT NULL,
    followup    INTEGER NOT NULL,
    raw         BLOB NOT NULL,
    sent_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sent_recipient ON sent_messages(recipient);
CREATE INDEX IF NOT EXISTS idx_sent_at ON sent_messages(sent_at DESC);
`
